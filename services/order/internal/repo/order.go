package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

// CreateOrder writes the order header, its line items and their options in
// one transaction. order.Items must carry the options to insert; IDs are
// filled in on success.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
				return err
			}
			for j := range item.Options {
				item.Options[j].OrderItemID = item.ID
			}
			if len(item.Options) > 0 {
				if err := tx.Create(&item.Options).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *GormRepo) orderQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Options", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC, id ASC") }).
		Preload("Payment")
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.orderQuery(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.orderQuery(ctx).Where("order_number = ?", number).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionOrder persists a status change made on order (read at
// expectedVersion) and appends its history row. The update only applies if
// nobody else bumped the version in between.
func (r *GormRepo) TransitionOrder(ctx context.Context, order *models.Order, expectedVersion int, entry *models.OrderStatusHistory) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, expectedVersion).
			Updates(map[string]any{
				"status":             order.Status,
				"rejection_reason":   order.RejectionReason,
				"actual_pickup_time": order.ActualPickupTime,
				"version":            gorm.Expr("version + 1"),
				"updated_at":         order.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleOrder
		}

		entry.OrderID = order.ID
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		order.Version = expectedVersion + 1
		return nil
	})
}

type OrderFilter struct {
	StoreID       *uint
	CustomerID    *uint
	OrderNumber   string
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	PickupFrom    *time.Time
	PickupTo      *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	ActiveOnly    bool

	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

var sortColumns = map[string]string{
	"created_at":  "created_at",
	"pickup_time": "pickup_time",
	"status":      "status",
}

func (f OrderFilter) apply(q *gorm.DB) *gorm.DB {
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.OrderNumber != "" {
		q = q.Where("order_number LIKE ?", "%"+f.OrderNumber+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.PickupFrom != nil {
		q = q.Where("pickup_time >= ?", *f.PickupFrom)
	}
	if f.PickupTo != nil {
		q = q.Where("pickup_time <= ?", *f.PickupTo)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}
	if f.ActiveOnly {
		q = q.Where("status NOT IN ?", models.TerminalStatuses)
	}
	return q
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if f.SortOrder == "ASC" {
		dir = "ASC"
	}

	var orders []models.Order
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Options").
		Order(col + " " + dir).
		Order("id " + dir).
		Offset(f.Offset).
		Limit(f.Limit)
	if err := q.Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}
