package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

func (r *GormRepo) GetPayment(ctx context.Context, orderID uint) (*models.OrderPayment, error) {
	var p models.OrderPayment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePayment creates or updates the single payment row of an order and
// mirrors its status (and, when syncMethod is set, its method) onto the order.
func (r *GormRepo) SavePayment(ctx context.Context, p *models.OrderPayment, syncMethod bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		fields := map[string]any{"payment_status": p.PaymentStatus}
		if syncMethod {
			fields["payment_method"] = p.PaymentMethod
		}
		res := tx.Model(&models.Order{}).Where("id = ?", p.OrderID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
