package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusRejected  OrderStatus = "rejected"
	StatusCanceled  OrderStatus = "canceled"
)

// TerminalStatuses are excluded by the "active only" filter.
var TerminalStatuses = []OrderStatus{StatusCompleted, StatusCanceled, StatusRejected}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID               uint            `gorm:"primaryKey"                              json:"id"`
	OrderNumber      string          `gorm:"size:32;uniqueIndex;not null"            json:"order_number"`
	CustomerID       *uint           `gorm:"index"                                   json:"customer_id,omitempty"`
	CustomerName     *string         `gorm:"size:100"                                json:"customer_name,omitempty"`
	CustomerPhone    *string         `gorm:"size:20;index"                           json:"customer_phone,omitempty"`
	IsGuestOrder     bool            `gorm:"not null"                                json:"is_guest_order"`
	StoreID          uint            `gorm:"index;not null"                          json:"store_id"`
	Status           OrderStatus     `gorm:"size:20;index;not null"                  json:"status"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null"             json:"total_amount"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"             json:"discount_amount"`
	FinalAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null"             json:"final_amount"`
	PaymentStatus    PaymentStatus   `gorm:"size:20;not null"                        json:"payment_status"`
	PaymentMethod    PaymentMethod   `gorm:"size:20;not null"                        json:"payment_method"`
	PickupTime       time.Time       `gorm:"index;not null"                          json:"pickup_time"`
	ActualPickupTime *time.Time      `                                               json:"actual_pickup_time,omitempty"`
	CustomerNote     string          `gorm:"type:text"                               json:"customer_note"`
	RejectionReason  *string         `gorm:"type:text"                               json:"rejection_reason,omitempty"`
	Version          int             `gorm:"not null"                                json:"version"`
	CreatedAt        time.Time       `gorm:"index"                                   json:"created_at"`
	UpdatedAt        time.Time       `                                               json:"updated_at"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
	Payment       *OrderPayment        `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
}

type OrderItem struct {
	ID                  uint            `gorm:"primaryKey"                  json:"id"`
	OrderID             uint            `gorm:"index;not null"              json:"order_id"`
	MenuItemID          uint            `gorm:"index;not null"              json:"menu_item_id"`
	MenuName            string          `gorm:"size:100;not null"           json:"menu_name"`
	Quantity            int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	SpecialInstructions *string         `gorm:"type:text"                   json:"special_instructions,omitempty"`
	CreatedAt           time.Time       `                                   json:"created_at"`

	Options []OrderItemOption `gorm:"foreignKey:OrderItemID" json:"options,omitempty"`
}

type OrderItemOption struct {
	ID           uint            `gorm:"primaryKey"                  json:"id"`
	OrderItemID  uint            `gorm:"index;not null"              json:"order_item_id"`
	OptionItemID uint            `gorm:"index;not null"              json:"option_item_id"`
	OptionName   string          `gorm:"size:100;not null"           json:"option_name"`
	Quantity     int             `gorm:"not null"                    json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt    time.Time       `                                   json:"created_at"`
}

type OrderStatusHistory struct {
	ID             uint         `gorm:"primaryKey"        json:"id"`
	OrderID        uint         `gorm:"index;not null"    json:"order_id"`
	PreviousStatus *OrderStatus `gorm:"size:20"           json:"previous_status,omitempty"`
	NewStatus      OrderStatus  `gorm:"size:20;not null"  json:"new_status"`
	ChangedBy      *uint        `                         json:"changed_by,omitempty"`
	ChangedAt      time.Time    `gorm:"not null"          json:"changed_at"`
	Reason         *string      `gorm:"type:text"         json:"reason,omitempty"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
