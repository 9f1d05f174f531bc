package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)

// OrderEvent is published to the order events topic, keyed by order number.
type OrderEvent struct {
	EventID        string               `json:"event_id"`
	Type           string               `json:"type"`
	OrderID        uint                 `json:"order_id"`
	OrderNumber    string               `json:"order_number"`
	StoreID        uint                 `json:"store_id"`
	CustomerID     *uint                `json:"customer_id,omitempty"`
	Status         models.OrderStatus   `json:"status"`
	PreviousStatus *models.OrderStatus  `json:"previous_status,omitempty"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
	FinalAmount    decimal.Decimal      `json:"final_amount"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

func newOrderEvent(typ string, o *models.Order, previous *models.OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		EventID:        uuid.NewString(),
		Type:           typ,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		StoreID:        o.StoreID,
		CustomerID:     o.CustomerID,
		Status:         o.Status,
		PreviousStatus: previous,
		PaymentStatus:  o.PaymentStatus,
		FinalAmount:    o.FinalAmount,
		OccurredAt:     at,
	}
}
