package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

// OrderOptionInput selects an option item; a zero quantity means one.
type OrderOptionInput struct {
	OptionItemID uint `json:"option_item_id" validate:"required"`
	Quantity     int  `json:"quantity"       validate:"gte=0,lte=99"`
}

type OrderItemInput struct {
	MenuItemID          uint               `json:"menu_item_id"                   validate:"required"`
	Quantity            int                `json:"quantity"                       validate:"gte=1,lte=999"`
	SpecialInstructions *string            `json:"special_instructions,omitempty" validate:"omitempty,max=500"`
	Options             []OrderOptionInput `json:"options,omitempty"              validate:"dive"`
}

type GuestInfo struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,max=20"`
}

type CreateOrderRequest struct {
	StoreDomain   string               `json:"store_domain"          validate:"required"`
	Items         []OrderItemInput     `json:"items"                 validate:"required,min=1,dive"`
	PaymentMethod models.PaymentMethod `json:"payment_method"        validate:"required"`
	GuestInfo     *GuestInfo           `json:"guest_info,omitempty"`
	PickupTime    *time.Time           `json:"pickup_time,omitempty"`
	CustomerNote  string               `json:"customer_note"         validate:"max=500"`
}

type CreateOrderResponse struct {
	OrderID       uint                 `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	FinalAmount   decimal.Decimal      `json:"final_amount"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

func NewCreateOrderResponse(o *models.Order) CreateOrderResponse {
	return CreateOrderResponse{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		TotalAmount:   o.TotalAmount,
		FinalAmount:   o.FinalAmount,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
	}
}

type UpdateOrderStatusRequest struct {
	Status          models.OrderStatus `json:"status"                     validate:"required"`
	RejectionReason *string            `json:"rejection_reason,omitempty" validate:"omitempty,max=500"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type CreatePaymentRequest struct {
	Amount         decimal.Decimal      `json:"amount"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"            validate:"required"`
	TransactionID  *string              `json:"transaction_id,omitempty"  validate:"omitempty,max=100"`
	PaymentDetails map[string]any       `json:"payment_details,omitempty"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus  models.PaymentStatus `json:"payment_status"            validate:"required"`
	TransactionID  *string              `json:"transaction_id,omitempty"  validate:"omitempty,max=100"`
	PaymentDetails map[string]any       `json:"payment_details,omitempty"`
}

// OrderQuery is built by the handler from query parameters.
type OrderQuery struct {
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
	SortBy        string
	SortOrder     string
	Page          int
	Limit         int
}

type OrderSearchQuery struct {
	StoreID uint
	Query   string
	Page    int
	Size    int
}

type NotificationQuery struct {
	Type   string
	IsRead *bool
	Page   int
	Limit  int
}

type UpdateNotificationRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

type RegisterPushTokenRequest struct {
	Token      string `json:"fcm_token"   validate:"required,max=255"`
	DeviceType string `json:"device_type" validate:"omitempty,oneof=ios android web"`
	DeviceID   string `json:"device_id"   validate:"required,max=255"`
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

func NewPageMeta(total int64, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type CustomNotificationRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=1000"`
}
