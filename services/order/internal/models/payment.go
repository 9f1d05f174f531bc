package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentPartiallyRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCreditCard    PaymentMethod = "credit_card"
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodMobilePayment PaymentMethod = "mobile_payment"
	MethodPoint         PaymentMethod = "point"
	MethodCash          PaymentMethod = "cash"
	MethodOther         PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodBankTransfer, MethodMobilePayment, MethodPoint, MethodCash, MethodOther:
		return true
	}
	return false
}

type OrderPayment struct {
	ID             uint              `gorm:"primaryKey"                  json:"id"`
	OrderID        uint              `gorm:"uniqueIndex;not null"        json:"order_id"`
	Amount         decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod  PaymentMethod     `gorm:"size:20;not null"            json:"payment_method"`
	PaymentStatus  PaymentStatus     `gorm:"size:20;not null"            json:"payment_status"`
	TransactionID  *string           `gorm:"size:100"                    json:"transaction_id,omitempty"`
	PaymentDetails datatypes.JSONMap `                                   json:"payment_details,omitempty"`
	PaidAt         *time.Time        `                                   json:"paid_at,omitempty"`
	RefundedAt     *time.Time        `                                   json:"refunded_at,omitempty"`
	CreatedAt      time.Time         `                                   json:"created_at"`
	UpdatedAt      time.Time         `                                   json:"updated_at"`
}
