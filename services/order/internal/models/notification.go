package models

import "time"

type RecipientType string

const (
	RecipientCustomer RecipientType = "customer"
	RecipientOwner    RecipientType = "owner"
)

// PushStatus tracks the outbox delivery attempt of a notification row.
type PushStatus string

const (
	PushPending    PushStatus = "pending"
	PushDelivering PushStatus = "delivering"
	PushSent       PushStatus = "sent"
	PushFailed     PushStatus = "failed"
	PushSkipped    PushStatus = "skipped"
)

type OrderNotification struct {
	ID              uint          `gorm:"primaryKey"                json:"id"`
	OrderID         uint          `gorm:"index;not null"            json:"order_id"`
	RecipientID     uint          `gorm:"index;not null"            json:"recipient_id"`
	RecipientType   RecipientType `gorm:"size:20;not null"          json:"recipient_type"`
	Type            string        `gorm:"size:50;not null"          json:"type"`
	Title           string        `gorm:"size:200;not null"         json:"title"`
	Message         string        `gorm:"type:text;not null"        json:"message"`
	IsRead          bool          `gorm:"not null;index"            json:"is_read"`
	SentAt          time.Time     `gorm:"index;not null"            json:"sent_at"`
	ReadAt          *time.Time    `                                 json:"read_at,omitempty"`
	PushStatus      PushStatus    `gorm:"size:20;index;not null"    json:"push_status"`
	PushAttemptedAt *time.Time    `                                 json:"push_attempted_at,omitempty"`
}

type PushToken struct {
	ID         uint      `gorm:"primaryKey"             json:"id"`
	UserID     uint      `gorm:"index;not null"         json:"user_id"`
	Token      string    `gorm:"size:255;index;not null" json:"fcm_token"`
	DeviceType string    `gorm:"size:20"                json:"device_type"`
	DeviceID   string    `gorm:"size:255;index"         json:"device_id"`
	IsActive   bool      `gorm:"not null"               json:"is_active"`
	CreatedAt  time.Time `                              json:"created_at"`
	UpdatedAt  time.Time `                              json:"updated_at"`
}

func (PushToken) TableName() string { return "user_fcm_tokens" }
