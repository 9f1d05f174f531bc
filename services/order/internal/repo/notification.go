package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

func (r *GormRepo) CreateNotifications(ctx context.Context, rows []*models.OrderNotification) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(rows).Error
}

// ErrNotClaimed is returned when a push result is recorded for a row that is
// not in the delivering state.
var ErrNotClaimed = errors.New("notification not claimed")

// ClaimNotification moves a pending row to delivering. It reports false when
// the row was already claimed by another worker.
func (r *GormRepo) ClaimNotification(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.OrderNotification{}).
		Where("id = ? AND push_status = ?", id, models.PushPending).
		Updates(map[string]any{"push_status": models.PushDelivering, "push_attempted_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) MarkPushResult(ctx context.Context, id uint, status models.PushStatus, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.OrderNotification{}).
		Where("id = ? AND push_status = ?", id, models.PushDelivering).
		Updates(map[string]any{"push_status": status, "push_attempted_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotClaimed
	}
	return nil
}

// PendingNotifications returns outbox rows never attempted and older than
// sentBefore, oldest first.
func (r *GormRepo) PendingNotifications(ctx context.Context, sentBefore time.Time, limit int) ([]models.OrderNotification, error) {
	var rows []models.OrderNotification
	err := r.DB.WithContext(ctx).
		Where("push_status = ? AND sent_at < ?", models.PushPending, sentBefore).
		Order("sent_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// NotificationFilter selects one inbox. An empty RecipientType matches both
// the customer and the owner inbox of the user.
type NotificationFilter struct {
	RecipientID   uint
	RecipientType models.RecipientType
	Type          string
	IsRead        *bool
	Offset        int
	Limit         int
}

func (r *GormRepo) ListNotifications(ctx context.Context, f NotificationFilter) (int64, []models.OrderNotification, error) {
	apply := func(q *gorm.DB) *gorm.DB {
		q = inbox(q, f.RecipientID, f.RecipientType)
		if f.Type != "" {
			q = q.Where("type = ?", f.Type)
		}
		if f.IsRead != nil {
			q = q.Where("is_read = ?", *f.IsRead)
		}
		return q
	}

	var total int64
	if err := apply(r.DB.WithContext(ctx).Model(&models.OrderNotification{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []models.OrderNotification
	if err := apply(r.DB.WithContext(ctx).Model(&models.OrderNotification{})).
		Order("sent_at DESC, id DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error; err != nil {
		return 0, nil, err
	}
	return total, rows, nil
}

func (r *GormRepo) GetNotification(ctx context.Context, id uint) (*models.OrderNotification, error) {
	var n models.OrderNotification
	if err := r.DB.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// SetNotificationRead keeps the first read_at when a row is marked read again.
func (r *GormRepo) SetNotificationRead(ctx context.Context, id uint, isRead bool, at time.Time) (*models.OrderNotification, error) {
	fields := map[string]any{"is_read": isRead}
	if isRead {
		fields["read_at"] = gorm.Expr("COALESCE(read_at, ?)", at)
	}

	res := r.DB.WithContext(ctx).Model(&models.OrderNotification{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetNotification(ctx, id)
}

func (r *GormRepo) MarkAllNotificationsRead(ctx context.Context, recipientID uint, rt models.RecipientType, at time.Time) (int64, error) {
	res := inbox(r.DB.WithContext(ctx).Model(&models.OrderNotification{}), recipientID, rt).
		Where("is_read = ?", false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) CountUnread(ctx context.Context, recipientID uint, rt models.RecipientType) (int64, error) {
	var n int64
	err := inbox(r.DB.WithContext(ctx).Model(&models.OrderNotification{}), recipientID, rt).
		Where("is_read = ?", false).
		Count(&n).Error
	return n, err
}

func inbox(q *gorm.DB, recipientID uint, rt models.RecipientType) *gorm.DB {
	q = q.Where("recipient_id = ?", recipientID)
	if rt != "" {
		q = q.Where("recipient_type = ?", rt)
	}
	return q
}
