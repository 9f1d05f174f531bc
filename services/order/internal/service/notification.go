package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/services/order/internal/authz"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/repo"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
	"github.com/Skotchmaster/ezpickup/services/order/internal/util"
)

const maxNotificationLimit = 100

type NotificationStore interface {
	ListNotifications(ctx context.Context, f repo.NotificationFilter) (int64, []models.OrderNotification, error)
	GetNotification(ctx context.Context, id uint) (*models.OrderNotification, error)
	SetNotificationRead(ctx context.Context, id uint, isRead bool, at time.Time) (*models.OrderNotification, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID uint, rt models.RecipientType, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID uint, rt models.RecipientType) (int64, error)
	RegisterPushToken(ctx context.Context, t *models.PushToken) error
	UnregisterPushToken(ctx context.Context, userID uint, deviceID string) (int64, error)
}

// NotificationService serves a user's own notifications and push devices.
type NotificationService struct {
	Store NotificationStore
	Now   func() time.Time
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// inboxOf maps the caller's role to the inbox it reads. Admins see every row
// addressed to them.
func inboxOf(actor authz.Actor) models.RecipientType {
	switch actor.Role {
	case authz.RoleCustomer:
		return models.RecipientCustomer
	case authz.RoleOwner:
		return models.RecipientOwner
	}
	return ""
}

func (s *NotificationService) List(ctx context.Context, actor authz.Actor, q transport.NotificationQuery) (transport.Page[models.OrderNotification], error) {
	page, limit := clampPage(q.Page, q.Limit, util.DefaultPageSize, maxNotificationLimit)
	offset, _ := util.Calculate(page, limit)

	total, rows, err := s.Store.ListNotifications(ctx, repo.NotificationFilter{
		RecipientID:   actor.UserID,
		RecipientType: inboxOf(actor),
		Type:          strings.TrimSpace(q.Type),
		IsRead:        q.IsRead,
		Offset:        offset,
		Limit:         limit,
	})
	if err != nil {
		return transport.Page[models.OrderNotification]{}, err
	}
	if rows == nil {
		rows = []models.OrderNotification{}
	}
	return transport.Page[models.OrderNotification]{Data: rows, Meta: transport.NewPageMeta(total, page, limit)}, nil
}

func (s *NotificationService) Get(ctx context.Context, actor authz.Actor, id uint) (*models.OrderNotification, error) {
	n, err := s.Store.GetNotification(ctx, id)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	if err := authz.Authorize(actor, authz.Resource{RecipientID: n.RecipientID}, authz.ReadNotification); err != nil {
		return nil, storeErr(err, "notification")
	}
	return n, nil
}

func (s *NotificationService) SetRead(ctx context.Context, actor authz.Actor, id uint, isRead bool) (*models.OrderNotification, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	n, err := s.Store.SetNotificationRead(ctx, id, isRead, s.now())
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor authz.Actor) (int64, error) {
	n, err := s.Store.MarkAllNotificationsRead(ctx, actor.UserID, inboxOf(actor), s.now())
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).With("svc", "notification.mark_all_read").Info("notifications_marked_read", "user_id", actor.UserID, "count", n)
	return n, nil
}

func (s *NotificationService) CountUnread(ctx context.Context, actor authz.Actor) (int64, error) {
	return s.Store.CountUnread(ctx, actor.UserID, inboxOf(actor))
}

func (s *NotificationService) RegisterPushToken(ctx context.Context, actor authz.Actor, req transport.RegisterPushTokenRequest) (*models.PushToken, error) {
	token, device := strings.TrimSpace(req.Token), strings.TrimSpace(req.DeviceID)
	if token == "" || device == "" {
		return nil, fmt.Errorf("%w: fcm_token and device_id are required", ErrValidation)
	}

	t := &models.PushToken{
		UserID:     actor.UserID,
		Token:      token,
		DeviceType: req.DeviceType,
		DeviceID:   device,
	}
	if err := s.Store.RegisterPushToken(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UnregisterPushToken succeeds even when the device had no active token.
func (s *NotificationService) UnregisterPushToken(ctx context.Context, actor authz.Actor, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return fmt.Errorf("%w: device_id is required", ErrValidation)
	}
	_, err := s.Store.UnregisterPushToken(ctx, actor.UserID, deviceID)
	return err
}
