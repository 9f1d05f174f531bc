package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ezpickup/pkg/logging"
	"github.com/Skotchmaster/ezpickup/services/order/internal/authz"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
)

type PaymentStore interface {
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	GetPayment(ctx context.Context, orderID uint) (*models.OrderPayment, error)
	SavePayment(ctx context.Context, p *models.OrderPayment, syncMethod bool) error
}

// PaymentService records payment outcomes. Talking to a payment gateway is
// not its job; it only keeps the order's payment row and status in step.
type PaymentService struct {
	Store  PaymentStore
	Stores StoreDirectory
	Now    func() time.Time
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PaymentService) authorize(ctx context.Context, actor authz.Actor, orderID uint, act authz.Action) (*models.Order, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	store, err := s.Stores.StoreByID(ctx, order.StoreID)
	if err != nil {
		return nil, storeErr(err, "store")
	}
	if err := authz.Authorize(actor, resourceOf(order, store), act); err != nil {
		return nil, storeErr(err, "order")
	}
	return order, nil
}

// CreatePayment records a completed payment for the order, replacing any
// earlier attempt. The amount must match the order's final amount exactly.
func (s *PaymentService) CreatePayment(ctx context.Context, actor authz.Actor, orderID uint, req transport.CreatePaymentRequest) (*models.OrderPayment, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create_payment", "order_id", orderID)

	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	order, err := s.authorize(ctx, actor, orderID, authz.PayOrder)
	if err != nil {
		return nil, err
	}
	if !req.Amount.Equal(order.FinalAmount) {
		return nil, fmt.Errorf("%w: payment amount %s does not match order amount %s",
			ErrValidation, req.Amount.String(), order.FinalAmount.String())
	}

	p, err := s.Store.GetPayment(ctx, order.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = &models.OrderPayment{OrderID: order.ID}
	case err != nil:
		return nil, err
	}

	now := s.now()
	p.Amount = req.Amount
	p.PaymentMethod = req.PaymentMethod
	p.PaymentStatus = models.PaymentCompleted
	p.TransactionID = req.TransactionID
	p.PaymentDetails = req.PaymentDetails
	p.PaidAt = &now

	if err := s.Store.SavePayment(ctx, p, true); err != nil {
		return nil, storeErr(err, "payment")
	}
	l.Info("payment_recorded", "payment_id", p.ID, "method", p.PaymentMethod)
	return p, nil
}

// UpdatePaymentStatus changes the status of an existing payment. paid_at and
// refunded_at keep the first time the payment reached that state.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, actor authz.Actor, orderID uint, req transport.UpdatePaymentStatusRequest) (*models.OrderPayment, error) {
	l := logging.FromContext(ctx).With("svc", "payment.update_status", "order_id", orderID)

	if !req.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, req.PaymentStatus)
	}
	order, err := s.authorize(ctx, actor, orderID, authz.UpdatePayment)
	if err != nil {
		return nil, err
	}

	p, err := s.Store.GetPayment(ctx, order.ID)
	if err != nil {
		return nil, storeErr(err, "payment")
	}

	now := s.now()
	p.PaymentStatus = req.PaymentStatus
	if req.TransactionID != nil {
		p.TransactionID = req.TransactionID
	}
	if req.PaymentDetails != nil {
		p.PaymentDetails = req.PaymentDetails
	}
	switch req.PaymentStatus {
	case models.PaymentCompleted:
		if p.PaidAt == nil {
			p.PaidAt = &now
		}
	case models.PaymentRefunded, models.PaymentPartiallyRefunded:
		if p.RefundedAt == nil {
			p.RefundedAt = &now
		}
	}

	if err := s.Store.SavePayment(ctx, p, false); err != nil {
		return nil, storeErr(err, "payment")
	}
	l.Info("payment_status_changed", "status", p.PaymentStatus)
	return p, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, actor authz.Actor, orderID uint) (*models.OrderPayment, error) {
	order, err := s.authorize(ctx, actor, orderID, authz.ViewOrder)
	if err != nil {
		return nil, err
	}
	p, err := s.Store.GetPayment(ctx, order.ID)
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	return p, nil
}
