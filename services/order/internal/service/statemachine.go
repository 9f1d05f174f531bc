package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusPreparing, models.StatusRejected, models.StatusCanceled},
	models.StatusPreparing: {models.StatusReady},
	models.StatusReady:     {models.StatusCompleted},
}

func CanTransition(from, to models.OrderStatus) bool {
	return slices.Contains(transitions[from], to)
}

// ValidateTransition checks legality first and then the per-status
// requirements. It never mutates anything.
func ValidateTransition(from, to models.OrderStatus, reason string) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	if to == models.StatusRejected && strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	return nil
}

// ApplyTransition sets the new status on o. The completion time is stamped
// only once.
func ApplyTransition(o *models.Order, to models.OrderStatus, reason string, now time.Time) {
	o.Status = to
	switch to {
	case models.StatusRejected, models.StatusCanceled:
		r := reason
		o.RejectionReason = &r
	case models.StatusCompleted:
		if o.ActualPickupTime == nil {
			t := now
			o.ActualPickupTime = &t
		}
	}
	o.UpdatedAt = now
}
