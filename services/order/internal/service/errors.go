package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ezpickup/services/order/internal/authz"
	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/repo"
)

var (
	ErrValidation  = errors.New("validation")          // 400
	ErrForbidden   = errors.New("forbidden")           // 403
	ErrNotFound    = errors.New("not found")           // 404
	ErrConflict    = errors.New("conflict")            // 409
	ErrUnavailable = errors.New("service unavailable") // 503
)

// TransitionError reports a status change the state machine does not allow.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrValidation
}

// storeErr maps persistence and authorization failures onto the service
// sentinels. Anything else is returned unchanged and treated as internal.
func storeErr(err error, what string) error {
	var unavailable *repo.UnavailableError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: duplicate %s", ErrConflict, what)
	case errors.Is(err, repo.ErrStaleOrder):
		return fmt.Errorf("%w: %s was modified by another request", ErrConflict, what)
	case errors.Is(err, authz.ErrDenied):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	case errors.As(err, &unavailable):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}
