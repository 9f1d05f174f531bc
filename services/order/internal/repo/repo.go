package repo

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

// ErrStaleOrder means the order changed between read and conditional write.
var ErrStaleOrder = errors.New("order was modified concurrently")

// UnavailableError lists catalog ids that do not exist or cannot be ordered.
type UnavailableError struct {
	Kind string
	IDs  []uint
}

func (e *UnavailableError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s not available: %s", e.Kind, strings.Join(ids, ", "))
}

type GormRepo struct {
	DB *gorm.DB
}

// Migrate creates the tables owned by the order service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemOption{},
		&models.OrderStatusHistory{},
		&models.OrderPayment{},
		&models.OrderNotification{},
		&models.PushToken{},
	)
}

// MigrateCatalog creates the read-model tables normally owned by the store
// and menu services. Used for local setups and tests.
func MigrateCatalog(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Store{},
		&models.StoreOperationStatus{},
		&models.MenuItem{},
		&models.OptionItem{},
	)
}

func missing(requested []uint, found func(uint) bool) []uint {
	var out []uint
	for _, id := range requested {
		if !found(id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
