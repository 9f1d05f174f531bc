// Package authz decides whether an actor may perform an action on an order
// or notification. Every use-case calls Authorize before touching state.
package authz

import (
	"errors"
	"fmt"
)

var ErrDenied = errors.New("access denied")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleOwner, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Actor struct {
	UserID uint
	Role   Role
}

type Action string

const (
	ViewOrder         Action = "order.view"
	ListStoreOrders   Action = "order.list_store"
	UpdateOrderStatus Action = "order.update_status"
	CancelOrder       Action = "order.cancel"
	PayOrder          Action = "order.pay"
	UpdatePayment     Action = "order.update_payment"
	NotifyCustomer    Action = "order.notify_customer"
	ReadNotification  Action = "notification.read"
)

// Resource carries the ownership facts a rule needs. Zero values mean
// "not applicable"; CustomerID is nil for guest orders.
type Resource struct {
	CustomerID   *uint
	StoreOwnerID uint
	RecipientID  uint
}

type rule func(a Actor, r Resource) bool

func always(Actor, Resource) bool { return true }

func ownsOrder(a Actor, r Resource) bool {
	return r.CustomerID != nil && *r.CustomerID == a.UserID
}

func ownsStore(a Actor, r Resource) bool {
	return r.StoreOwnerID != 0 && r.StoreOwnerID == a.UserID
}

func isRecipient(a Actor, r Resource) bool {
	return r.RecipientID == a.UserID
}

var policies = map[Action]map[Role]rule{
	ViewOrder: {
		RoleCustomer: ownsOrder,
		RoleOwner:    ownsStore,
		RoleAdmin:    always,
	},
	ListStoreOrders: {
		RoleOwner: ownsStore,
		RoleAdmin: always,
	},
	UpdateOrderStatus: {
		RoleOwner: ownsStore,
		RoleAdmin: always,
	},
	CancelOrder: {
		RoleCustomer: ownsOrder,
	},
	PayOrder: {
		RoleCustomer: ownsOrder,
		RoleOwner:    ownsStore,
		RoleAdmin:    always,
	},
	UpdatePayment: {
		RoleOwner: ownsStore,
		RoleAdmin: always,
	},
	NotifyCustomer: {
		RoleOwner: ownsStore,
		RoleAdmin: always,
	},
	ReadNotification: {
		RoleCustomer: isRecipient,
		RoleOwner:    isRecipient,
		RoleAdmin:    isRecipient,
	},
}

func Authorize(a Actor, r Resource, act Action) error {
	byRole, ok := policies[act]
	if !ok {
		return fmt.Errorf("%w: unknown action %s", ErrDenied, act)
	}
	allow, ok := byRole[a.Role]
	if !ok || !allow(a, r) {
		return fmt.Errorf("%w: %s may not %s", ErrDenied, a.Role, act)
	}
	return nil
}
