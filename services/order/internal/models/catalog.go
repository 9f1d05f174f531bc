package models

import "github.com/shopspring/decimal"

// Catalog and store rows are owned by the store/menu services. The order
// service only reads them.

type MenuItem struct {
	ID              uint                `gorm:"primaryKey"                  json:"id"`
	StoreID         uint                `gorm:"index;not null"              json:"store_id"`
	Name            string              `gorm:"size:100;not null"           json:"name"`
	Price           decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	DiscountedPrice decimal.NullDecimal `gorm:"type:decimal(10,2)"          json:"discounted_price"`
	IsAvailable     bool                `gorm:"not null"                    json:"is_available"`
	IsDeleted       bool                `gorm:"not null"                    json:"is_deleted"`
}

// OrderPrice is the price charged per unit.
func (m MenuItem) OrderPrice() decimal.Decimal {
	if m.DiscountedPrice.Valid && m.DiscountedPrice.Decimal.IsPositive() {
		return m.DiscountedPrice.Decimal
	}
	return m.Price
}

type OptionItem struct {
	ID          uint            `gorm:"primaryKey"                  json:"id"`
	GroupID     uint            `gorm:"index;not null"              json:"group_id"`
	Name        string          `gorm:"size:100;not null"           json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsAvailable bool            `gorm:"not null"                    json:"is_available"`
}

type Store struct {
	ID          uint   `gorm:"primaryKey"                   json:"id"`
	Name        string `gorm:"size:100;not null"            json:"name"`
	Domain      string `gorm:"size:100;uniqueIndex;not null" json:"domain"`
	OwnerUserID uint   `gorm:"index;not null"               json:"owner_user_id"`
}

type StoreOperationStatus struct {
	ID                uint `gorm:"primaryKey"           json:"id"`
	StoreID           uint `gorm:"uniqueIndex;not null" json:"store_id"`
	IsAcceptingOrders bool `gorm:"not null"             json:"is_accepting_orders"`
}

// StoreInfo is what the order core needs to know about a store.
type StoreInfo struct {
	ID                uint
	Name              string
	Domain            string
	OwnerUserID       uint
	IsAcceptingOrders bool
}
