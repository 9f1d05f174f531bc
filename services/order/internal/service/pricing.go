package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
	"github.com/Skotchmaster/ezpickup/services/order/internal/transport"
)

// CatalogSnapshot holds the catalog rows resolved for one submission.
type CatalogSnapshot struct {
	Menu    map[uint]models.MenuItem
	Options map[uint]models.OptionItem
}

const (
	maxLineQuantity   = 999
	maxOptionQuantity = 99
)

// maxAmount is the largest value a decimal(10,2) money column holds.
var maxAmount = decimal.RequireFromString("99999999.99")

type PricedOrder struct {
	Items []models.OrderItem
	Total decimal.Decimal
}

func validateLines(lines []transport.OrderItemInput) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for i, line := range lines {
		if line.MenuItemID == 0 {
			return fmt.Errorf("%w: items[%d]: menu_item_id is required", ErrValidation, i)
		}
		if line.Quantity < 1 || line.Quantity > maxLineQuantity {
			return fmt.Errorf("%w: items[%d]: quantity must be between 1 and %d", ErrValidation, i, maxLineQuantity)
		}
		for j, opt := range line.Options {
			if opt.OptionItemID == 0 {
				return fmt.Errorf("%w: items[%d].options[%d]: option_item_id is required", ErrValidation, i, j)
			}
			if opt.Quantity < 0 || opt.Quantity > maxOptionQuantity {
				return fmt.Errorf("%w: items[%d].options[%d]: quantity must be between 0 and %d", ErrValidation, i, j, maxOptionQuantity)
			}
		}
	}
	return nil
}

func lineIDs(lines []transport.OrderItemInput) (menu, options []uint) {
	for _, line := range lines {
		menu = append(menu, line.MenuItemID)
		for _, opt := range line.Options {
			options = append(options, opt.OptionItemID)
		}
	}
	return menu, options
}

// PriceOrder computes line and order totals from a catalog snapshot. Each
// line costs unit price × quantity plus every option's price × option
// quantity. It has no side effects.
func PriceOrder(lines []transport.OrderItemInput, snap CatalogSnapshot) (PricedOrder, error) {
	if err := validateLines(lines); err != nil {
		return PricedOrder{}, err
	}

	out := PricedOrder{Items: make([]models.OrderItem, 0, len(lines)), Total: decimal.Zero}
	for i, line := range lines {
		menu, ok := snap.Menu[line.MenuItemID]
		if !ok || !menu.IsAvailable || menu.IsDeleted {
			return PricedOrder{}, fmt.Errorf("%w: items[%d]: menu item %d is not available", ErrValidation, i, line.MenuItemID)
		}

		unit := menu.OrderPrice()
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))

		item := models.OrderItem{
			MenuItemID:          menu.ID,
			MenuName:            menu.Name,
			Quantity:            line.Quantity,
			UnitPrice:           unit,
			SpecialInstructions: line.SpecialInstructions,
		}
		for _, sel := range line.Options {
			opt, ok := snap.Options[sel.OptionItemID]
			if !ok || !opt.IsAvailable {
				return PricedOrder{}, fmt.Errorf("%w: items[%d]: option %d is not available", ErrValidation, i, sel.OptionItemID)
			}
			qty := sel.Quantity
			if qty == 0 {
				qty = 1
			}
			lineTotal = lineTotal.Add(opt.Price.Mul(decimal.NewFromInt(int64(qty))))
			item.Options = append(item.Options, models.OrderItemOption{
				OptionItemID: opt.ID,
				OptionName:   opt.Name,
				Quantity:     qty,
				Price:        opt.Price,
			})
		}

		item.TotalPrice = lineTotal
		out.Total = out.Total.Add(lineTotal)
		if out.Total.GreaterThan(maxAmount) {
			return PricedOrder{}, fmt.Errorf("%w: order total exceeds %s", ErrValidation, maxAmount.StringFixed(2))
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
