// Package cart holds a customer's in-progress basket. A cart is scoped to
// exactly one restaurant at a time; items from a second restaurant may only
// enter after the caller confirms the switch, which clears the basket.
package cart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cravewave/api/internal/billing"
)

var (
	ErrDifferentRestaurant = errors.New("cart holds items from another restaurant")
	ErrItemNotFound        = errors.New("item not in cart")
)

// Item is a menu item snapshot plus quantity.
type Item struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int32           `json:"quantity"`
}

// Cart is an ordered collection of items bound to one restaurant.
// RestaurantID is uuid.Nil when the cart is empty.
type Cart struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Items        []Item    `json:"items"`
}

// Add puts one unit of item into the cart. If the cart already holds items
// from a different restaurant it returns ErrDifferentRestaurant unless
// replace is true, in which case the basket is cleared first (the caller is
// expected to have asked the user). Adding an item already present bumps its
// quantity instead of appending a duplicate line.
func (c *Cart) Add(restaurantID uuid.UUID, item Item, replace bool) error {
	if c.RestaurantID != uuid.Nil && c.RestaurantID != restaurantID {
		if !replace {
			return ErrDifferentRestaurant
		}
		c.Items = nil
	}
	c.RestaurantID = restaurantID

	for i := range c.Items {
		if c.Items[i].MenuItemID == item.MenuItemID {
			c.Items[i].Quantity++
			return nil
		}
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity applies a delta to an item's quantity, clamping at zero.
// A line reaching zero is removed; an emptied cart drops its restaurant
// binding so the next Add can start a fresh basket anywhere.
func (c *Cart) UpdateQuantity(menuItemID uuid.UUID, delta int32) error {
	for i := range c.Items {
		if c.Items[i].MenuItemID != menuItemID {
			continue
		}
		qty := c.Items[i].Quantity + delta
		if qty <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = qty
		}
		if len(c.Items) == 0 {
			c.RestaurantID = uuid.Nil
		}
		return nil
	}
	return ErrItemNotFound
}

// Remove deletes an item line entirely.
func (c *Cart) Remove(menuItemID uuid.UUID) error {
	return c.UpdateQuantity(menuItemID, -1<<30)
}

// Clear empties the cart and releases the restaurant binding.
func (c *Cart) Clear() {
	c.Items = nil
	c.RestaurantID = uuid.Nil
}

// TotalItems is the summed quantity across all lines.
func (c *Cart) TotalItems() int32 {
	var n int32
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Lines converts the cart's items into calculator line items.
func (c *Cart) Lines() []billing.LineItem {
	lines := make([]billing.LineItem, len(c.Items))
	for i, item := range c.Items {
		lines[i] = billing.LineItem{
			ID:        item.MenuItemID.String(),
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return lines
}
