package domain

import (
	"errors"
	"fmt"
	"slices"
)

type CartStatus string

const (
	StatusDraft      CartStatus = "draft"
	StatusSubmitting CartStatus = "submitting"
	StatusConfirmed  CartStatus = "confirmed"
)

type DeliveryMethod string

const (
	DeliveryCourier DeliveryMethod = "courier"
	DeliveryPickup  DeliveryMethod = "pickup"
)

// Cart is the open, unconfirmed order of the session.
type Cart struct {
	ID             int64
	Items          []CartItem
	TotalAmount    Money
	TotalItems     int
	DeliveryMethod DeliveryMethod
	Status         CartStatus
}

type CartItem struct {
	// ID is assigned by the server, zero until the item is persisted.
	ID           int64
	SkuID        int64
	Quantity     int
	Price        Money
	MerchantName string
	ProductName  string
	ProductImage *string
}

// CartHandle identifies a resolved, usable cart.
type CartHandle struct {
	CartID int64
}

func (i CartItem) Total() Money {
	return i.Price.Mul(i.Quantity)
}

// Recalculate derives TotalAmount and TotalItems from the items.
// TotalItems counts units, not lines. The total takes the currency of the first item; items
// priced in another currency are left out of the amount and reported as ErrCurrencyMismatch.
func (c *Cart) Recalculate() error {
	cur := c.TotalAmount.Currency
	if len(c.Items) > 0 {
		cur = c.Items[0].Price.Currency
	}

	total := ZeroMoney(cur)
	units := 0
	var mismatch error

	for _, item := range c.Items {
		units += item.Quantity

		sum, err := total.Add(item.Total())
		if err != nil {
			mismatch = errors.Join(mismatch, fmt.Errorf("item %d: %w", item.ID, err))
			continue
		}
		total = sum
	}

	c.TotalAmount = total
	c.TotalItems = units
	return mismatch
}

func (c *Cart) FindItem(itemID int64) (CartItem, int, bool) {
	for i, item := range c.Items {
		if item.ID == itemID {
			return item, i, true
		}
	}
	return CartItem{}, -1, false
}

func (c *Cart) Open() bool {
	return c != nil && c.Status != StatusConfirmed
}

func (c *Cart) Handle() CartHandle {
	return CartHandle{CartID: c.ID}
}

// Clone returns a deep copy, safe to hand out to readers.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}

	clone := *c
	clone.Items = slices.Clone(c.Items)
	for i, item := range clone.Items {
		if item.ProductImage != nil {
			img := *item.ProductImage
			clone.Items[i].ProductImage = &img
		}
	}

	return &clone
}

// CartOutcome tags the result of fetching the session cart.
type CartOutcome int

const (
	CartFound CartOutcome = iota
	CartAbsent
	CartTransient
)

func (o CartOutcome) String() string {
	switch o {
	case CartFound:
		return "found"
	case CartAbsent:
		return "absent"
	case CartTransient:
		return "transient"
	default:
		return "unknown"
	}
}

type CartLookup struct {
	Outcome CartOutcome
	// Cart is set only for CartFound.
	Cart *Cart
	// Err carries the server failure for CartTransient.
	Err error
}
