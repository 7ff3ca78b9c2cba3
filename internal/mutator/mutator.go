package mutator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nikolayk812/storefront/internal/cartstate"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/resolver"
	"go.uber.org/zap"
)

// Mutator changes cart items on the server and keeps the store in step. Every change is
// guarded by a per-item in-flight flag; a second request on a busy item is rejected.
type Mutator struct {
	api      port.StorefrontAPI
	store    *cartstate.Store
	resolver *resolver.Resolver
	logger   *zap.Logger
}

func New(api port.StorefrontAPI, store *cartstate.Store, r *resolver.Resolver, logger *zap.Logger) *Mutator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Mutator{
		api:      api,
		store:    store,
		resolver: r,
		logger:   logger,
	}
}

// Add puts quantity units of the product's best offer into the cart. The new item id is
// learned by re-reading the cart.
func (m *Mutator) Add(ctx context.Context, product domain.Product, quantity int) error {
	if product.BestOffer == nil {
		return domain.ErrNoOfferAvailable
	}
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	skuID := product.BestOffer.SkuID
	key := cartstate.SKUKey(skuID)
	if err := m.store.Begin(key); err != nil {
		return err
	}
	defer m.store.End(key)

	handle, err := m.resolver.Current(ctx)
	if err != nil {
		return fmt.Errorf("resolver.Current: %w", err)
	}

	if _, err := m.api.AddItem(ctx, handle.CartID, skuID, quantity); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// the cart id is stale; forget it so the next operation resolves again
			m.logger.Warn("cart vanished while adding item", zap.Int64("cart_id", handle.CartID))
			m.store.Replace(nil)
		}
		return fmt.Errorf("api.AddItem: %w", err)
	}

	m.refresh(ctx)
	return nil
}

func (m *Mutator) Increase(ctx context.Context, itemID int64) error {
	return m.step(ctx, itemID, 1)
}

// Decrease lowers the quantity by one; at zero the item is deleted instead.
func (m *Mutator) Decrease(ctx context.Context, itemID int64) error {
	return m.step(ctx, itemID, -1)
}

// SetQuantity sends quantity as the new absolute value. Zero removes the item.
func (m *Mutator) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	return m.guarded(itemID, func(item domain.CartItem) error {
		return m.setQuantity(ctx, item, quantity)
	})
}

func (m *Mutator) Remove(ctx context.Context, itemID int64) error {
	return m.guarded(itemID, func(item domain.CartItem) error {
		return m.remove(ctx, item)
	})
}

func (m *Mutator) step(ctx context.Context, itemID int64, delta int) error {
	return m.guarded(itemID, func(item domain.CartItem) error {
		return m.setQuantity(ctx, item, item.Quantity+delta)
	})
}

// guarded looks the item up and runs fn with the item's in-flight flag held.
func (m *Mutator) guarded(itemID int64, fn func(item domain.CartItem) error) error {
	key := cartstate.ItemKey(itemID)
	if err := m.store.Begin(key); err != nil {
		return err
	}
	defer m.store.End(key)

	// a confirmed order is immutable; its lines are no longer cart items
	cart := m.store.Get().Cart
	if !cart.Open() {
		return domain.ErrItemNotFound
	}
	item, _, ok := cart.FindItem(itemID)
	if !ok {
		return domain.ErrItemNotFound
	}

	return fn(item)
}

func (m *Mutator) setQuantity(ctx context.Context, item domain.CartItem, quantity int) error {
	if quantity == 0 {
		return m.remove(ctx, item)
	}
	if quantity == item.Quantity {
		return nil
	}

	confirmed := item.Quantity
	m.store.Apply(func(c *domain.Cart) {
		if _, i, ok := c.FindItem(item.ID); ok {
			c.Items[i].Quantity = quantity
		}
	})

	if err := m.api.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		m.logger.Warn("quantity update failed, rolling back",
			zap.Int64("item_id", item.ID),
			zap.Int("attempted", quantity),
			zap.Int("confirmed", confirmed),
			zap.Error(err),
		)
		m.store.Apply(func(c *domain.Cart) {
			if _, i, ok := c.FindItem(item.ID); ok {
				c.Items[i].Quantity = confirmed
			}
		})
		return fmt.Errorf("api.UpdateItemQuantity: %w", err)
	}

	m.refresh(ctx)
	return nil
}

func (m *Mutator) remove(ctx context.Context, item domain.CartItem) error {
	position := -1
	m.store.Apply(func(c *domain.Cart) {
		if _, i, ok := c.FindItem(item.ID); ok {
			position = i
			c.Items = slices.Delete(c.Items, i, i+1)
		}
	})

	if err := m.api.DeleteItem(ctx, item.ID); err != nil {
		m.logger.Warn("item removal failed, restoring",
			zap.Int64("item_id", item.ID),
			zap.Error(err),
		)
		m.store.Apply(func(c *domain.Cart) {
			if _, _, ok := c.FindItem(item.ID); ok {
				return
			}
			at := min(max(position, 0), len(c.Items))
			c.Items = slices.Insert(c.Items, at, item)
		})
		return fmt.Errorf("api.DeleteItem: %w", err)
	}

	m.refresh(ctx)
	return nil
}

// refresh re-reads the cart after a successful server change. A failed read keeps the
// local value, which the server has already acknowledged.
func (m *Mutator) refresh(ctx context.Context) {
	if _, err := m.resolver.Resolve(ctx); err != nil {
		m.logger.Warn("cart re-read after mutation failed", zap.Error(err))
	}
}
