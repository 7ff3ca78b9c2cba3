// Package storefront wires the cart engine together behind one handle for a UI or CLI.
package storefront

import (
	"context"
	"fmt"

	"github.com/nikolayk812/storefront/internal/cartstate"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/history"
	"github.com/nikolayk812/storefront/internal/merchant"
	"github.com/nikolayk812/storefront/internal/mutator"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/resolver"
	"go.uber.org/zap"
)

type Storefront struct {
	store    *cartstate.Store
	resolver *resolver.Resolver
	mutator  *mutator.Mutator
	checkout *checkout.Coordinator
	history  *history.Service
}

// New builds the engine on api. repo caches order history and may be nil.
func New(api port.StorefrontAPI, sessions port.SessionProvider, repo port.OrderHistoryRepository, cfg resolver.Config, logger *zap.Logger) *Storefront {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := cartstate.New()
	r := resolver.New(api, store, cfg, logger.Named("resolver"))

	return &Storefront{
		store:    store,
		resolver: r,
		mutator:  mutator.New(api, store, r, logger.Named("mutator")),
		checkout: checkout.New(api, store, r, logger.Named("checkout")),
		history:  history.New(api, sessions, repo, logger.Named("history")),
	}
}

// Cart reconciles with the backend and returns the open cart.
func (s *Storefront) Cart(ctx context.Context) (*domain.Cart, error) {
	if _, err := s.resolver.Resolve(ctx); err != nil {
		return nil, fmt.Errorf("resolver.Resolve: %w", err)
	}

	cart := s.store.Get().Cart
	if cart == nil {
		return nil, domain.ErrCartUnavailable
	}
	return cart, nil
}

// Snapshot returns the last known cart without I/O. Nil until a cart has been resolved.
func (s *Storefront) Snapshot() *domain.Cart {
	return s.store.Get().Cart
}

// Groups splits the last known cart by merchant.
func (s *Storefront) Groups() []domain.MerchantGroup {
	return merchant.Group(s.store.Get().Cart)
}

// Pending reports whether a mutation of itemID is in flight.
func (s *Storefront) Pending(itemID int64) bool {
	return s.store.Pending(cartstate.ItemKey(itemID))
}

// Busy reports whether any item mutation is in flight, which blocks checkout.
func (s *Storefront) Busy() bool {
	return s.store.Busy()
}

// Subscribe delivers a signal after every cart change. Call the returned func to stop.
func (s *Storefront) Subscribe() (<-chan struct{}, func()) {
	return s.store.Subscribe()
}

func (s *Storefront) Add(ctx context.Context, product domain.Product, quantity int) error {
	return s.mutator.Add(ctx, product, quantity)
}

func (s *Storefront) Increase(ctx context.Context, itemID int64) error {
	return s.mutator.Increase(ctx, itemID)
}

func (s *Storefront) Decrease(ctx context.Context, itemID int64) error {
	return s.mutator.Decrease(ctx, itemID)
}

func (s *Storefront) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	return s.mutator.SetQuantity(ctx, itemID, quantity)
}

func (s *Storefront) Remove(ctx context.Context, itemID int64) error {
	return s.mutator.Remove(ctx, itemID)
}

func (s *Storefront) Checkout(ctx context.Context, req checkout.Request) (domain.Order, error) {
	return s.checkout.Checkout(ctx, req)
}

func (s *Storefront) Orders(ctx context.Context, limit, offset int) (domain.OrderHistory, error) {
	return s.history.List(ctx, limit, offset)
}
