package resolver

import (
	"context"
	"fmt"

	"github.com/nikolayk812/storefront/internal/cartstate"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// flightKey is shared by every resolution path, so fetches and creations for the session
// never overlap.
const flightKey = "cart"

type Config struct {
	// ServerErrorMeansAbsent makes a 5xx on GET /cart take the creation path, the way the
	// backend behaves when the user has no cart yet.
	ServerErrorMeansAbsent bool
}

// Resolver implements get-or-create for the session cart. One Resolver serves one session.
type Resolver struct {
	api    port.StorefrontAPI
	store  *cartstate.Store
	cfg    Config
	logger *zap.Logger
	flight singleflight.Group
}

func New(api port.StorefrontAPI, store *cartstate.Store, cfg Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		api:    api,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Current returns the open cart already held in the store, resolving only when there is none.
func (r *Resolver) Current(ctx context.Context) (domain.CartHandle, error) {
	if cart := r.store.Get().Cart; cart.Open() {
		return cart.Handle(), nil
	}
	return r.Resolve(ctx)
}

// Resolve fetches the session cart, creating it when the backend reports none, and installs
// the result in the store.
func (r *Resolver) Resolve(ctx context.Context) (domain.CartHandle, error) {
	return r.do(ctx, r.resolve)
}

// provisionAttempts bounds how often Provision runs again after joining a resolution that
// read the session cart before previous was confirmed.
const provisionAttempts = 3

// Provision installs a fresh cart to follow the confirmed cart previous. It creates one unless
// an open cart other than previous is already in the store. A call that joins a resolution in
// flight accepts its result only if that left such a cart in the store.
func (r *Resolver) Provision(ctx context.Context, previous int64) (domain.CartHandle, error) {
	for range provisionAttempts {
		if handle, ok := r.successor(previous); ok {
			return handle, nil
		}

		handle, err := r.do(ctx, r.create)
		if err != nil {
			return domain.CartHandle{}, err
		}
		if next, ok := r.successor(previous); ok && next == handle {
			return handle, nil
		}

		r.logger.Debug("joined a resolution that predates checkout, provisioning again",
			zap.Int64("previous_cart_id", previous),
			zap.Int64("cart_id", handle.CartID),
		)
	}

	return domain.CartHandle{}, fmt.Errorf("%w: no successor to cart %d after %d attempts",
		domain.ErrCartUnavailable, previous, provisionAttempts)
}

func (r *Resolver) successor(previous int64) (domain.CartHandle, bool) {
	cart := r.store.Get().Cart
	if !cart.Open() || cart.ID == previous {
		return domain.CartHandle{}, false
	}
	return cart.Handle(), true
}

func (r *Resolver) do(ctx context.Context, fn func(ctx context.Context) (domain.CartHandle, error)) (domain.CartHandle, error) {
	// the shared flight outlives any single caller; the client deadline bounds it
	flightCtx := context.WithoutCancel(ctx)

	ch := r.flight.DoChan(flightKey, func() (any, error) {
		return fn(flightCtx)
	})

	select {
	case <-ctx.Done():
		return domain.CartHandle{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.CartHandle{}, res.Err
		}
		return res.Val.(domain.CartHandle), nil
	}
}

func (r *Resolver) resolve(ctx context.Context) (domain.CartHandle, error) {
	readVersion := r.store.Version()

	lookup, err := r.api.FetchCart(ctx)
	if err != nil {
		return domain.CartHandle{}, fmt.Errorf("api.FetchCart: %w", err)
	}

	switch lookup.Outcome {
	case domain.CartFound:
		r.install(readVersion, lookup.Cart)
		return lookup.Cart.Handle(), nil

	case domain.CartTransient:
		if !r.cfg.ServerErrorMeansAbsent {
			return domain.CartHandle{}, fmt.Errorf("%w: %w", domain.ErrCartUnavailable, lookup.Err)
		}
		r.logger.Warn("cart fetch failed with server error, assuming no cart", zap.Error(lookup.Err))
	}

	return r.create(ctx)
}

func (r *Resolver) create(ctx context.Context) (domain.CartHandle, error) {
	createdID, err := r.api.CreateCart(ctx)
	if err != nil {
		return domain.CartHandle{}, fmt.Errorf("%w: api.CreateCart: %w", domain.ErrCartUnavailable, err)
	}

	readVersion := r.store.Version()

	// the creation response is not authoritative, the cart is read back
	lookup, err := r.api.FetchCart(ctx)
	if err != nil {
		return domain.CartHandle{}, fmt.Errorf("%w: api.FetchCart: %w", domain.ErrCartUnavailable, err)
	}
	if lookup.Outcome != domain.CartFound {
		return domain.CartHandle{}, fmt.Errorf("%w: cart %d created but fetch reported %s",
			domain.ErrCartUnavailable, createdID, lookup.Outcome)
	}

	r.logger.Info("cart created",
		zap.Int64("created_id", createdID),
		zap.Int64("cart_id", lookup.Cart.ID),
	)

	r.install(readVersion, lookup.Cart)
	return lookup.Cart.Handle(), nil
}

func (r *Resolver) install(readVersion uint64, cart *domain.Cart) {
	if !r.store.ReplaceIfFresh(readVersion, cart) {
		r.logger.Debug("dropping cart read that predates a local change", zap.Int64("cart_id", cart.ID))
	}
}
