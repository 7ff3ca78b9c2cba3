package checkout

import (
	"context"
	"fmt"

	"github.com/nikolayk812/storefront/internal/cartstate"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/resolver"
	"go.uber.org/zap"
)

type Request struct {
	Address string
	// DeliveryMethod defaults to courier.
	DeliveryMethod domain.DeliveryMethod
}

// Coordinator turns the open cart into a confirmed order and provisions the next cart.
//
// Cart states: Draft -> Submitting -> Confirmed. A failed submission returns the cart to
// Draft with its items untouched.
type Coordinator struct {
	api      port.StorefrontAPI
	store    *cartstate.Store
	resolver *resolver.Resolver
	logger   *zap.Logger
}

func New(api port.StorefrontAPI, store *cartstate.Store, r *resolver.Resolver, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		api:      api,
		store:    store,
		resolver: r,
		logger:   logger,
	}
}

func (c *Coordinator) Checkout(ctx context.Context, req Request) (domain.Order, error) {
	// a confirmed cart left in the store counts as empty
	cart, err := c.store.BeginSubmit()
	if err != nil {
		return domain.Order{}, err
	}

	deliveryMethod := req.DeliveryMethod
	if deliveryMethod == "" {
		deliveryMethod = domain.DeliveryCourier
	}

	order, err := c.api.SubmitOrder(ctx, domain.Submission{
		CartID:         cart.ID,
		Address:        req.Address,
		DeliveryMethod: deliveryMethod,
		Status:         domain.StatusConfirmed,
	})
	if err != nil {
		c.logger.Warn("order submission failed", zap.Int64("cart_id", cart.ID), zap.Error(err))
		c.store.EndSubmit(cart.ID, domain.StatusDraft)
		return domain.Order{}, fmt.Errorf("api.SubmitOrder: %w", err)
	}

	order = completeOrder(order, cart, req.Address, deliveryMethod)
	c.store.EndSubmit(cart.ID, domain.StatusConfirmed)

	c.logger.Info("order confirmed",
		zap.Int64("order_id", order.ID),
		zap.String("total", order.TotalAmount.String()),
		zap.Int("total_items", order.TotalItems),
	)

	next, err := c.resolver.Provision(ctx, cart.ID)
	if err != nil {
		// the order stands; the next mutation resolves a cart again
		c.logger.Warn("provisioning the next cart failed", zap.Int64("order_id", order.ID), zap.Error(err))
		c.store.Replace(nil)
		return order, nil
	}

	c.logger.Info("next cart provisioned", zap.Int64("cart_id", next.CartID))
	return order, nil
}

// completeOrder fills what a terse submit response leaves out from the submitted cart.
func completeOrder(order domain.Order, cart *domain.Cart, address string, method domain.DeliveryMethod) domain.Order {
	if len(order.Items) == 0 {
		order.Items = cart.Items
		order.TotalAmount = cart.TotalAmount
		order.TotalItems = cart.TotalItems
	}
	if order.ID == 0 {
		order.ID = cart.ID
	}
	if order.Address == "" {
		order.Address = address
	}
	// a response without delivery method decodes as pickup, so the submitted one wins
	order.DeliveryMethod = method
	order.Status = string(domain.StatusConfirmed)
	return order
}
