package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nikolayk812/storefront/internal/domain"
	"go.uber.org/zap"
)

// FetchCart classifies GET /cart into found, absent or transient. Errors are returned only
// for failures that fit none of those, such as auth, timeout or an undecodable body.
func (c *Client) FetchCart(ctx context.Context) (domain.CartLookup, error) {
	body, err := c.do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return domain.CartLookup{Outcome: domain.CartAbsent}, nil
		case errors.Is(err, domain.ErrServerError):
			return domain.CartLookup{Outcome: domain.CartTransient, Err: err}, nil
		default:
			return domain.CartLookup{}, fmt.Errorf("c.do: %w", err)
		}
	}

	dto, ok, err := decode[cartDTO](body)
	if err != nil {
		return domain.CartLookup{}, fmt.Errorf("decode: %w", err)
	}
	if !ok {
		return domain.CartLookup{Outcome: domain.CartAbsent}, nil
	}

	cart, err := mapCartToDomain(dto, c.currency)
	if err != nil {
		return domain.CartLookup{}, fmt.Errorf("mapCartToDomain: %w", err)
	}

	// the backend may serve the latest order, already confirmed, in place of a cart
	if cart.Status == domain.StatusConfirmed {
		c.logger.Info("cart endpoint returned a confirmed order, treating as absent", zap.Int64("order_id", cart.ID))
		return domain.CartLookup{Outcome: domain.CartAbsent}, nil
	}

	if !dto.TotalAmount.IsZero() && !dto.TotalAmount.Equal(cart.TotalAmount.Amount) {
		c.logger.Debug("server cart total differs from item sum",
			zap.Int64("cart_id", cart.ID),
			zap.String("server_total", dto.TotalAmount.String()),
			zap.String("derived_total", cart.TotalAmount.Amount.String()),
		)
	}

	return domain.CartLookup{Outcome: domain.CartFound, Cart: cart}, nil
}

// CreateCart returns the id the backend reports for the new cart, or 0 if it reports none.
func (c *Client) CreateCart(ctx context.Context) (int64, error) {
	body, err := c.do(ctx, http.MethodPost, "/cart", nil)
	if err != nil {
		return 0, fmt.Errorf("c.do: %w", err)
	}

	dto, _, err := decode[createdDTO](body)
	if err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	if dto.OrderID != 0 {
		return dto.OrderID, nil
	}
	return dto.ID, nil
}

func (c *Client) AddItem(ctx context.Context, cartID, skuID int64, quantity int) (int64, error) {
	if cartID == 0 {
		return 0, fmt.Errorf("cartID is empty")
	}
	if quantity < 1 {
		return 0, domain.ErrInvalidQuantity
	}

	path := fmt.Sprintf("/orders/%d/items", cartID)
	body, err := c.do(ctx, http.MethodPost, path, addItemRequest{SkuID: skuID, Quantity: quantity})
	if err != nil {
		return 0, fmt.Errorf("c.do: %w", err)
	}

	dto, _, err := decode[createdDTO](body)
	if err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	if dto.ItemID != 0 {
		return dto.ItemID, nil
	}
	return dto.ID, nil
}

// UpdateItemQuantity sends the absolute quantity, never a delta.
func (c *Client) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	if itemID == 0 {
		return fmt.Errorf("itemID is empty")
	}
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	path := fmt.Sprintf("/order-items/%d", itemID)
	if _, err := c.do(ctx, http.MethodPut, path, updateItemRequest{Quantity: quantity}); err != nil {
		return fmt.Errorf("c.do: %w", err)
	}

	return nil
}

func (c *Client) DeleteItem(ctx context.Context, itemID int64) error {
	if itemID == 0 {
		return fmt.Errorf("itemID is empty")
	}

	path := fmt.Sprintf("/order-items/%d", itemID)
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("c.do: %w", err)
	}

	return nil
}

func (c *Client) SubmitOrder(ctx context.Context, submission domain.Submission) (domain.Order, error) {
	if submission.CartID == 0 {
		return domain.Order{}, fmt.Errorf("cartID is empty")
	}

	req := submitRequest{
		OrderID:        submission.CartID,
		Address:        submission.Address,
		DeliveryMethod: string(submission.DeliveryMethod),
		Status:         string(submission.Status),
	}

	body, err := c.do(ctx, http.MethodPost, c.submitPath, req)
	if err != nil {
		return domain.Order{}, fmt.Errorf("c.do: %w", err)
	}

	dto, ok, err := decode[orderDTO](body)
	if err != nil {
		return domain.Order{}, fmt.Errorf("decode: %w", err)
	}
	if !ok {
		return domain.Order{}, fmt.Errorf("empty submit response: %w", domain.ErrUnexpectedResponse)
	}

	order, err := mapOrderToDomain(dto, c.currency)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mapOrderToDomain: %w", err)
	}

	return order, nil
}
