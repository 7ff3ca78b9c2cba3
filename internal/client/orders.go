package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nikolayk812/storefront/internal/domain"
)

func (c *Client) ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	body, err := c.do(ctx, http.MethodGet, "/users/orders?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("c.do: %w", err)
	}

	dtos, err := decodeOrderList(body)
	if err != nil {
		return nil, fmt.Errorf("decodeOrderList: %w", err)
	}

	orders := make([]domain.Order, 0, len(dtos))
	for _, dto := range dtos {
		order, err := mapOrderToDomain(dto, c.currency)
		if err != nil {
			return nil, fmt.Errorf("mapOrderToDomain: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// decodeOrderList accepts a bare array, {"orders": [...]}, {"items": [...]}, any of those
// inside the {status, data} envelope, and reports a {"detail": ...} body as ErrValidation.
func decodeOrderList(body []byte) ([]orderDTO, error) {
	payload, ok, err := unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("unwrap: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("empty order list: %w", domain.ErrUnexpectedResponse)
	}

	if payload[0] == '[' {
		var orders []orderDTO
		if err := json.Unmarshal(payload, &orders); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}
		return orders, nil
	}

	var shape struct {
		Orders *[]orderDTO     `json:"orders"`
		Items  *[]orderDTO     `json:"items"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &shape); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	switch {
	case shape.Orders != nil:
		return *shape.Orders, nil
	case shape.Items != nil:
		return *shape.Items, nil
	case len(bytes.TrimSpace(shape.Detail)) > 0:
		return nil, fmt.Errorf("%s: %w", errorDetail(payload), domain.ErrValidation)
	default:
		return nil, fmt.Errorf("order list: %w", domain.ErrUnexpectedResponse)
	}
}
