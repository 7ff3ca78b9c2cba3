package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type itemDTO struct {
	ID           int64           `json:"id"`
	ItemID       int64           `json:"item_id"`
	SkuID        int64           `json:"sku_id"`
	Quantity     int             `json:"quantity"`
	ProductName  string          `json:"product_name"`
	ProductImage *string         `json:"product_image"`
	MerchantName string          `json:"merchant_name"`
	Price        decimal.Decimal `json:"price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type cartDTO struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	Items          []itemDTO       `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalItems     int             `json:"total_items"`
	DeliveryMethod string          `json:"delivery_method"`
	Status         string          `json:"status"`
}

type orderDTO struct {
	cartDTO
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

type createdDTO struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
	ItemID  int64 `json:"item_id"`
}

type addItemRequest struct {
	SkuID    int64 `json:"sku_id"`
	Quantity int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type submitRequest struct {
	OrderID        int64  `json:"order_id"`
	Address        string `json:"address"`
	DeliveryMethod string `json:"delivery_method"`
	Status         string `json:"status"`
}

func (d cartDTO) id() int64 {
	if d.ID != 0 {
		return d.ID
	}
	return d.OrderID
}

func mapItemsToDomain(dtos []itemDTO, cur currency.Unit) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(dtos))

	for _, dto := range dtos {
		// a line at quantity 0 is not a valid cart state
		if dto.Quantity < 1 {
			continue
		}

		id := dto.ID
		if id == 0 {
			id = dto.ItemID
		}

		price := dto.Price
		if price.IsZero() && !dto.TotalPrice.IsZero() {
			price = dto.TotalPrice.Div(decimal.NewFromInt(int64(dto.Quantity)))
		}

		items = append(items, domain.CartItem{
			ID:           id,
			SkuID:        dto.SkuID,
			Quantity:     dto.Quantity,
			Price:        domain.Money{Amount: price, Currency: cur},
			MerchantName: dto.MerchantName,
			ProductName:  dto.ProductName,
			ProductImage: dto.ProductImage,
		})
	}

	return items
}

func mapCartToDomain(dto cartDTO, cur currency.Unit) (*domain.Cart, error) {
	id := dto.id()
	if id == 0 {
		return nil, fmt.Errorf("cart without id: %w", domain.ErrUnexpectedResponse)
	}

	cart := &domain.Cart{
		ID:             id,
		Items:          mapItemsToDomain(dto.Items, cur),
		TotalAmount:    domain.ZeroMoney(cur),
		DeliveryMethod: domain.DeliveryMethod(dto.DeliveryMethod),
		Status:         mapCartStatus(dto.Status),
	}
	if err := cart.Recalculate(); err != nil {
		return nil, fmt.Errorf("cart %d: %w: %w", id, domain.ErrUnexpectedResponse, err)
	}

	return cart, nil
}

func mapCartStatus(status string) domain.CartStatus {
	if strings.EqualFold(status, string(domain.StatusConfirmed)) {
		return domain.StatusConfirmed
	}
	return domain.StatusDraft
}

func mapOrderToDomain(dto orderDTO, cur currency.Unit) (domain.Order, error) {
	id := dto.id()
	if id == 0 {
		return domain.Order{}, fmt.Errorf("order without id: %w", domain.ErrUnexpectedResponse)
	}

	items := mapItemsToDomain(dto.Items, cur)
	cart := domain.Cart{Items: items, TotalAmount: domain.ZeroMoney(cur)}
	if err := cart.Recalculate(); err != nil {
		return domain.Order{}, fmt.Errorf("order %d: %w: %w", id, domain.ErrUnexpectedResponse, err)
	}

	total := cart.TotalAmount
	if len(items) == 0 && !dto.TotalAmount.IsZero() {
		total = domain.Money{Amount: dto.TotalAmount, Currency: cur}
	}

	totalItems := cart.TotalItems
	if len(items) == 0 {
		totalItems = dto.TotalItems
	}

	deliveryMethod := domain.DeliveryMethod(dto.DeliveryMethod)
	if deliveryMethod == "" {
		deliveryMethod = domain.DeliveryPickup
	}

	status := dto.Status
	if status == "" {
		status = "pending"
	}

	return domain.Order{
		ID:             id,
		Items:          items,
		TotalAmount:    total,
		TotalItems:     totalItems,
		DeliveryMethod: deliveryMethod,
		Address:        dto.Address,
		Status:         status,
		CreatedAt:      parseTimestamp(dto.CreatedAt),
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
}

// parseTimestamp accepts the zone-less timestamps the backend emits. Unparseable values
// map to the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
