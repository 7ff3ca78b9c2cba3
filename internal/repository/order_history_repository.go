package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"golang.org/x/text/currency"
)

type orderHistoryRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewOrderHistory(pool *pgxpool.Pool) port.OrderHistoryRepository {
	return &orderHistoryRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewOrderHistoryWithTx(tx pgx.Tx) port.OrderHistoryRepository {
	return &orderHistoryRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *orderHistoryRepository) GetOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("ownerID is empty")
	}

	orderRows, err := r.q.GetOrders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("q.GetOrders: %w", err)
	}
	if len(orderRows) == 0 {
		return nil, nil
	}

	itemRows, err := r.q.GetOrderItems(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("q.GetOrderItems: %w", err)
	}

	itemsByOrder := make(map[int64][]domain.CartItem, len(orderRows))
	for _, row := range itemRows {
		item, err := mapGetOrderItemsRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapGetOrderItemsRowToDomain: %w", err)
		}
		itemsByOrder[row.OrderID] = append(itemsByOrder[row.OrderID], item)
	}

	orders := make([]domain.Order, 0, len(orderRows))
	for _, row := range orderRows {
		order, err := mapGetOrdersRowToDomain(row, itemsByOrder[row.OrderID])
		if err != nil {
			return nil, fmt.Errorf("mapGetOrdersRowToDomain: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// SaveOrders replaces the cached history of ownerID with orders, keeping their order.
func (r *orderHistoryRepository) SaveOrders(ctx context.Context, ownerID string, orders []domain.Order) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	return inTx(ctx, r.pool, r.q, func(q *db.Queries) error {
		if _, err := q.DeleteOrders(ctx, ownerID); err != nil {
			return fmt.Errorf("q.DeleteOrders: %w", err)
		}

		for i, order := range orders {
			if err := q.InsertOrder(ctx, mapOrderToInsertParams(ownerID, i, order)); err != nil {
				return fmt.Errorf("q.InsertOrder[%d]: %w", order.ID, err)
			}

			for j, item := range order.Items {
				if err := q.InsertOrderItem(ctx, mapItemToInsertParams(ownerID, order.ID, j, item)); err != nil {
					return fmt.Errorf("q.InsertOrderItem[%d]: %w", item.ID, err)
				}
			}
		}

		return nil
	})
}

func mapOrderToInsertParams(ownerID string, position int, order domain.Order) db.InsertOrderParams {
	var orderedAt *time.Time
	if !order.CreatedAt.IsZero() {
		t := order.CreatedAt.UTC()
		orderedAt = &t
	}

	return db.InsertOrderParams{
		OwnerID:        ownerID,
		OrderID:        order.ID,
		Position:       int32(position),
		TotalAmount:    order.TotalAmount.Amount,
		TotalCurrency:  order.TotalAmount.Currency.String(),
		TotalItems:     int32(order.TotalItems),
		DeliveryMethod: string(order.DeliveryMethod),
		Address:        order.Address,
		Status:         order.Status,
		OrderedAt:      orderedAt,
	}
}

func mapItemToInsertParams(ownerID string, orderID int64, position int, item domain.CartItem) db.InsertOrderItemParams {
	return db.InsertOrderItemParams{
		OwnerID:       ownerID,
		OrderID:       orderID,
		ItemID:        item.ID,
		Position:      int32(position),
		SkuID:         item.SkuID,
		Quantity:      int32(item.Quantity),
		PriceAmount:   item.Price.Amount,
		PriceCurrency: item.Price.Currency.String(),
		MerchantName:  item.MerchantName,
		ProductName:   item.ProductName,
		ProductImage:  item.ProductImage,
	}
}

func mapGetOrdersRowToDomain(row db.GetOrdersRow, items []domain.CartItem) (domain.Order, error) {
	parsedCurrency, err := currency.ParseISO(row.TotalCurrency)
	if err != nil {
		return domain.Order{}, fmt.Errorf("currency[%s] is not valid: %w", row.TotalCurrency, err)
	}

	var createdAt time.Time
	if row.OrderedAt != nil {
		createdAt = row.OrderedAt.UTC()
	}

	return domain.Order{
		ID:             row.OrderID,
		Items:          items,
		TotalAmount:    domain.Money{Amount: row.TotalAmount, Currency: parsedCurrency},
		TotalItems:     int(row.TotalItems),
		DeliveryMethod: domain.DeliveryMethod(row.DeliveryMethod),
		Address:        row.Address,
		Status:         row.Status,
		CreatedAt:      createdAt,
	}, nil
}

func mapGetOrderItemsRowToDomain(row db.GetOrderItemsRow) (domain.CartItem, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.CartItem{
		ID:           row.ItemID,
		SkuID:        row.SkuID,
		Quantity:     int(row.Quantity),
		Price:        domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
		MerchantName: row.MerchantName,
		ProductName:  row.ProductName,
		ProductImage: row.ProductImage,
	}, nil
}
