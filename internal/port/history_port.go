package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

type OrderHistoryRepository interface {
	GetOrders(ctx context.Context, ownerID string) ([]domain.Order, error)
	SaveOrders(ctx context.Context, ownerID string, orders []domain.Order) error
}
