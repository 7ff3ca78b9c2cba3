// Package history serves the signed-in user's order history and degrades to the last cached
// copy, or to an empty placeholder, when the backend cannot produce it.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

const DefaultLimit = 50

type Service struct {
	api      port.StorefrontAPI
	sessions port.SessionProvider
	repo     port.OrderHistoryRepository
	logger   *zap.Logger
}

// New builds a history service. repo may be nil, in which case failures degrade straight to
// the placeholder.
func New(api port.StorefrontAPI, sessions port.SessionProvider, repo port.OrderHistoryRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		api:      api,
		sessions: sessions,
		repo:     repo,
		logger:   logger,
	}
}

func (s *Service) List(ctx context.Context, limit, offset int) (domain.OrderHistory, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	session, err := s.sessions.Session(ctx)
	if err != nil {
		return domain.OrderHistory{}, fmt.Errorf("sessions.Session: %w", err)
	}

	orders, err := s.api.ListOrders(ctx, limit, offset)
	if err == nil {
		s.save(ctx, session.OwnerID, offset, orders)
		return domain.OrderHistory{Orders: orders, Source: domain.HistoryLive}, nil
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return domain.OrderHistory{}, fmt.Errorf("api.ListOrders: %w", err)
	}

	s.logger.Warn("order history unavailable, degrading", zap.Error(err))
	return s.fallback(ctx, session.OwnerID, limit, offset), nil
}

// save caches the first page only.
func (s *Service) save(ctx context.Context, ownerID string, offset int, orders []domain.Order) {
	if s.repo == nil || ownerID == "" || offset != 0 {
		return
	}

	if err := s.repo.SaveOrders(ctx, ownerID, orders); err != nil {
		s.logger.Warn("caching order history failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

func (s *Service) fallback(ctx context.Context, ownerID string, limit, offset int) domain.OrderHistory {
	placeholder := domain.OrderHistory{Orders: []domain.Order{}, Source: domain.HistoryPlaceholder}
	if s.repo == nil || ownerID == "" {
		return placeholder
	}

	cached, err := s.repo.GetOrders(ctx, ownerID)
	if err != nil {
		s.logger.Warn("reading cached order history failed", zap.String("owner_id", ownerID), zap.Error(err))
		return placeholder
	}
	if len(cached) == 0 {
		return placeholder
	}

	return domain.OrderHistory{Orders: page(cached, limit, offset), Source: domain.HistoryCached}
}

func page(orders []domain.Order, limit, offset int) []domain.Order {
	if offset >= len(orders) {
		return []domain.Order{}
	}
	end := min(offset+limit, len(orders))
	return orders[offset:end]
}
