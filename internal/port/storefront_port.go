package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

// StorefrontAPI is the remote marketplace surface the engine consumes.
type StorefrontAPI interface {
	FetchCart(ctx context.Context) (domain.CartLookup, error)
	CreateCart(ctx context.Context) (int64, error)
	AddItem(ctx context.Context, cartID, skuID int64, quantity int) (int64, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	SubmitOrder(ctx context.Context, submission domain.Submission) (domain.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error)
}

// SessionProvider supplies the credential for remote calls.
type SessionProvider interface {
	Session(ctx context.Context) (domain.Session, error)
	// Invalidate is called when the backend rejects the credential.
	Invalidate()
}
