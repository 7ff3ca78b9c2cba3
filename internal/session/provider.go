package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

// Provider holds a bearer credential in memory and forgets it once the backend rejects it.
type Provider struct {
	mu           sync.Mutex
	session      domain.Session
	onInvalidate func()
}

var _ port.SessionProvider = (*Provider)(nil)

// New returns a provider for token. onInvalidate may be nil; it runs once per invalidation,
// typically to send the user back to sign-in.
func New(token, ownerID string, onInvalidate func()) *Provider {
	return &Provider{
		session:      domain.Session{Token: token, OwnerID: ownerID},
		onInvalidate: onInvalidate,
	}
}

func (p *Provider) Session(_ context.Context) (domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session.Token == "" {
		return domain.Session{}, fmt.Errorf("token is empty: %w", domain.ErrUnauthorized)
	}

	return p.session, nil
}

func (p *Provider) Invalidate() {
	p.mu.Lock()
	wasValid := p.session.Token != ""
	p.session.Token = ""
	callback := p.onInvalidate
	p.mu.Unlock()

	if wasValid && callback != nil {
		callback()
	}
}

// SignIn replaces the credential after re-authentication.
func (p *Provider) SignIn(token, ownerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session = domain.Session{Token: token, OwnerID: ownerID}
}
