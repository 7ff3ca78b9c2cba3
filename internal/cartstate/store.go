package cartstate

import (
	"fmt"
	"sync"

	"github.com/nikolayk812/storefront/internal/domain"
)

// Snapshot is a copy of the current cart together with the version it was read at.
// Cart is nil when there is no known open cart.
type Snapshot struct {
	Cart    *domain.Cart
	Version uint64
}

// MutationKey names the unit an in-flight flag guards.
type MutationKey string

func ItemKey(itemID int64) MutationKey {
	return MutationKey(fmt.Sprintf("item:%d", itemID))
}

func SKUKey(skuID int64) MutationKey {
	return MutationKey(fmt.Sprintf("sku:%d", skuID))
}

// Store owns the single current cart snapshot. Every write replaces the whole snapshot.
type Store struct {
	mu sync.Mutex

	cart    *domain.Cart
	version uint64
	// lastApply is the version produced by the latest optimistic write.
	lastApply uint64

	inFlight    map[MutationKey]struct{}
	subscribers map[int]chan struct{}
	nextSubID   int
}

func New() *Store {
	return &Store{
		inFlight:    make(map[MutationKey]struct{}),
		subscribers: make(map[int]chan struct{}),
	}
}

func (s *Store) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{Cart: s.cart.Clone(), Version: s.version}
}

func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.version
}

// Replace installs an authoritative snapshot, typically a fresh server read.
func (s *Store) Replace(cart *domain.Cart) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replaceLocked(cart.Clone())
}

// ReplaceIfFresh installs a read that started at readVersion unless an optimistic write
// landed after that point; such a read predates the local change and is dropped.
func (s *Store) ReplaceIfFresh(readVersion uint64, cart *domain.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastApply > readVersion {
		return false
	}

	next := cart.Clone()
	// the backend has no submitting state; a read of the cart being submitted keeps it
	if next != nil && s.cart != nil && next.ID == s.cart.ID &&
		s.cart.Status == domain.StatusSubmitting && next.Status == domain.StatusDraft {
		next.Status = domain.StatusSubmitting
	}

	s.replaceLocked(next)
	return true
}

// Apply runs fn on a copy of the current cart and installs the result as an optimistic
// write. It reports false when there is no cart to modify or the result mixes currencies.
func (s *Store) Apply(fn func(cart *domain.Cart)) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart == nil {
		return s.version, false
	}

	next := s.cart.Clone()
	fn(next)
	if err := next.Recalculate(); err != nil {
		return s.version, false
	}

	v := s.replaceLocked(next)
	s.lastApply = v
	return v, true
}

func (s *Store) replaceLocked(cart *domain.Cart) uint64 {
	s.cart = cart
	s.version++
	s.notifyLocked()
	return s.version
}

// Begin marks key as having a mutation in flight. It fails with ErrItemBusy if one already
// is, and with ErrCheckoutInProgress while the cart is being submitted.
func (s *Store) Begin(key MutationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart != nil && s.cart.Status == domain.StatusSubmitting {
		return domain.ErrCheckoutInProgress
	}
	if _, ok := s.inFlight[key]; ok {
		return domain.ErrItemBusy
	}
	s.inFlight[key] = struct{}{}
	return nil
}

// BeginSubmit moves the open cart to Submitting and returns a copy of it. Until the status
// changes again every Begin fails, and BeginSubmit refuses while any mutation is in flight.
func (s *Store) BeginSubmit() (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.cart != nil && s.cart.Status == domain.StatusSubmitting:
		return nil, domain.ErrCheckoutInProgress
	case !s.cart.Open() || len(s.cart.Items) == 0:
		return nil, domain.ErrEmptyCart
	case len(s.inFlight) > 0:
		return nil, domain.ErrItemBusy
	}

	next := s.cart.Clone()
	next.Status = domain.StatusSubmitting
	s.lastApply = s.replaceLocked(next)

	return next.Clone(), nil
}

// EndSubmit sets the status of cartID if it is still the current cart.
func (s *Store) EndSubmit(cartID int64, status domain.CartStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart == nil || s.cart.ID != cartID {
		return
	}

	next := s.cart.Clone()
	next.Status = status
	s.lastApply = s.replaceLocked(next)
}

func (s *Store) End(key MutationKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, key)
}

func (s *Store) Pending(key MutationKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.inFlight[key]
	return ok
}

// Busy reports whether any mutation is in flight.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.inFlight) > 0
}
