// Package fakeapi is an in-memory marketplace backend serving the storefront REST surface.
// It reproduces the quirks of the real service: raw and enveloped payloads, 404 for a
// missing cart and per-route failure injection.
package fakeapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RouteGetCart     = "GET /cart"
	RouteCreateCart  = "POST /cart"
	RouteAddItem     = "POST /orders/{id}/items"
	RouteUpdateItem  = "PUT /order-items/{id}"
	RouteDeleteItem  = "DELETE /order-items/{id}"
	RouteSubmitOrder = "POST /order"
	RouteSubmitAlt   = "POST /orders"
	RouteUserOrders  = "GET /users/orders"
)

type Product struct {
	SkuID    int64
	Name     string
	Merchant string
	Price    decimal.Decimal
	Image    *string
	Stock    int
}

type order struct {
	id             int64
	owner          string
	status         string
	deliveryMethod string
	address        string
	createdAt      time.Time
	itemIDs        []int64
}

type item struct {
	id       int64
	orderID  int64
	skuID    int64
	quantity int
}

type injection struct {
	status int
	body   string
}

type Backend struct {
	// WrapResponses wraps GET /cart payloads in the {status, data} envelope.
	WrapResponses bool
	// StaleCart makes GET /cart serve the latest confirmed order when no open cart exists.
	StaleCart bool

	mu         sync.Mutex
	mux        *http.ServeMux
	users      map[string]string
	products   map[int64]Product
	orders     map[int64]*order
	items      map[int64]*item
	nextID     int64
	injections map[string][]injection
	latency    map[string]time.Duration
	calls      map[string]int
}

func New() *Backend {
	b := &Backend{
		users:      make(map[string]string),
		products:   make(map[int64]Product),
		orders:     make(map[int64]*order),
		items:      make(map[int64]*item),
		injections: make(map[string][]injection),
		latency:    make(map[string]time.Duration),
		calls:      make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RouteGetCart, b.authed(b.getCart))
	mux.HandleFunc(RouteCreateCart, b.authed(b.createCart))
	mux.HandleFunc(RouteAddItem, b.authed(b.addItem))
	mux.HandleFunc(RouteUpdateItem, b.authed(b.updateItem))
	mux.HandleFunc(RouteDeleteItem, b.authed(b.deleteItem))
	mux.HandleFunc(RouteSubmitOrder, b.authed(b.submitOrder))
	mux.HandleFunc(RouteSubmitAlt, b.authed(b.submitOrder))
	mux.HandleFunc(RouteUserOrders, b.authed(b.userOrders))
	b.mux = mux

	return b
}

// AddUser registers a user and returns its bearer token and user id.
func (b *Backend) AddUser() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	token := uuid.NewString()
	userID := uuid.NewString()
	b.users[token] = userID

	return token, userID
}

func (b *Backend) AddProduct(p Product) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.Stock == 0 {
		p.Stock = 1000
	}
	b.products[p.SkuID] = p
}

// Inject queues a canned response for the next call matching route. Injected responses
// are consumed in order, one per call, before the real handler would run.
func (b *Backend) Inject(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.injections[route] = append(b.injections[route], injection{status: status, body: body})
}

func (b *Backend) SetLatency(route string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latency[route] = d
}

func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[route]
}

// OpenCarts counts the unconfirmed orders of the user holding token.
func (b *Backend) OpenCarts(token string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	owner := b.users[token]
	n := 0
	for _, o := range b.orders {
		if o.owner == owner && o.status == statusUnconfirmed {
			n++
		}
	}
	return n
}

// ItemQuantity reports the stored quantity of an order item, false if it does not exist.
func (b *Backend) ItemQuantity(itemID int64) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	it, ok := b.items[itemID]
	if !ok {
		return 0, false
	}
	return it.quantity, true
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, route := b.mux.Handler(r)

	b.mu.Lock()
	b.calls[route]++
	delay := b.latency[route]
	var inj *injection
	if queue := b.injections[route]; len(queue) > 0 {
		inj = &queue[0]
		b.injections[route] = queue[1:]
	}
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if inj != nil {
		body := inj.body
		if body == "" {
			body = `{"detail":"` + http.StatusText(inj.status) + `"}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(inj.status)
		_, _ = w.Write([]byte(body))
		return
	}

	b.mux.ServeHTTP(w, r)
}
