// Package testenv starts a fake marketplace backend with one signed-in user and a client
// wired against it.
package testenv

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/fakeapi"
	"github.com/nikolayk812/storefront/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/currency"
)

type Env struct {
	Backend  *fakeapi.Backend
	Server   *httptest.Server
	Token    string
	UserID   string
	Sessions *session.Provider
	Client   *client.Client
	Logger   *zap.Logger

	Invalidations int
}

func New(t testing.TB) *Env {
	t.Helper()

	backend := fakeapi.New()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	env := &Env{
		Backend: backend,
		Server:  server,
		Logger:  zaptest.NewLogger(t),
	}

	env.Token, env.UserID = backend.AddUser()
	env.Sessions = session.New(env.Token, env.UserID, func() { env.Invalidations++ })

	c, err := client.New(client.Config{
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
		Currency:   currency.RUB,
		HTTPClient: server.Client(),
	}, env.Sessions, env.Logger)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	env.Client = c

	return env
}

// AddProduct registers a product with the given price and merchant and returns its SKU.
func (e *Env) AddProduct(price, merchant string) fakeapi.Product {
	p := fakeapi.Product{
		SkuID:    int64(gofakeit.IntRange(1, 1_000_000_000)),
		Name:     gofakeit.ProductName(),
		Merchant: merchant,
		Price:    decimal.RequireFromString(price),
		Stock:    100,
	}
	e.Backend.AddProduct(p)
	return p
}
