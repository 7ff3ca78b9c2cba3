package client_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/fakeapi"
	"github.com/nikolayk812/storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/currency"
)

type clientSuite struct {
	suite.Suite

	backend  *fakeapi.Backend
	server   *httptest.Server
	sessions *session.Provider
	client   *client.Client

	invalidated int
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(clientSuite))
}

func (suite *clientSuite) SetupTest() {
	suite.backend = fakeapi.New()
	suite.server = httptest.NewServer(suite.backend)
	suite.invalidated = 0

	token, userID := suite.backend.AddUser()
	suite.sessions = session.New(token, userID, func() { suite.invalidated++ })

	var err error
	suite.client, err = client.New(client.Config{
		BaseURL:  suite.server.URL,
		Timeout:  time.Second,
		Currency: currency.RUB,
	}, suite.sessions, nil)
	suite.Require().NoError(err)
}

func (suite *clientSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *clientSuite) TestNew() {
	t := suite.T()

	_, err := client.New(client.Config{}, suite.sessions, nil)
	require.EqualError(t, err, "base URL is empty")

	_, err = client.New(client.Config{BaseURL: "http://localhost"}, nil, nil)
	require.EqualError(t, err, "session provider is nil")
}

func (suite *clientSuite) TestFetchCart() {
	tests := []struct {
		name        string
		setup       func()
		wantOutcome domain.CartOutcome
		wantError   error
	}{
		{
			name:        "no cart: absent",
			setup:       func() {},
			wantOutcome: domain.CartAbsent,
		},
		{
			name: "raw cart: found",
			setup: func() {
				_, err := suite.client.CreateCart(suite.T().Context())
				suite.Require().NoError(err)
			},
			wantOutcome: domain.CartFound,
		},
		{
			name: "enveloped cart: found",
			setup: func() {
				suite.backend.WrapResponses = true
				_, err := suite.client.CreateCart(suite.T().Context())
				suite.Require().NoError(err)
			},
			wantOutcome: domain.CartFound,
		},
		{
			name: "server error: transient",
			setup: func() {
				suite.backend.Inject(fakeapi.RouteGetCart, http.StatusInternalServerError, "")
			},
			wantOutcome: domain.CartTransient,
		},
		{
			name: "null body: absent",
			setup: func() {
				suite.backend.Inject(fakeapi.RouteGetCart, http.StatusOK, "null")
			},
			wantOutcome: domain.CartAbsent,
		},
		{
			name: "confirmed order served as cart: absent",
			setup: func() {
				suite.backend.Inject(fakeapi.RouteGetCart, http.StatusOK,
					`{"id": 7, "status": "confirmed", "items": [], "total_amount": 0, "total_items": 0}`)
			},
			wantOutcome: domain.CartAbsent,
		},
		{
			name: "cart without id: error",
			setup: func() {
				suite.backend.Inject(fakeapi.RouteGetCart, http.StatusOK, `{"items": []}`)
			},
			wantError: domain.ErrUnexpectedResponse,
		},
		{
			name: "bad request: error",
			setup: func() {
				suite.backend.Inject(fakeapi.RouteGetCart, http.StatusBadRequest, "")
			},
			wantError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.reset()

			t := suite.T()
			tt.setup()

			lookup, err := suite.client.FetchCart(t.Context())
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, lookup.Outcome)

			switch lookup.Outcome {
			case domain.CartFound:
				require.NotNil(t, lookup.Cart)
				assert.NotZero(t, lookup.Cart.ID)
				assert.Equal(t, domain.StatusDraft, lookup.Cart.Status)
			case domain.CartTransient:
				assert.ErrorIs(t, lookup.Err, domain.ErrServerError)
			}
		})
	}
}

func (suite *clientSuite) TestUnauthorizedInvalidatesSession() {
	t := suite.T()

	bad := session.New(gofakeit.UUID(), gofakeit.UUID(), func() { suite.invalidated++ })
	c, err := client.New(client.Config{BaseURL: suite.server.URL}, bad, nil)
	require.NoError(t, err)

	_, err = c.FetchCart(t.Context())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 1, suite.invalidated)

	// the credential is gone, no further request leaves the client
	calls := suite.backend.Calls(fakeapi.RouteGetCart)
	_, err = c.FetchCart(t.Context())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, calls, suite.backend.Calls(fakeapi.RouteGetCart))
}

func (suite *clientSuite) TestTimeout() {
	t := suite.T()

	c, err := client.New(client.Config{
		BaseURL: suite.server.URL,
		Timeout: 20 * time.Millisecond,
	}, suite.sessions, nil)
	require.NoError(t, err)

	suite.backend.SetLatency(fakeapi.RouteGetCart, 500*time.Millisecond)

	_, err = c.FetchCart(t.Context())
	require.ErrorIs(t, err, domain.ErrTimeout)
}

func (suite *clientSuite) TestItemLifecycle() {
	t := suite.T()
	ctx := t.Context()

	sku := suite.addProduct("12.50", 10)

	cartID, err := suite.client.CreateCart(ctx)
	require.NoError(t, err)
	require.NotZero(t, cartID)

	itemID, err := suite.client.AddItem(ctx, cartID, sku, 2)
	require.NoError(t, err)
	require.NotZero(t, itemID)

	lookup, err := suite.client.FetchCart(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.CartFound, lookup.Outcome)
	require.Len(t, lookup.Cart.Items, 1)
	assert.Equal(t, itemID, lookup.Cart.Items[0].ID)
	assert.True(t, decimal.RequireFromString("25").Equal(lookup.Cart.TotalAmount.Amount))
	assert.Equal(t, 2, lookup.Cart.TotalItems)

	require.NoError(t, suite.client.UpdateItemQuantity(ctx, itemID, 5))
	qty, ok := suite.backend.ItemQuantity(itemID)
	require.True(t, ok)
	assert.Equal(t, 5, qty)

	err = suite.client.UpdateItemQuantity(ctx, itemID, 11)
	require.ErrorIs(t, err, domain.ErrValidation, "stock exceeded")

	err = suite.client.UpdateItemQuantity(ctx, itemID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	require.NoError(t, suite.client.DeleteItem(ctx, itemID))
	_, ok = suite.backend.ItemQuantity(itemID)
	assert.False(t, ok)

	err = suite.client.DeleteItem(ctx, itemID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *clientSuite) TestSubmitOrder() {
	t := suite.T()
	ctx := t.Context()

	sku := suite.addProduct("100", 10)
	cartID, err := suite.client.CreateCart(ctx)
	require.NoError(t, err)
	_, err = suite.client.AddItem(ctx, cartID, sku, 3)
	require.NoError(t, err)

	address := gofakeit.Street()
	order, err := suite.client.SubmitOrder(ctx, domain.Submission{
		CartID:         cartID,
		Address:        address,
		DeliveryMethod: domain.DeliveryCourier,
		Status:         domain.StatusConfirmed,
	})
	require.NoError(t, err)

	assert.Equal(t, cartID, order.ID)
	assert.Equal(t, "confirmed", order.Status)
	assert.Equal(t, address, order.Address)
	assert.Equal(t, domain.DeliveryCourier, order.DeliveryMethod)
	assert.True(t, decimal.NewFromInt(300).Equal(order.TotalAmount.Amount))
	assert.Equal(t, 3, order.TotalItems)
	assert.False(t, order.CreatedAt.IsZero())

	lookup, err := suite.client.FetchCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CartAbsent, lookup.Outcome)
}

func (suite *clientSuite) TestListOrders() {
	orderJSON := `{"id": 3, "status": "delivered", "items": [
		{"id": 1, "sku_id": 9, "quantity": 2, "price": 10, "merchant_name": "Dairy", "product_name": "Milk"}
	]}`

	tests := []struct {
		name       string
		body       string
		status     int
		wantOrders int
		wantError  error
	}{
		{name: "bare array", body: `[` + orderJSON + `]`, wantOrders: 1},
		{name: "orders object", body: `{"orders": [` + orderJSON + `]}`, wantOrders: 1},
		{name: "items object", body: `{"items": [` + orderJSON + `, ` + orderJSON + `]}`, wantOrders: 2},
		{name: "enveloped", body: `{"status": "success", "data": {"orders": [` + orderJSON + `]}}`, wantOrders: 1},
		{name: "empty list", body: `{"orders": []}`, wantOrders: 0},
		{
			name:      "validation detail in 200 body",
			body:      `{"detail": "3 validation errors for OrderResponse"}`,
			wantError: domain.ErrValidation,
		},
		{name: "unknown shape", body: `{"foo": 1}`, wantError: domain.ErrUnexpectedResponse},
		{name: "empty body", body: ` `, wantError: domain.ErrUnexpectedResponse},
		{
			name:      "server failure",
			status:    http.StatusInternalServerError,
			body:      `{"detail": "validation errors for OrderResponse"}`,
			wantError: domain.ErrServerError,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			status := tt.status
			if status == 0 {
				status = http.StatusOK
			}
			suite.backend.Inject(fakeapi.RouteUserOrders, status, tt.body)

			orders, err := suite.client.ListOrders(t.Context(), 50, 0)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			require.Len(t, orders, tt.wantOrders)

			for _, o := range orders {
				assert.Equal(t, int64(3), o.ID)
				assert.Equal(t, "delivered", o.Status)
				assert.Equal(t, domain.DeliveryPickup, o.DeliveryMethod, "defaulted")
				assert.True(t, decimal.NewFromInt(20).Equal(o.TotalAmount.Amount))
			}
		})
	}
}

func (suite *clientSuite) TestListOrdersLive() {
	t := suite.T()
	ctx := t.Context()

	_, err := suite.client.CreateCart(ctx)
	require.NoError(t, err)

	orders, err := suite.client.ListOrders(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "unconfirmed", orders[0].Status)
}

func (suite *clientSuite) reset() {
	suite.TearDownTest()
	suite.SetupTest()
}

func (suite *clientSuite) addProduct(price string, stock int) int64 {
	sku := int64(gofakeit.IntRange(1, 1_000_000))
	suite.backend.AddProduct(fakeapi.Product{
		SkuID:    sku,
		Name:     gofakeit.ProductName(),
		Merchant: gofakeit.Company(),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	})
	return sku
}
