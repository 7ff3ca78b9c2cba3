package merchant_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/merchant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestGroup(t *testing.T) {
	tests := []struct {
		name       string
		items      []domain.CartItem
		wantGroups []string
		wantTotals []string
	}{
		{
			name:       "nil items: no groups",
			items:      nil,
			wantGroups: nil,
			wantTotals: nil,
		},
		{
			name: "two merchants: grouped by first appearance",
			items: []domain.CartItem{
				item("Fresh Farm", "100", 3),
				item("Bakery", "50", 1),
				item("Fresh Farm", "20.5", 2),
			},
			wantGroups: []string{"Fresh Farm", "Bakery"},
			wantTotals: []string{"341", "50"},
		},
		{
			name: "blank merchant name: unknown bucket",
			items: []domain.CartItem{
				item("", "10", 1),
				item("  ", "5", 2),
				item("Dairy", "1", 1),
			},
			wantGroups: []string{merchant.UnknownMerchant, "Dairy"},
			wantTotals: []string{"20", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := &domain.Cart{ID: 1, Items: tt.items}
			cart.Recalculate()

			groups := merchant.Group(cart)
			require.Len(t, groups, len(tt.wantGroups))

			for i, g := range groups {
				assert.Equal(t, tt.wantGroups[i], g.MerchantName)
				assert.True(t, decimal.RequireFromString(tt.wantTotals[i]).Equal(g.Total.Amount),
					"group %s total %s", g.MerchantName, g.Total.Amount)
			}

			require.NoError(t, merchant.Verify(cart, groups))
		})
	}
}

func TestGroup_Idempotent(t *testing.T) {
	cart := &domain.Cart{ID: 1}
	for range 20 {
		cart.Items = append(cart.Items, randomItem())
	}
	cart.Recalculate()
	before := cart.Clone()

	first := merchant.Group(cart)
	second := merchant.Group(cart)

	currencyComparer := cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})
	decimalComparer := cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})

	assert.Empty(t, cmp.Diff(first, second, currencyComparer, decimalComparer))
	assert.Empty(t, cmp.Diff(before, cart, currencyComparer, decimalComparer), "cart must not be mutated")
	require.NoError(t, merchant.Verify(cart, first))
}

func TestVerify_Mismatch(t *testing.T) {
	cart := &domain.Cart{ID: 1, Items: []domain.CartItem{item("A", "10", 1)}}
	cart.Recalculate()
	groups := merchant.Group(cart)

	cart.TotalItems = 5
	assert.EqualError(t, merchant.Verify(cart, groups), "group units 1 != cart total items 5")
}

func item(merchantName, price string, quantity int) domain.CartItem {
	return domain.CartItem{
		ID:           gofakeit.Int64(),
		SkuID:        gofakeit.Int64(),
		Quantity:     quantity,
		Price:        domain.Money{Amount: decimal.RequireFromString(price), Currency: currency.RUB},
		MerchantName: merchantName,
		ProductName:  gofakeit.ProductName(),
	}
}

func randomItem() domain.CartItem {
	merchants := []string{"Fresh Farm", "Bakery", "Dairy", ""}
	return domain.CartItem{
		ID:           gofakeit.Int64(),
		SkuID:        gofakeit.Int64(),
		Quantity:     gofakeit.IntRange(1, 10),
		Price:        domain.Money{Amount: decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2), Currency: currency.RUB},
		MerchantName: merchants[gofakeit.IntRange(0, len(merchants)-1)],
		ProductName:  gofakeit.ProductName(),
	}
}
