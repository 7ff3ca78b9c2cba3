package merchant

import (
	"fmt"
	"strings"

	"github.com/nikolayk812/storefront/internal/domain"
)

const UnknownMerchant = "Unknown merchant"

// Group splits cart items by merchant name. Groups follow the order in which a merchant
// first appears in the cart. A nil cart yields no groups.
func Group(cart *domain.Cart) []domain.MerchantGroup {
	if cart == nil || len(cart.Items) == 0 {
		return nil
	}

	var groups []domain.MerchantGroup
	index := make(map[string]int)

	for _, item := range cart.Items {
		name := strings.TrimSpace(item.MerchantName)
		if name == "" {
			name = UnknownMerchant
		}

		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, domain.MerchantGroup{
				MerchantName: name,
				Total:        domain.ZeroMoney(item.Price.Currency),
			})
		}

		groups[i].Items = append(groups[i].Items, item)
		// same rule as Cart.Recalculate: a foreign-currency line adds no amount
		if total, err := groups[i].Total.Add(item.Total()); err == nil {
			groups[i].Total = total
		}
	}

	return groups
}

// Totals sums amount and units over groups.
func Totals(groups []domain.MerchantGroup) (domain.Money, int) {
	var (
		total domain.Money
		units int
	)

	for i, g := range groups {
		if i == 0 {
			total = domain.ZeroMoney(g.Total.Currency)
		}
		if sum, err := total.Add(g.Total); err == nil {
			total = sum
		}
		units += g.Units()
	}

	return total, units
}

// Verify checks that the groups add up to the cart totals.
func Verify(cart *domain.Cart, groups []domain.MerchantGroup) error {
	if cart == nil {
		if len(groups) > 0 {
			return fmt.Errorf("groups without cart")
		}
		return nil
	}

	total, units := Totals(groups)
	if !total.Amount.Equal(cart.TotalAmount.Amount) {
		return fmt.Errorf("group total %s != cart total %s", total.Amount, cart.TotalAmount.Amount)
	}
	if units != cart.TotalItems {
		return fmt.Errorf("group units %d != cart total items %d", units, cart.TotalItems)
	}

	return nil
}
