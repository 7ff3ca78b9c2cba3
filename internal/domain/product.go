package domain

type Product struct {
	EAN  string
	Name string
	// BestOffer is nil when no merchant sells the product.
	BestOffer *Offer
}

type Offer struct {
	SkuID        int64
	Price        Money
	MerchantName string
}

type MerchantGroup struct {
	MerchantName string
	Items        []CartItem
	Total        Money
}

func (g MerchantGroup) Units() int {
	units := 0
	for _, item := range g.Items {
		units += item.Quantity
	}
	return units
}
