package fakeapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	statusUnconfirmed = "unconfirmed"
	statusConfirmed   = "confirmed"
)

type itemView struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	SkuID        int64   `json:"sku_id"`
	Quantity     int     `json:"quantity"`
	ProductName  string  `json:"product_name"`
	ProductImage *string `json:"product_image,omitempty"`
	Price        float64 `json:"price"`
	MerchantName string  `json:"merchant_name"`
	TotalPrice   float64 `json:"total_price"`
}

type orderView struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	CreatedAt      string     `json:"created_at"`
	DeliveryMethod string     `json:"delivery_method,omitempty"`
	Address        string     `json:"address,omitempty"`
	Status         string     `json:"status"`
	Items          []itemView `json:"items"`
	TotalAmount    float64    `json:"total_amount"`
	TotalItems     int        `json:"total_items"`
}

type authedHandler func(w http.ResponseWriter, r *http.Request, owner string)

func (b *Backend) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		owner, ok := b.users[token]
		b.mu.Unlock()

		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		h(w, r, owner)
	}
}

func (b *Backend) getCart(w http.ResponseWriter, _ *http.Request, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cart := b.openCartLocked(owner)
	if cart == nil && b.StaleCart {
		cart = b.latestOrderLocked(owner)
	}
	if cart == nil {
		writeDetail(w, http.StatusNotFound, "Cart not found")
		return
	}

	view := b.viewLocked(cart)
	if b.WrapResponses {
		writeJSON(w, http.StatusOK, envelope("Cart loaded", view))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (b *Backend) createCart(w http.ResponseWriter, _ *http.Request, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o := &order{
		id:        b.nextIDLocked(),
		owner:     owner,
		status:    statusUnconfirmed,
		createdAt: time.Now().UTC(),
	}
	b.orders[o.id] = o

	writeJSON(w, http.StatusOK, envelope("Cart created", map[string]any{
		"order_id":   o.id,
		"user_id":    owner,
		"created_at": o.createdAt.Format("2006-01-02T15:04:05.999999"),
		"status":     statusUnconfirmed,
	}))
}

func (b *Backend) addItem(w http.ResponseWriter, r *http.Request, owner string) {
	var req struct {
		SkuID    int64 `json:"sku_id"`
		Quantity int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o, status, detail := b.ownedOrderLocked(r.PathValue("id"), owner)
	if o == nil {
		writeDetail(w, status, detail)
		return
	}

	p, ok := b.products[req.SkuID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "SKU not found")
		return
	}
	if req.Quantity < 1 || p.Stock < req.Quantity {
		writeDetail(w, http.StatusBadRequest, "Not enough stock. Available: "+strconv.Itoa(p.Stock))
		return
	}

	it := &item{id: b.nextIDLocked(), orderID: o.id, skuID: req.SkuID, quantity: req.Quantity}
	b.items[it.id] = it
	o.itemIDs = append(o.itemIDs, it.id)

	writeJSON(w, http.StatusCreated, envelope("Item added", map[string]any{
		"item_id":  it.id,
		"order_id": o.id,
		"sku_id":   it.skuID,
		"quantity": it.quantity,
	}))
}

func (b *Backend) updateItem(w http.ResponseWriter, r *http.Request, owner string) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	it, status, detail := b.ownedItemLocked(r.PathValue("id"), owner)
	if it == nil {
		writeDetail(w, status, detail)
		return
	}

	if req.Quantity < 1 || b.products[it.skuID].Stock < req.Quantity {
		writeDetail(w, http.StatusBadRequest, "Not enough stock")
		return
	}
	it.quantity = req.Quantity

	writeJSON(w, http.StatusOK, envelope("Quantity updated", map[string]any{
		"item_id":  it.id,
		"quantity": it.quantity,
	}))
}

func (b *Backend) deleteItem(w http.ResponseWriter, r *http.Request, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	it, status, detail := b.ownedItemLocked(r.PathValue("id"), owner)
	if it == nil {
		writeDetail(w, status, detail)
		return
	}

	delete(b.items, it.id)
	o := b.orders[it.orderID]
	o.itemIDs = slices.DeleteFunc(o.itemIDs, func(id int64) bool { return id == it.id })

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Item removed"})
}

func (b *Backend) submitOrder(w http.ResponseWriter, r *http.Request, owner string) {
	var req struct {
		OrderID        int64  `json:"order_id"`
		Address        string `json:"address"`
		DeliveryMethod string `json:"delivery_method"`
		Status         string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cart := b.openCartLocked(owner)
	if req.OrderID != 0 {
		if o, ok := b.orders[req.OrderID]; ok && o.owner == owner && o.status == statusUnconfirmed {
			cart = o
		}
	}
	if cart == nil {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return
	}

	cart.status = statusConfirmed
	cart.address = req.Address
	cart.deliveryMethod = req.DeliveryMethod

	writeJSON(w, http.StatusOK, b.viewLocked(cart))
}

func (b *Backend) userOrders(w http.ResponseWriter, r *http.Request, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var owned []*order
	for _, o := range b.orders {
		if o.owner == owner {
			owned = append(owned, o)
		}
	}
	slices.SortFunc(owned, func(x, y *order) int { return int(y.id - x.id) })

	limit, offset := queryInt(r, "limit", 50), queryInt(r, "offset", 0)
	views := make([]orderView, 0, len(owned))
	for i, o := range owned {
		if i < offset || len(views) >= limit {
			continue
		}
		views = append(views, b.viewLocked(o))
	}

	writeJSON(w, http.StatusOK, envelope("Orders loaded", map[string]any{
		"orders":      views,
		"total_count": len(owned),
		"limit":       limit,
		"offset":      offset,
	}))
}

func (b *Backend) openCartLocked(owner string) *order {
	var cart *order
	for _, o := range b.orders {
		if o.owner == owner && o.status == statusUnconfirmed && (cart == nil || o.id < cart.id) {
			cart = o
		}
	}
	return cart
}

func (b *Backend) latestOrderLocked(owner string) *order {
	var latest *order
	for _, o := range b.orders {
		if o.owner == owner && (latest == nil || o.id > latest.id) {
			latest = o
		}
	}
	return latest
}

func (b *Backend) ownedOrderLocked(rawID, owner string) (*order, int, string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, "invalid order id"
	}

	o, ok := b.orders[id]
	switch {
	case !ok:
		return nil, http.StatusNotFound, "Order " + rawID + " not found"
	case o.owner != owner:
		return nil, http.StatusForbidden, "you can not edit this order"
	case o.status != statusUnconfirmed:
		return nil, http.StatusBadRequest, "order is already confirmed"
	}
	return o, 0, ""
}

func (b *Backend) ownedItemLocked(rawID, owner string) (*item, int, string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, "invalid item id"
	}

	it, ok := b.items[id]
	if !ok {
		return nil, http.StatusNotFound, "Order item " + rawID + " not found"
	}

	if _, status, detail := b.ownedOrderLocked(strconv.FormatInt(it.orderID, 10), owner); status != 0 {
		return nil, status, detail
	}
	return it, 0, ""
}

func (b *Backend) viewLocked(o *order) orderView {
	view := orderView{
		ID:             o.id,
		UserID:         o.owner,
		CreatedAt:      o.createdAt.Format("2006-01-02T15:04:05.999999"),
		DeliveryMethod: o.deliveryMethod,
		Address:        o.address,
		Status:         o.status,
		Items:          []itemView{},
	}

	total := decimal.Zero
	for _, id := range o.itemIDs {
		it := b.items[id]
		p := b.products[it.skuID]
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.quantity)))
		total = total.Add(lineTotal)

		view.Items = append(view.Items, itemView{
			ID:           it.id,
			OrderID:      o.id,
			SkuID:        it.skuID,
			Quantity:     it.quantity,
			ProductName:  p.Name,
			ProductImage: p.Image,
			Price:        p.Price.InexactFloat64(),
			MerchantName: p.Merchant,
			TotalPrice:   lineTotal.InexactFloat64(),
		})
	}

	view.TotalAmount = total.InexactFloat64()
	// the backend counts lines here, the client derives units itself
	view.TotalItems = len(view.Items)

	return view
}

func (b *Backend) nextIDLocked() int64 {
	b.nextID++
	return b.nextID
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func envelope(message string, data any) map[string]any {
	return map[string]any{"status": "success", "message": message, "data": data}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
