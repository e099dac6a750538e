// Package checkout turns a cart into a WhatsApp order link.
package checkout

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold = 500000
	// ShippingCost is the flat shipping fee below the threshold.
	ShippingCost = 20000
)

var (
	// ErrEmptyCart is returned for a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidItem is returned for an item with a blank name, negative price or quantity below one.
	ErrInvalidItem = errors.New("invalid cart item")
)

// Item is one cart line. Price is in whole rupiah.
type Item struct {
	Name     string `json:"name"     example:"Keripik Singkong"`
	Price    int64  `json:"price"    example:"15000"`
	Quantity int64  `json:"quantity" example:"2"`
}

// Quote is the priced order and the link that sends it to the shop.
type Quote struct {
	Subtotal int64  `json:"subtotal" example:"30000"`
	Shipping int64  `json:"shipping" example:"20000"`
	Total    int64  `json:"total"    example:"50000"`
	Message  string `json:"message"`
	URL      string `json:"url"      example:"https://wa.me/6281234567890?text=Halo"`
}

// Builder prices carts and formats order messages for one shop number.
type Builder struct {
	phone string
}

// NewBuilder creates a Builder sending orders to the given WhatsApp number.
func NewBuilder(phone string) *Builder {
	return &Builder{phone: phone}
}

// Quote prices items and builds the order message and wa.me link.
func (b *Builder) Quote(items []Item) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var subtotal int64
	for i, it := range items {
		switch {
		case strings.TrimSpace(it.Name) == "":
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidItem, i+1)
		case it.Price < 0:
			return nil, fmt.Errorf("%w: item %d has a negative price", ErrInvalidItem, i+1)
		case it.Quantity < 1:
			return nil, fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidItem, i+1)
		case it.Price > math.MaxInt64/it.Quantity:
			return nil, fmt.Errorf("%w: item %d total is too large", ErrInvalidItem, i+1)
		}
		line := it.Price * it.Quantity
		if subtotal > math.MaxInt64-ShippingCost-line {
			return nil, fmt.Errorf("%w: cart total is too large", ErrInvalidItem)
		}
		subtotal += line
	}

	shipping := int64(ShippingCost)
	if subtotal > FreeShippingThreshold {
		shipping = 0
	}
	total := subtotal + shipping
	msg := Message(items, total)

	return &Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    total,
		Message:  msg,
		URL:      "https://wa.me/" + b.phone + "?text=" + encodeComponent(msg),
	}, nil
}

// Message renders the Indonesian order text for items and the final total.
func Message(items []Item, total int64) string {
	var sb strings.Builder
	sb.WriteString("Halo, saya ingin memesan:\n\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, it.Name)
		fmt.Fprintf(&sb, "   Qty: %d x %s\n", it.Quantity, FormatRupiah(it.Price))
		fmt.Fprintf(&sb, "   Subtotal: %s\n\n", FormatRupiah(it.Price*it.Quantity))
	}
	fmt.Fprintf(&sb, "*Total: %s*\n\n", FormatRupiah(total))
	sb.WriteString("Mohon informasi untuk proses selanjutnya. Terima kasih!")
	return sb.String()
}

// FormatRupiah formats n with Indonesian digit grouping, e.g. "Rp 1.250.000".
func FormatRupiah(n int64) string {
	return "Rp " + humanize.FormatInteger("#.###,", int(n))
}

// encodeComponent percent-encodes s for a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
