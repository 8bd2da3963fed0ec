// Package source provides a uniform handle over a shop order or a
// refund/credit note, independent of the shop's own data model.
package source

import (
	"context"
	"time"
)

// Type discriminates orders from credit notes.
type Type string

const (
	TypeOrder      Type = "order"
	TypeCreditNote Type = "credit_note"
)

// PaymentStatus is the payment state of a source as far as invoicing is
// concerned.
type PaymentStatus string

const (
	PaymentDue  PaymentStatus = "due"
	PaymentPaid PaymentStatus = "paid"
)

// Source identifies one shop transaction together with the raw data the
// collector needs. (Type, ID) uniquely identifies a transaction within one
// shop installation. A Source is constructed on demand when an event fires
// and is never persisted; only its (Type, ID) pair ends up in an entry.
type Source struct {
	Type        Type
	ID          int64
	ReferenceID string

	DateOfSale    time.Time
	Currency      string
	TotalAmount   float64 // including vat
	TotalVat      float64
	PaymentStatus PaymentStatus
	ShopStatus    string

	Customer        Customer
	InvoiceAddress  *Address
	ShippingAddress *Address

	Items         []Item
	ShippingLines []Line
	FeeLines      []Line
	DiscountLines []Line

	// Order is set on credit-note sources and points at the originating
	// order id.
	Order int64
}

// Customer carries the buyer's identity and contact fields.
type Customer struct {
	Email     string
	Phone     string
	Company   string
	FirstName string
	LastName  string
	VatNumber string
}

// Address is a billing or shipping address.
type Address struct {
	Address1   string
	Address2   string
	PostalCode string
	City       string
	Country    string
}

// Item is one product row on the transaction. For composed or variable
// products Children holds the component rows; the shop's product model
// bounds the depth (at most two levels), so this is a small tree and
// never a general graph.
type Item struct {
	ID          int64
	ProductID   int64
	SKU         string
	Description string
	// Quantity of this item covered by the source. On a credit note this
	// is the refunded portion only, not the original order quantity.
	Quantity float64
	// UnitPriceEx is the unit price excluding vat, possibly rounded to the
	// shop's display precision.
	UnitPriceEx float64
	// UnitPriceInc is the unit price including vat when the shop can
	// provide it, 0 otherwise.
	UnitPriceInc float64
	// VatRate is the vat rate as a fraction (0.21 for 21%) when directly
	// knowable from the shop data, nil otherwise.
	VatRate *float64
	// VatAmount is the vat the shop computed per unit, 0 when unknown.
	VatAmount float64
	// PricePrecision is the absolute precision of UnitPriceEx, e.g. 0.01
	// when it was stored display-rounded.
	PricePrecision float64
	Children       []Item
}

// Line is a non-product row: shipping, fee or discount.
type Line struct {
	Description string
	AmountEx    float64
	AmountInc   float64
	VatRate     *float64
	VatAmount   float64
}

// Adapter resolves sources from the shop. Implementations negotiate shop
// version/capabilities once at construction time; the invoice pipeline
// never branches on shop versions.
type Adapter interface {
	// GetSource loads a source by type and id. Returns ErrSourceNotFound
	// when the shop does not know the transaction.
	GetSource(ctx context.Context, typ Type, id int64) (*Source, error)
}

// ParseType converts the external string representation of a source type.
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeOrder:
		return TypeOrder, true
	case TypeCreditNote:
		return TypeCreditNote, true
	default:
		return "", false
	}
}
