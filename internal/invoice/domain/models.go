// Package domain contains the normalized invoice representation sent to
// the Acumulus web service, and the transient result of one send attempt.
package domain

import "time"

// LineType tags the origin of an invoice line.
type LineType string

const (
	LineTypeProduct  LineType = "product"
	LineTypeShipping LineType = "shipping"
	LineTypeDiscount LineType = "discount"
	LineTypeFee      LineType = "fee"
	LineTypeManual   LineType = "manual"
)

// PaymentStatus mirrors the source's payment state on the wire.
type PaymentStatus int

const (
	PaymentStatusDue  PaymentStatus = 1
	PaymentStatusPaid PaymentStatus = 2
)

// Invoice is the normalized, API-ready representation of a transaction.
// It is created fresh by the collector for every send attempt and
// discarded after producing a wire payload; it is never persisted.
type Invoice struct {
	Customer Customer

	// Concept requests a draft entry instead of a final one.
	Concept bool

	Reference     string
	Description   string
	IssueDate     time.Time
	Currency      string
	PaymentStatus PaymentStatus

	// TotalAmount is the source's grand total including vat; the completor
	// reconciles the lines against it.
	TotalAmount float64
	TotalVat    float64

	Lines []*Line
}

// Customer holds the buyer plus up to two addresses. The shipping address
// falls back to the invoice address when the shop has none.
type Customer struct {
	Email     string
	Phone     string
	Company   string
	FullName  string
	VatNumber string

	InvoiceAddress  *Address
	ShippingAddress *Address
}

// Address is one postal address on the invoice.
type Address struct {
	Address1   string
	Address2   string
	PostalCode string
	City       string
	Country    string
}

// Line is one billable or informational row. A parent line may carry
// child lines for composed products; the completor flattens the tree
// before sending.
type Line struct {
	Type        LineType
	ItemID      int64
	ProductID   int64
	SKU         string
	Description string

	// Quantity can be fractional for partial refunds.
	Quantity float64
	// UnitPrice is the unit price excluding vat.
	UnitPrice float64
	// UnitPriceInc is the unit price including vat, 0 when unknown.
	UnitPriceInc float64
	// VatRate is a fraction (0.21 for 21%); nil until completion resolves it.
	VatRate *float64
	// VatAmount is the vat per unit; nil until completion resolves it.
	VatAmount *float64
	// PricePrecision is the absolute precision of UnitPrice; values at or
	// above a cent are considered display-rounded and eligible for
	// precision widening.
	PricePrecision float64

	Children []*Line
}

// AmountEx returns the line total excluding vat.
func (l *Line) AmountEx() float64 {
	return l.UnitPrice * l.Quantity
}

// AmountVat returns the line's total vat, 0 while the rate is unresolved.
func (l *Line) AmountVat() float64 {
	if l.VatAmount == nil {
		return 0
	}
	return *l.VatAmount * l.Quantity
}

// Copy returns a copy of the line without children. Pointer fields are
// duplicated so completion strategies never alias rates across lines.
func (l *Line) Copy() *Line {
	c := *l
	c.Children = nil
	if l.VatRate != nil {
		rate := *l.VatRate
		c.VatRate = &rate
	}
	if l.VatAmount != nil {
		amount := *l.VatAmount
		c.VatAmount = &amount
	}
	return &c
}
