package woocommerce

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/source"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// wooDateLayout is the site-local timestamp format of the REST API.
const wooDateLayout = "2006-01-02T15:04:05"

type AdapterParam struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
}

// Adapter implements source.Adapter on top of the REST client.
type Adapter struct {
	log    *zap.Logger
	client *Client
}

func NewAdapter(p AdapterParam) *Adapter {
	shop := p.Config.Shop
	return &Adapter{
		log:    p.Log.Named("woocommerce.adapter"),
		client: NewClient(p.Log, shop.BaseURL, shop.ConsumerKey, shop.ConsumerSecret),
	}
}

// Probe delegates to the client's capability check.
func (a *Adapter) Probe(ctx context.Context) error {
	return a.client.Probe(ctx)
}

func (a *Adapter) GetSource(ctx context.Context, typ source.Type, id int64) (*source.Source, error) {
	switch typ {
	case source.TypeOrder:
		order, err := a.client.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return orderToSource(order), nil
	case source.TypeCreditNote:
		refund, err := a.client.GetRefund(ctx, id)
		if err != nil {
			return nil, err
		}
		parent, err := a.client.GetOrder(ctx, refund.ParentID)
		if err != nil {
			return nil, err
		}
		return refundToSource(refund, parent), nil
	default:
		return nil, source.ErrInvalidSourceType
	}
}

func orderToSource(o *Order) *source.Source {
	src := &source.Source{
		Type:          source.TypeOrder,
		ID:            o.ID,
		ReferenceID:   o.Number,
		DateOfSale:    parseDate(o.DateCreated),
		Currency:      o.Currency,
		TotalAmount:   parseAmount(o.Total),
		TotalVat:      parseAmount(o.TotalTax),
		PaymentStatus: paymentStatus(o),
		ShopStatus:    o.Status,
		Customer:      customer(o),
		InvoiceAddress: &source.Address{
			Address1:   o.Billing.Address1,
			Address2:   o.Billing.Address2,
			PostalCode: o.Billing.Postcode,
			City:       o.Billing.City,
			Country:    o.Billing.Country,
		},
		ShippingAddress: shippingAddress(o),
	}

	for i := range o.LineItems {
		src.Items = append(src.Items, orderItem(&o.LineItems[i]))
	}
	for i := range o.ShippingLines {
		sl := &o.ShippingLines[i]
		src.ShippingLines = append(src.ShippingLines,
			simpleLine(sl.MethodTitle, parseAmount(sl.Total), parseAmount(sl.TotalTax)))
	}
	for i := range o.FeeLines {
		fl := &o.FeeLines[i]
		src.FeeLines = append(src.FeeLines,
			simpleLine(fl.Name, parseAmount(fl.Total), parseAmount(fl.TotalTax)))
	}
	for i := range o.CouponLines {
		cl := &o.CouponLines[i]
		src.DiscountLines = append(src.DiscountLines, discountLine(cl))
	}
	return src
}

// refundToSource builds a credit-note source. Quantities are normalized
// to the positive refunded amount while prices stay negative, so a
// credit-note line reads "2 units at -10.00 each" rather than "-2 units
// at 10.00".
func refundToSource(r *Refund, parent *Order) *source.Source {
	src := &source.Source{
		Type:        source.TypeCreditNote,
		ID:          r.ID,
		ReferenceID: fmt.Sprintf("%s-R%d", parent.Number, r.ID),
		DateOfSale:  parseDate(r.DateCreated),
		Currency:    parent.Currency,
		TotalAmount: -parseAmount(r.Amount),
		// Refunds are settled the moment they exist.
		PaymentStatus: source.PaymentPaid,
		ShopStatus:    "refunded",
		Customer:      customer(parent),
		InvoiceAddress: &source.Address{
			Address1:   parent.Billing.Address1,
			Address2:   parent.Billing.Address2,
			PostalCode: parent.Billing.Postcode,
			City:       parent.Billing.City,
			Country:    parent.Billing.Country,
		},
		ShippingAddress: shippingAddress(parent),
		Order:           parent.ID,
	}

	var totalVat float64
	for i := range r.LineItems {
		item := refundItem(&r.LineItems[i])
		totalVat += item.VatAmount * item.Quantity
		src.Items = append(src.Items, item)
	}
	for i := range r.ShippingLines {
		sl := &r.ShippingLines[i]
		line := simpleLine(sl.MethodTitle, parseAmount(sl.Total), parseAmount(sl.TotalTax))
		totalVat += line.VatAmount
		src.ShippingLines = append(src.ShippingLines, line)
	}
	for i := range r.FeeLines {
		fl := &r.FeeLines[i]
		line := simpleLine(fl.Name, parseAmount(fl.Total), parseAmount(fl.TotalTax))
		totalVat += line.VatAmount
		src.FeeLines = append(src.FeeLines, line)
	}
	src.TotalVat = totalVat
	return src
}

func orderItem(li *LineItem) source.Item {
	qty := li.Quantity
	item := source.Item{
		ID:          li.ID,
		ProductID:   productID(li),
		SKU:         li.SKU,
		Description: li.Name,
		Quantity:    qty,
		// Line amounts are stored rounded to cents, so unit prices derived
		// from them carry at most cent precision.
		PricePrecision: 0.01,
	}
	if qty == 0 {
		return item
	}
	subtotal := parseAmount(li.Subtotal)
	tax := parseAmount(li.SubtotalTax)
	item.UnitPriceEx = subtotal / qty
	item.VatAmount = tax / qty
	item.UnitPriceInc = (subtotal + tax) / qty
	item.VatRate = impliedRate(tax, subtotal)
	return item
}

func refundItem(li *LineItem) source.Item {
	qty := math.Abs(li.Quantity)
	item := source.Item{
		ID:             li.ID,
		ProductID:      productID(li),
		SKU:            li.SKU,
		Description:    li.Name,
		Quantity:       qty,
		PricePrecision: 0.01,
	}
	if qty == 0 {
		return item
	}
	total := parseAmount(li.Total)
	tax := parseAmount(li.TotalTax)
	item.UnitPriceEx = total / qty
	item.VatAmount = tax / qty
	item.UnitPriceInc = (total + tax) / qty
	item.VatRate = impliedRate(tax, total)
	return item
}

func simpleLine(description string, amountEx, vat float64) source.Line {
	return source.Line{
		Description: description,
		AmountEx:    amountEx,
		AmountInc:   amountEx + vat,
		VatRate:     impliedRate(vat, amountEx),
		VatAmount:   vat,
	}
}

// discountLine emits the coupon as a negative line. The vat rate is left
// unresolved on purpose: a coupon can span items under different rates,
// and the completion pipeline knows how to split it.
func discountLine(cl *CouponLine) source.Line {
	amount := parseAmount(cl.Discount)
	tax := parseAmount(cl.DiscountTax)
	return source.Line{
		Description: "Discount " + cl.Code,
		AmountEx:    -amount,
		AmountInc:   -(amount + tax),
		VatAmount:   -tax,
	}
}

func customer(o *Order) source.Customer {
	return source.Customer{
		Email:     o.Billing.Email,
		Phone:     o.Billing.Phone,
		Company:   o.Billing.Company,
		FirstName: o.Billing.FirstName,
		LastName:  o.Billing.LastName,
	}
}

func shippingAddress(o *Order) *source.Address {
	s := o.Shipping
	if s.Address1 == "" && s.City == "" && s.Postcode == "" {
		return nil
	}
	return &source.Address{
		Address1:   s.Address1,
		Address2:   s.Address2,
		PostalCode: s.Postcode,
		City:       s.City,
		Country:    s.Country,
	}
}

// productID prefers the variation over the parent product so stock lands
// on the variant actually sold.
func productID(li *LineItem) int64 {
	if li.VariationID != 0 {
		return li.VariationID
	}
	return li.ProductID
}

// impliedRate derives the vat rate from the amounts. Rates derived this
// way inherit the rounding of the stored amounts; they are good enough
// for grouping, and precision widening cleans up the prices afterwards.
func impliedRate(vat, amountEx float64) *float64 {
	if amountEx == 0 {
		return nil
	}
	rate := math.Round(vat/amountEx*10000) / 10000
	if rate < 0 {
		return nil
	}
	return &rate
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(wooDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func paymentStatus(o *Order) source.PaymentStatus {
	if o.DatePaid != "" {
		return source.PaymentPaid
	}
	return source.PaymentDue
}
