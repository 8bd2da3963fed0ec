// Package collector turns a shop source into a raw, uncorrected invoice.
package collector

import (
	"fmt"

	"github.com/siel/acumulus-sync/internal/invoice/domain"
	"github.com/siel/acumulus-sync/internal/source"
	"go.uber.org/zap"
)

// Collector walks a source and produces the raw invoice. It only reads;
// collecting the same source twice yields the same invoice. Missing data
// never makes it fail: incomplete sub-structures are left empty and the
// completor deals with them.
type Collector struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Collector {
	return &Collector{log: log.Named("invoice.collector")}
}

// Collect builds the raw invoice for a source. Vat rates are filled in
// only where the shop data states them directly; everything else stays
// nil for the completor to resolve.
func (c *Collector) Collect(src *source.Source) *domain.Invoice {
	inv := &domain.Invoice{
		Customer:      c.collectCustomer(src),
		Reference:     src.ReferenceID,
		Description:   description(src),
		IssueDate:     src.DateOfSale,
		Currency:      src.Currency,
		TotalAmount:   src.TotalAmount,
		TotalVat:      src.TotalVat,
		PaymentStatus: paymentStatus(src.PaymentStatus),
	}

	for i := range src.Items {
		inv.Lines = append(inv.Lines, c.collectItem(&src.Items[i], 0))
	}
	for i := range src.ShippingLines {
		inv.Lines = append(inv.Lines, collectSimpleLine(&src.ShippingLines[i], domain.LineTypeShipping))
	}
	for i := range src.FeeLines {
		inv.Lines = append(inv.Lines, collectSimpleLine(&src.FeeLines[i], domain.LineTypeFee))
	}
	for i := range src.DiscountLines {
		inv.Lines = append(inv.Lines, collectSimpleLine(&src.DiscountLines[i], domain.LineTypeDiscount))
	}

	c.log.Debug("collected invoice",
		zap.String("source_type", string(src.Type)),
		zap.Int64("source_id", src.ID),
		zap.Int("lines", len(inv.Lines)),
	)
	return inv
}

func (c *Collector) collectCustomer(src *source.Source) domain.Customer {
	cust := domain.Customer{
		Email:     src.Customer.Email,
		Phone:     src.Customer.Phone,
		Company:   src.Customer.Company,
		FullName:  fullName(src.Customer.FirstName, src.Customer.LastName),
		VatNumber: src.Customer.VatNumber,
	}
	if src.InvoiceAddress != nil {
		cust.InvoiceAddress = collectAddress(src.InvoiceAddress)
	}
	switch {
	case src.ShippingAddress != nil:
		cust.ShippingAddress = collectAddress(src.ShippingAddress)
	case cust.InvoiceAddress != nil:
		// Shops frequently omit the shipping address for virtual goods.
		copied := *cust.InvoiceAddress
		cust.ShippingAddress = &copied
	}
	return cust
}

// collectItem maps one product row, recursing into component rows. The
// shop's product model bounds nesting to two levels; deeper rows are
// ignored rather than followed.
func (c *Collector) collectItem(item *source.Item, depth int) *domain.Line {
	line := &domain.Line{
		Type:           domain.LineTypeProduct,
		ItemID:         item.ID,
		ProductID:      item.ProductID,
		SKU:            item.SKU,
		Description:    item.Description,
		Quantity:       item.Quantity,
		UnitPrice:      item.UnitPriceEx,
		UnitPriceInc:   item.UnitPriceInc,
		PricePrecision: item.PricePrecision,
	}
	if item.VatRate != nil {
		rate := *item.VatRate
		line.VatRate = &rate
		vat := item.VatAmount
		line.VatAmount = &vat
	}
	if depth < maxItemDepth {
		for i := range item.Children {
			line.Children = append(line.Children, c.collectItem(&item.Children[i], depth+1))
		}
	} else if len(item.Children) > 0 {
		c.log.Warn("item nesting exceeds supported depth, children skipped",
			zap.Int64("item_id", item.ID),
		)
	}
	return line
}

const maxItemDepth = 2

func collectSimpleLine(l *source.Line, typ domain.LineType) *domain.Line {
	line := &domain.Line{
		Type:           typ,
		Description:    l.Description,
		Quantity:       1,
		UnitPrice:      l.AmountEx,
		UnitPriceInc:   l.AmountInc,
		PricePrecision: 0.01,
	}
	if l.VatRate != nil {
		rate := *l.VatRate
		line.VatRate = &rate
		vat := l.VatAmount
		line.VatAmount = &vat
	}
	return line
}

func collectAddress(a *source.Address) *domain.Address {
	return &domain.Address{
		Address1:   a.Address1,
		Address2:   a.Address2,
		PostalCode: a.PostalCode,
		City:       a.City,
		Country:    a.Country,
	}
}

func description(src *source.Source) string {
	if src.Type == source.TypeCreditNote {
		return fmt.Sprintf("Refund of order %d", src.Order)
	}
	return fmt.Sprintf("Order %s", src.ReferenceID)
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

func paymentStatus(s source.PaymentStatus) domain.PaymentStatus {
	if s == source.PaymentPaid {
		return domain.PaymentStatusPaid
	}
	return domain.PaymentStatusDue
}
