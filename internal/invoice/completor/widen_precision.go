package completor

import (
	"math"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/invoice/domain"
)

// widenPrecision recovers precision on unit prices the shop stored
// already rounded to its display precision. When a line also carries an
// including-vat amount, dividing that by (1 + rate) yields the same
// price at higher precision, which keeps rounding drift from
// accumulating over many lines.
type widenPrecision struct{}

// widenedPrecision is the precision assumed after recomputation.
const widenedPrecision = 0.0001

func (widenPrecision) Name() string { return "widen_precision" }

func (widenPrecision) Complete(inv *domain.Invoice, result *domain.InvoiceAddResult, settings config.InvoiceSettings) {
	walkLines(inv.Lines, func(line *domain.Line) {
		if line.VatRate == nil || line.PricePrecision < 0.01 || isZeroAmount(line.UnitPriceInc) {
			return
		}
		recomputed := line.UnitPriceInc / (1 + *line.VatRate)
		// Only accept the recomputation when it is the same value seen at
		// higher precision, not a genuinely different price.
		if math.Abs(recomputed-line.UnitPrice) > line.PricePrecision {
			return
		}
		line.UnitPrice = recomputed
		line.PricePrecision = widenedPrecision
		vat := line.UnitPriceInc - line.UnitPrice
		line.VatAmount = &vat
	})
}
