package completor

import (
	"fmt"
	"sort"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/invoice/domain"
)

// inferVatRates resolves lines the collector left without a vat rate,
// typically discount and fee lines.
//
// Resolution order, per line:
//  1. when both ex and inc prices are known, the rate they imply is
//     matched against the rates present on the invoice;
//  2. when all priced lines share one rate, that dominant rate is used;
//  3. otherwise the line's amount is split proportionally across the
//     rate groups, weighted by each group's share of the ex-vat revenue,
//     producing one child line per rate group.
//
// Earlier options win because they yield fewer resulting lines. The
// proportional-by-revenue split is the deterministic rule this
// implementation commits to for genuinely ambiguous amounts.
type inferVatRates struct{}

func (inferVatRates) Name() string { return "infer_vat_rates" }

func (inferVatRates) Complete(inv *domain.Invoice, result *domain.InvoiceAddResult, settings config.InvoiceSettings) {
	groups := rateGroups(inv)

	walkLines(inv.Lines, func(line *domain.Line) {
		if line.VatRate != nil {
			return
		}

		// Free lines kept by the zero-amount policy become zero-vat lines.
		if isZeroAmount(line.UnitPrice) && isZeroAmount(line.UnitPriceInc) && len(line.Children) == 0 {
			zero := 0.0
			line.VatRate = &zero
			return
		}

		if len(groups) == 0 {
			zero := 0.0
			line.VatRate = &zero
			result.AddWarning("vat_rate_unknown",
				fmt.Sprintf("no vat rates known on this invoice; line %q assumed vat free", line.Description))
			return
		}

		if rate, ok := matchImpliedRate(line, groups); ok {
			line.VatRate = &rate
			return
		}

		if len(groups) == 1 {
			for rate := range groups {
				r := rate
				line.VatRate = &r
			}
			return
		}

		splitAcrossRates(line, groups)
	})
}

// matchImpliedRate checks whether the line's own inc/ex price pair points
// at exactly one of the invoice's rate groups.
func matchImpliedRate(line *domain.Line, groups map[float64]float64) (float64, bool) {
	if isZeroAmount(line.UnitPrice) || isZeroAmount(line.UnitPriceInc) {
		return 0, false
	}
	implied := line.UnitPriceInc/line.UnitPrice - 1

	var found float64
	matches := 0
	for rate := range groups {
		// A half-cent on the inc price translates to this rate band.
		band := VatTolerance / maxAbs(line.UnitPrice, 0.01)
		if floatsEqual(rate, implied, band+0.001) {
			found = rate
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}
	return 0, false
}

// splitAcrossRates distributes the line's amount over the rate groups,
// attaching one child per group. The parent keeps its description but no
// longer carries an amount of its own; flattening emits the children.
func splitAcrossRates(line *domain.Line, groups map[float64]float64) {
	var total float64
	for _, revenue := range groups {
		total += revenue
	}
	if total <= 0 {
		return
	}

	for _, rate := range sortedRates(groups) {
		share := groups[rate] / total
		child := line.Copy()
		r := rate
		child.VatRate = &r
		child.VatAmount = nil
		child.UnitPrice = line.UnitPrice * share
		child.UnitPriceInc = line.UnitPriceInc * share
		child.Description = fmt.Sprintf("%s (%.1f%% vat)", line.Description, rate*100)
		line.Children = append(line.Children, child)
	}

	zero := 0.0
	line.UnitPrice = 0
	line.UnitPriceInc = 0
	line.VatRate = &zero
	line.VatAmount = &zero
}

func sortedRates(groups map[float64]float64) []float64 {
	rates := make([]float64, 0, len(groups))
	for rate := range groups {
		rates = append(rates, rate)
	}
	sort.Float64s(rates)
	return rates
}

func maxAbs(v, floor float64) float64 {
	if v < 0 {
		v = -v
	}
	if v < floor {
		return floor
	}
	return v
}
