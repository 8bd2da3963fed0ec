package completor

import (
	"fmt"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/invoice/domain"
)

// flattenLines replaces every parent/child line tree with a flat
// sequence. In summary mode the parent stays as its own line and the
// children follow it as sub-lines; a parent that carries the price gets
// its children zeroed so their amounts are not counted twice. In merge
// mode child amounts are folded into the parent, which only works when
// parent and children agree on a single vat rate; mixed-rate parents
// fall back to summary with a warning, since merging them would misstate
// the vat breakdown.
type flattenLines struct{}

func (flattenLines) Name() string { return "flatten_lines" }

func (flattenLines) Complete(inv *domain.Invoice, result *domain.InvoiceAddResult, settings config.InvoiceSettings) {
	inv.Lines = flatten(inv.Lines, settings.FlattenMode, result)
}

func flatten(lines []*domain.Line, mode config.FlattenMode, result *domain.InvoiceAddResult) []*domain.Line {
	out := make([]*domain.Line, 0, len(lines))
	for _, line := range lines {
		if len(line.Children) == 0 {
			out = append(out, line)
			continue
		}

		children := flatten(line.Children, mode, result)

		if mode == config.FlattenMerge {
			if merged, ok := merge(line, children); ok {
				out = append(out, merged)
				continue
			}
			result.AddWarning("flatten_mixed_rates",
				fmt.Sprintf("line %q has components with different vat rates; kept as separate lines", line.Description))
		}

		parent := line.Copy()
		out = append(out, parent)
		parentPriced := parent.AmountEx() != 0 || parent.AmountVat() != 0
		for _, child := range children {
			sub := child.Copy()
			sub.Description = " - " + sub.Description
			if parentPriced {
				sub.UnitPrice = 0
				sub.UnitPriceInc = 0
				if sub.VatAmount != nil {
					zero := 0.0
					sub.VatAmount = &zero
				}
			}
			out = append(out, sub)
		}
	}
	return out
}

// merge folds child amounts into the parent. All involved lines must
// share one vat rate; a parent without a rate adopts the children's.
func merge(parent *domain.Line, children []*domain.Line) (*domain.Line, bool) {
	if parent.Quantity == 0 {
		return nil, false
	}

	rate := parent.VatRate
	for _, child := range children {
		if child.VatRate == nil {
			return nil, false
		}
		if rate == nil {
			rate = child.VatRate
			continue
		}
		if !floatsEqual(roundRate(*rate), roundRate(*child.VatRate), 0.0001) {
			return nil, false
		}
	}
	if rate == nil {
		return nil, false
	}

	merged := parent.Copy()
	r := *rate
	merged.VatRate = &r

	var childrenEx, childrenInc float64
	for _, child := range children {
		childrenEx += child.AmountEx()
		childrenInc += child.UnitPriceInc * child.Quantity
	}
	merged.UnitPrice += childrenEx / parent.Quantity
	if merged.UnitPriceInc > 0 {
		merged.UnitPriceInc += childrenInc / parent.Quantity
	}
	vat := merged.UnitPrice * r
	merged.VatAmount = &vat
	return merged, true
}
