package completor

import (
	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/invoice/domain"
)

// stripZeroLines removes lines that carry no amount. Zero-quantity lines
// go unconditionally unless they are fee or manual lines; free lines go
// only when the operator chose the drop policy, otherwise they stay and
// later receive a zero vat rate.
type stripZeroLines struct{}

func (stripZeroLines) Name() string { return "strip_zero_lines" }

func (stripZeroLines) Complete(inv *domain.Invoice, result *domain.InvoiceAddResult, settings config.InvoiceSettings) {
	inv.Lines = stripLines(inv.Lines, settings.ZeroAmountLines == config.ZeroAmountLinesDrop)
}

func stripLines(lines []*domain.Line, dropFree bool) []*domain.Line {
	kept := lines[:0]
	for _, line := range lines {
		line.Children = stripLines(line.Children, dropFree)
		if shouldStrip(line, dropFree) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

func shouldStrip(line *domain.Line, dropFree bool) bool {
	if line.Type == domain.LineTypeFee || line.Type == domain.LineTypeManual {
		return false
	}
	if len(line.Children) > 0 {
		return false
	}
	if line.Quantity == 0 {
		return true
	}
	if dropFree && isZeroAmount(line.UnitPrice) && isZeroAmount(line.UnitPriceInc) {
		return true
	}
	return false
}
