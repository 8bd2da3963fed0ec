package completor

import (
	"fmt"
	"math"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/invoice/domain"
)

// verifyTotals is the final sanity pass: the sum of the line amounts plus
// vat must match the source's grand total within the shop's rounding
// tolerance. A mismatch is reported as a warning but never blocks the
// send; a best-effort invoice can still be corrected remotely by a human.
type verifyTotals struct{}

func (verifyTotals) Name() string { return "verify_totals" }

func (verifyTotals) Complete(inv *domain.Invoice, result *domain.InvoiceAddResult, settings config.InvoiceSettings) {
	var sum float64
	unresolved := 0
	for _, line := range inv.Lines {
		sum += line.AmountEx() + line.AmountVat()
		if line.VatRate == nil {
			unresolved++
		}
	}

	if unresolved > 0 {
		result.AddWarning("vat_rate_unresolved",
			fmt.Sprintf("%d line(s) still have no vat rate after completion", unresolved))
	}

	tolerance := totalTolerance(len(inv.Lines))
	if diff := math.Abs(sum - inv.TotalAmount); diff > tolerance {
		result.AddWarning("total_mismatch",
			fmt.Sprintf("line totals (%.2f) deviate %.4f from the invoice total (%.2f)",
				roundCents(sum), diff, inv.TotalAmount))
	}
}

// totalTolerance grows with the line count: every line may contribute up
// to half a cent of rounding in either direction.
func totalTolerance(lines int) float64 {
	tolerance := VatTolerance * float64(lines+1)
	if tolerance < 0.01 {
		tolerance = 0.01
	}
	return tolerance
}
