package completor

import (
	"fmt"
	"math"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/invoice/domain"
)

// correctVatAmounts recomputes every line's vat amount from its unit
// price and resolved rate. Shops that derive vat by dividing a stored
// vat total back over the price compound their own rounding error; the
// rate-based computation is taken as ground truth. A correction beyond
// the tolerance is recorded as an informational message.
type correctVatAmounts struct{}

func (correctVatAmounts) Name() string { return "correct_vat_amounts" }

func (correctVatAmounts) Complete(inv *domain.Invoice, result *domain.InvoiceAddResult, settings config.InvoiceSettings) {
	walkLines(inv.Lines, func(line *domain.Line) {
		if line.VatRate == nil {
			return
		}
		computed := line.UnitPrice * *line.VatRate
		if line.VatAmount == nil {
			line.VatAmount = &computed
			return
		}
		if math.Abs(*line.VatAmount-computed) > VatTolerance {
			result.AddMessage(domain.SeverityInfo, "vat_amount_corrected",
				fmt.Sprintf("vat on line %q corrected from %.4f to %.4f", line.Description, *line.VatAmount, computed),
				"")
		}
		line.VatAmount = &computed
	})
}
