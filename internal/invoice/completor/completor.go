// Package completor turns a raw collected invoice into one that satisfies
// the Acumulus validation contract.
//
// Completion is a linear pipeline of named strategies applied in a fixed
// order, because later strategies depend on invariants established by
// earlier ones: vat rates must be resolved before vat amounts can be
// corrected, amounts must be corrected before precision widening, and the
// line tree must stay intact until flattening so splits can attach child
// lines. Strategies never touch the network or storage; data-quality
// problems degrade to messages on the result instead of errors.
package completor

import (
	"math"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/invoice/domain"
	"go.uber.org/zap"
)

// VatTolerance is the maximum acceptable deviation between a stored vat
// amount and the rate-based computation, per unit. Half a cent absorbs the
// rounding the shop applies when it stores display values.
const VatTolerance = 0.005

// Strategy is one completion concern. Implementations mutate the invoice
// in place and report anomalies on the result; they must be callable in
// isolation.
type Strategy interface {
	Name() string
	Complete(inv *domain.Invoice, result *domain.InvoiceAddResult, settings config.InvoiceSettings)
}

// Completor drives the strategy pipeline.
type Completor struct {
	log        *zap.Logger
	settings   *config.InvoiceSettingsHolder
	strategies []Strategy
}

func New(log *zap.Logger, settings *config.InvoiceSettingsHolder) *Completor {
	return &Completor{
		log:      log.Named("invoice.completor"),
		settings: settings,
		strategies: []Strategy{
			stripZeroLines{},
			inferVatRates{},
			correctVatAmounts{},
			widenPrecision{},
			flattenLines{},
			verifyTotals{},
		},
	}
}

// Complete runs all strategies over the invoice. Only programming-contract
// violations are returned as errors; everything else is a message on the
// result.
func (c *Completor) Complete(inv *domain.Invoice, result *domain.InvoiceAddResult) error {
	if inv == nil {
		return domain.ErrNilInvoice
	}
	if inv.Customer == (domain.Customer{}) {
		return domain.ErrMissingCustomer
	}

	settings := c.settings.Get()
	for _, strategy := range c.strategies {
		strategy.Complete(inv, result, settings)
		c.log.Debug("completion strategy applied",
			zap.String("strategy", strategy.Name()),
			zap.Int("lines", len(inv.Lines)),
		)
	}
	return nil
}

// Strategies returns the pipeline in execution order.
func (c *Completor) Strategies() []Strategy {
	return c.strategies
}

// walkLines visits every line in the tree, parents before children.
func walkLines(lines []*domain.Line, visit func(*domain.Line)) {
	for _, line := range lines {
		visit(line)
		walkLines(line.Children, visit)
	}
}

// rateGroups returns the ex-vat revenue per known vat rate across the
// invoice. Rates are keyed rounded to four decimals so 0.21 computed two
// different ways lands in one group.
func rateGroups(inv *domain.Invoice) map[float64]float64 {
	groups := make(map[float64]float64)
	walkLines(inv.Lines, func(line *domain.Line) {
		if line.VatRate == nil || line.Type == domain.LineTypeDiscount {
			return
		}
		amount := line.AmountEx()
		if amount <= 0 {
			return
		}
		groups[roundRate(*line.VatRate)] += amount
	})
	return groups
}

func roundRate(rate float64) float64 {
	return math.Round(rate*10000) / 10000
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func isZeroAmount(v float64) bool {
	return math.Abs(v) < VatTolerance
}

func floatsEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
