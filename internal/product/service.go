// Package product keeps remote stock levels in step with shop mutations.
package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/siel/acumulus-sync/internal/acumulus"
	"github.com/siel/acumulus-sync/internal/config"
	"github.com/siel/acumulus-sync/internal/providers/email"
	"github.com/siel/acumulus-sync/internal/source"
	"github.com/siel/acumulus-sync/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service pushes stock deltas to the remote product catalog. Stock updates
// are best effort: a failure is logged and reported but never propagated,
// so a stock hiccup cannot block invoice handling or the webhook response.
type Service interface {
	ProcessSourceStock(ctx context.Context, src *source.Source)
	UpdateStockForItem(ctx context.Context, item *source.Item, delta float64, description string)
}

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Client  acumulus.Client
	Mailer  email.Provider
	Metrics *telemetry.Metrics `optional:"true"`
}

type service struct {
	log        *zap.Logger
	adminEmail string
	client     acumulus.Client
	mailer     email.Provider
	metrics    *telemetry.Metrics
}

func NewService(p ServiceParam) Service {
	return &service{
		log:        p.Log.Named("product.service"),
		adminEmail: p.Config.AdminEmail,
		client:     p.Client,
		mailer:     p.Mailer,
		metrics:    p.Metrics,
	}
}

// ProcessSourceStock applies the stock effect of one source: an order
// consumes stock, a credit note returns it. Items without a product id
// cannot be matched remotely and are skipped.
func (s *service) ProcessSourceStock(ctx context.Context, src *source.Source) {
	sign := -1.0
	if src.Type == source.TypeCreditNote {
		sign = 1.0
	}
	description := fmt.Sprintf("%s %s", src.Type, src.ReferenceID)

	for i := range src.Items {
		item := &src.Items[i]
		if item.ProductID == 0 {
			continue
		}
		s.UpdateStockForItem(ctx, item, sign*item.Quantity, description)
	}
}

func (s *service) UpdateStockForItem(ctx context.Context, item *source.Item, delta float64, description string) {
	result, err := s.client.UpdateStock(ctx, item.ProductID, delta, description)
	if err != nil {
		s.metrics.ObserveStockUpdate("error")
		s.reportFailure(ctx, item, delta, err.Error())
		return
	}
	if len(result.Errors) > 0 {
		s.metrics.ObserveStockUpdate("rejected")
		s.reportFailure(ctx, item, delta, strings.Join(result.Errors, "; "))
		return
	}

	s.metrics.ObserveStockUpdate("ok")
	s.log.Info("stock updated",
		zap.Int64("product_id", item.ProductID),
		zap.Float64("delta", delta),
		zap.Float64("stock_amount", result.StockAmount),
	)
}

func (s *service) reportFailure(ctx context.Context, item *source.Item, delta float64, reason string) {
	s.log.Error("stock update failed",
		zap.Int64("product_id", item.ProductID),
		zap.String("sku", item.SKU),
		zap.Float64("delta", delta),
		zap.String("reason", reason),
	)
	if s.adminEmail == "" {
		return
	}
	report := email.FailureReport{
		SourceType: "product",
		SourceID:   item.ProductID,
		Reference:  item.SKU,
		Status:     "stock_update_failed",
		Messages: []email.FailureMessage{
			{Severity: "error", Code: "stock_update_failed", Text: reason},
		},
	}
	if err := s.mailer.SendSyncFailure(ctx, []string{s.adminEmail}, report); err != nil {
		s.log.Warn("failure mail not sent", zap.Error(err))
	}
}
