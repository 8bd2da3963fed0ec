// Package server exposes the HTTP surface: shop webhooks, the invoice
// status API and the operational endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siel/acumulus-sync/internal/config"
	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	invoicedomain "github.com/siel/acumulus-sync/internal/invoice/domain"
	"github.com/siel/acumulus-sync/internal/product"
	"github.com/siel/acumulus-sync/internal/source"
	"github.com/siel/acumulus-sync/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationMiddleware())
	r.Use(LoggingMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	metrics    *telemetry.Metrics
	adapter    source.Adapter
	invoiceSvc invoicedomain.Service
	entrySvc   entrydomain.Service
	stockSvc   product.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Metrics    *telemetry.Metrics `optional:"true"`
	Adapter    source.Adapter
	InvoiceSvc invoicedomain.Service
	EntrySvc   entrydomain.Service
	StockSvc   product.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		metrics:    p.Metrics,
		adapter:    p.Adapter,
		invoiceSvc: p.InvoiceSvc,
		entrySvc:   p.EntrySvc,
		stockSvc:   p.StockSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	webhooks := s.engine.Group("/webhooks")
	webhooks.Use(VerifyWebhookSignature(s.cfg.Shop.WebhookSecret))
	{
		webhooks.POST("/order", s.handleOrderWebhook)
		webhooks.POST("/order-deleted", s.handleOrderDeleted)
		webhooks.POST("/refund", s.handleRefundWebhook)
	}

	api := s.engine.Group("/api")
	{
		api.GET("/invoices/:type/:id", s.getInvoiceStatus)
		api.POST("/invoices/:type/:id/send", s.sendInvoice)
		api.DELETE("/invoices/:type/:id", s.deleteInvoiceEntry)
		api.GET("/invoices/:type/:id/pdf", s.getInvoicePDF)
		api.GET("/invoices/:type/:id/packing-slip", s.getPackingSlipPDF)
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
