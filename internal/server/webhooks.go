package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	"github.com/siel/acumulus-sync/internal/source"
	"go.uber.org/zap"
)

// orderWebhookPayload is the slice of the WooCommerce order payload this
// service needs; the full order is re-fetched through the adapter so the
// webhook body never has to be trusted for amounts.
type orderWebhookPayload struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type refundWebhookPayload struct {
	ID       int64 `json:"id"`
	ParentID int64 `json:"parent_id"`
}

func (s *Server) handleOrderWebhook(c *gin.Context) {
	start := time.Now()
	topic := c.GetHeader(webhookTopicHeader)

	var payload orderWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID == 0 {
		s.metrics.ObserveWebhook(topic, "invalid", time.Since(start))
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	result, err := s.invoiceSvc.HandleSourceStatusChange(ctx, source.TypeOrder, payload.ID, payload.Status)
	if err != nil {
		s.metrics.ObserveWebhook(topic, "error", time.Since(start))
		AbortWithError(c, err)
		return
	}

	// Stock follows the order lifecycle, not the invoice: consume on
	// creation only, so repeated status updates never double-book.
	if strings.HasSuffix(topic, ".created") {
		if src, err := s.adapter.GetSource(ctx, source.TypeOrder, payload.ID); err != nil {
			s.log.Warn("stock skipped, source not loadable",
				zap.Int64("order_id", payload.ID), zap.Error(err))
		} else {
			s.stockSvc.ProcessSourceStock(ctx, src)
		}
	}

	s.metrics.ObserveWebhook(topic, result.Status.String(), time.Since(start))
	c.JSON(http.StatusOK, gin.H{"status": result.Status.String(), "messages": result.Messages})
}

func (s *Server) handleRefundWebhook(c *gin.Context) {
	start := time.Now()
	topic := c.GetHeader(webhookTopicHeader)

	var payload refundWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID == 0 {
		s.metrics.ObserveWebhook(topic, "invalid", time.Since(start))
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	result, err := s.invoiceSvc.HandleSourceStatusChange(ctx, source.TypeCreditNote, payload.ID, "refunded")
	if err != nil {
		s.metrics.ObserveWebhook(topic, "error", time.Since(start))
		AbortWithError(c, err)
		return
	}

	if src, err := s.adapter.GetSource(ctx, source.TypeCreditNote, payload.ID); err != nil {
		s.log.Warn("stock skipped, refund not loadable",
			zap.Int64("refund_id", payload.ID), zap.Error(err))
	} else {
		s.stockSvc.ProcessSourceStock(ctx, src)
	}

	s.metrics.ObserveWebhook(topic, result.Status.String(), time.Since(start))
	c.JSON(http.StatusOK, gin.H{"status": result.Status.String(), "messages": result.Messages})
}

// handleOrderDeleted removes the entry mapping when the shop deletes the
// transaction; the booking itself stays in Acumulus.
func (s *Server) handleOrderDeleted(c *gin.Context) {
	var payload orderWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.entrySvc.DeleteForSource(c.Request.Context(), source.TypeOrder, payload.ID)
	if err != nil && !errors.Is(err, entrydomain.ErrEntryNotFound) {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
