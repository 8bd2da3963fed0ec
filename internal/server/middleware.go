package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siel/acumulus-sync/pkg/log/ctxlogger"
	"github.com/siel/acumulus-sync/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

// webhookSignatureHeader carries the HMAC the shop computes over the raw
// request body.
const webhookSignatureHeader = "X-WC-Webhook-Signature"

// webhookTopicHeader names the event that fired the webhook, e.g.
// "order.updated".
const webhookTopicHeader = "X-WC-Webhook-Topic"

// CorrelationMiddleware propagates or mints the correlation id and echoes
// it on the response.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(correlation.Header)
		ctx := correlation.ContextWithCorrelationID(c.Request.Context(), cid)
		ctx, cid = correlation.EnsureCorrelationID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.Header, cid)
		c.Next()
	}
}

// LoggingMiddleware emits one access log line per request, enriched with
// the correlation and tracing metadata on the request context.
func LoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	access := log.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ctxlogger.WithContext(c.Request.Context(), access).Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// VerifyWebhookSignature authenticates webhook deliveries with the shared
// secret. WooCommerce signs the raw body with HMAC-SHA256 and sends the
// base64 digest. With no secret configured every delivery is rejected;
// webhooks must never be an unauthenticated write path.
func VerifyWebhookSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		got := c.GetHeader(webhookSignatureHeader)
		if got == "" || !hmac.Equal([]byte(expected), []byte(got)) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
