package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/siel/acumulus-sync/internal/source"
	"go.uber.org/zap"
)

// restAPIPath is the base path of the WooCommerce REST API. The /wp-json
// prefix is required for routing on standard permalink setups.
const restAPIPath = "/wp-json/wc/v3"

// requiredNamespace is the REST namespace this adapter depends on.
const requiredNamespace = "wc/v3"

// Client is a read-only WooCommerce REST client authenticating with a
// consumer key/secret pair over basic auth.
type Client struct {
	log        *zap.Logger
	httpClient *http.Client
	baseURL    string
	key        string
	secret     string
}

func NewClient(log *zap.Logger, baseURL, key, secret string) *Client {
	return &Client{
		log:        log.Named("woocommerce.client"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		key:        key,
		secret:     secret,
	}
}

// Probe verifies the shop exposes the wc/v3 namespace. Called once at
// startup; the rest of the adapter never branches on shop versions.
func (c *Client) Probe(ctx context.Context) error {
	var index apiIndex
	if err := c.get(ctx, c.baseURL+"/wp-json/", &index); err != nil {
		return fmt.Errorf("probe shop api: %w", err)
	}
	for _, ns := range index.Namespaces {
		if ns == requiredNamespace {
			c.log.Info("shop api probed",
				zap.String("shop", index.Name),
				zap.String("namespace", requiredNamespace),
			)
			return nil
		}
	}
	return fmt.Errorf("shop at %s does not expose the %s namespace", c.baseURL, requiredNamespace)
}

// GetOrder loads one order by id.
func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var order Order
	uri := fmt.Sprintf("%s%s/orders/%d", c.baseURL, restAPIPath, id)
	if err := c.get(ctx, uri, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetRefund loads one refund by id via the top-level refunds collection,
// which carries the parent order id the per-order route would need up
// front.
func (c *Client) GetRefund(ctx context.Context, id int64) (*Refund, error) {
	var refunds []Refund
	uri := fmt.Sprintf("%s%s/refunds?include=%d", c.baseURL, restAPIPath, id)
	if err := c.get(ctx, uri, &refunds); err != nil {
		return nil, err
	}
	if len(refunds) == 0 {
		return nil, source.ErrSourceNotFound
	}
	return &refunds[0], nil
}

func (c *Client) get(ctx context.Context, uri string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call shop api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read shop response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return source.ErrSourceNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != "" {
			return fmt.Errorf("shop api %d: %s (%s)", resp.StatusCode, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("shop api returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode shop response: %w", err)
	}
	return nil
}
