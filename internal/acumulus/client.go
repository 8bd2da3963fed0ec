package acumulus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/siel/acumulus-sync/internal/config"
	invoicedomain "github.com/siel/acumulus-sync/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second

	pathInvoiceAdd     = "invoices/invoice_add"
	pathInvoiceGetPDF  = "invoices/invoice_get_pdf"
	pathPackingSlipPDF = "delivery/packing_slip_get_pdf"
	pathStockAdd       = "products/stock_add"
)

// Client talks to the Acumulus web service.
//
// AddInvoice returns a result even when the remote reports errors; the
// error return is reserved for transport failures and unparseable
// responses. PDF URIs are built locally from the stored token and never
// hit the network.
type Client interface {
	AddInvoice(ctx context.Context, inv *invoicedomain.Invoice) (*invoicedomain.InvoiceAddResult, error)
	InvoicePDFURI(token string) string
	PackingSlipPDFURI(token string) string
	UpdateStock(ctx context.Context, productID int64, delta float64, description string) (*StockResult, error)
}

type ClientParam struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
}

type client struct {
	log     *zap.Logger
	http    *http.Client
	baseURL string
	env     envelope
}

func NewClient(p ClientParam) Client {
	cfg := p.Config.Acumulus
	testMode := 0
	if cfg.TestMode {
		testMode = 1
	}
	return &client{
		log:     p.Log.Named("acumulus.client"),
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: cfg.BaseURL,
		env: envelope{
			Contract: contract{
				ContractCode: cfg.ContractCode,
				UserName:     cfg.UserName,
				Password:     cfg.Password,
				EmailOnError: cfg.EmailOnError,
			},
			Format:   "json",
			TestMode: testMode,
			Connector: connector{
				Application: p.Config.AppName + " " + p.Config.AppVersion,
				WebKoppel:   p.Config.AppName,
				Development: "Siel",
			},
		},
	}
}

func (c *client) AddInvoice(ctx context.Context, inv *invoicedomain.Invoice) (*invoicedomain.InvoiceAddResult, error) {
	if inv == nil {
		return nil, invoicedomain.ErrNilInvoice
	}

	req := invoiceAddRequest{
		envelope: c.env,
		Customer: toWireCustomer(inv),
	}
	resp, err := c.post(ctx, pathInvoiceAdd, req)
	if err != nil {
		return nil, err
	}

	result := invoicedomain.NewInvoiceAddResult()
	result.Status = invoicedomain.SendStatusSuccess
	collectMessages(result, resp)

	if resp.Invoice != nil {
		result.ConceptID = resp.Invoice.ConceptID
		result.EntryID = resp.Invoice.EntryID
		if resp.Invoice.Token != "" {
			token := resp.Invoice.Token
			result.Token = &token
		}
	}

	c.log.Info("invoice_add completed",
		zap.String("reference", inv.Reference),
		zap.String("status", result.Status.String()),
	)
	return result, nil
}

// InvoicePDFURI returns the public download URI for the invoice PDF.
func (c *client) InvoicePDFURI(token string) string {
	return fmt.Sprintf("%s/%s.php?token=%s", c.baseURL, pathInvoiceGetPDF, url.QueryEscape(token))
}

// PackingSlipPDFURI returns the public download URI for the packing slip PDF.
func (c *client) PackingSlipPDFURI(token string) string {
	return fmt.Sprintf("%s/%s.php?token=%s", c.baseURL, pathPackingSlipPDF, url.QueryEscape(token))
}

func (c *client) UpdateStock(ctx context.Context, productID int64, delta float64, description string) (*StockResult, error) {
	req := stockAddRequest{
		envelope: c.env,
		Stock: wireStock{
			ProductID:   productID,
			StockAmount: delta,
			Description: description,
		},
	}
	resp, err := c.post(ctx, pathStockAdd, req)
	if err != nil {
		return nil, err
	}

	result := &StockResult{Status: resp.Status}
	for _, m := range resp.Errors.Messages {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", m.Code, m.Message))
	}
	if resp.Stock != nil {
		result.StockAmount = resp.Stock.StockAmount
	}
	return result, nil
}

func (c *client) post(ctx context.Context, path string, payload any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", path, err)
	}

	uri := fmt.Sprintf("%s/%s.php", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("call %s: remote returned %d", path, httpResp.StatusCode)
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Error("malformed response",
			zap.String("path", path),
			zap.Int("http_status", httpResp.StatusCode),
		)
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &resp, nil
}

func toWireCustomer(inv *invoicedomain.Invoice) wireCustomer {
	cust := inv.Customer
	out := wireCustomer{
		Email:     cust.Email,
		Telephone: cust.Phone,
		FullName:  cust.FullName,
		VatNumber: cust.VatNumber,
	}
	if cust.Company != "" {
		out.CompanyName = cust.Company
	}
	if addr := cust.InvoiceAddress; addr != nil {
		out.Address1 = addr.Address1
		out.Address2 = addr.Address2
		out.PostalCode = addr.PostalCode
		out.City = addr.City
		out.CountryCode = addr.Country
	}
	if addr := cust.ShippingAddress; addr != nil && !sameAddress(addr, cust.InvoiceAddress) {
		out.AltAddress1 = addr.Address1
		out.AltAddress2 = addr.Address2
		out.AltPostalCode = addr.PostalCode
		out.AltCity = addr.City
		out.AltCountryCode = addr.Country
	}

	concept := 0
	if inv.Concept {
		concept = 1
	}
	out.Invoice = wireInvoice{
		Concept:       concept,
		Number:        inv.Reference,
		IssueDate:     inv.IssueDate.Format("2006-01-02"),
		Description:   inv.Description,
		PaymentStatus: int(inv.PaymentStatus),
		Lines:         toWireLines(inv.Lines),
	}
	return out
}

// sameAddress reports whether the collector's invoice-address fallback
// produced a shipping address identical to the invoice address; sending
// that duplicate as an alt address would clutter the remote entry.
func sameAddress(a, b *invoicedomain.Address) bool {
	return b != nil && *a == *b
}

func toWireLines(lines []*invoicedomain.Line) []wireLine {
	out := make([]wireLine, 0, len(lines))
	for _, l := range lines {
		wl := wireLine{
			Product:   l.Description,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			ItemNum:   l.SKU,
		}
		if l.VatRate != nil {
			wl.VatRate = *l.VatRate * 100
		}
		if l.VatAmount != nil {
			wl.VatAmount = *l.VatAmount
		}
		out = append(out, wl)
	}
	return out
}

func collectMessages(result *invoicedomain.InvoiceAddResult, resp *apiResponse) {
	for _, m := range resp.Errors.Messages {
		result.AddMessage(invoicedomain.SeverityError, m.Code, m.Message, m.CodeTag)
	}
	for _, m := range resp.Warnings.WarningMessages {
		result.AddMessage(invoicedomain.SeverityWarning, m.Code, m.Message, m.CodeTag)
	}
	// Trust the remote status over our derivation when they disagree.
	switch resp.Status {
	case statusErrors, statusErrorsAndWarn:
		if result.Status < invoicedomain.SendStatusErrors {
			result.Status = invoicedomain.SendStatusErrors
		}
	case statusWarnings:
		if result.Status == invoicedomain.SendStatusSuccess {
			result.Status = invoicedomain.SendStatusWarnings
		}
	}
}
