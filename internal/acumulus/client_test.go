package acumulus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/siel/acumulus-sync/internal/config"
	invoicedomain "github.com/siel/acumulus-sync/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) Client {
	return NewClient(ClientParam{
		Log: zap.NewNop(),
		Config: config.Config{
			AppName:    "acumulus-sync",
			AppVersion: "0.1.0",
			Acumulus: config.AcumulusConfig{
				BaseURL:      baseURL,
				ContractCode: "123456",
				UserName:     "apiuser",
				Password:     "secret",
			},
		},
	})
}

func rate(v float64) *float64 { return &v }

func sampleInvoice() *invoicedomain.Invoice {
	vat := 2.10
	return &invoicedomain.Invoice{
		Customer: invoicedomain.Customer{
			Email:    "buyer@example.com",
			FullName: "Jane Buyer",
			InvoiceAddress: &invoicedomain.Address{
				Address1: "Main Street 1", PostalCode: "1234 AB", City: "Amsterdam", Country: "NL",
			},
		},
		Reference:     "1001",
		IssueDate:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		PaymentStatus: invoicedomain.PaymentStatusPaid,
		Lines: []*invoicedomain.Line{
			{
				Type: invoicedomain.LineTypeProduct, Description: "Widget", SKU: "WDG-1",
				Quantity: 1, UnitPrice: 10, VatRate: rate(0.21), VatAmount: &vat,
			},
		},
	}
}

func TestAddInvoice_Accepted(t *testing.T) {
	var captured invoiceAddRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/invoice_add.php", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 0,
			"invoice": map[string]any{
				"entryid": "42",
				"token":   "T-token",
			},
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).AddInvoice(context.Background(), sampleInvoice())
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.SendStatusSuccess, result.Status)
	require.True(t, result.Accepted())
	assert.Equal(t, int64(42), *result.EntryID)
	assert.Equal(t, "T-token", *result.Token)

	// Contract envelope and wire conversion.
	assert.Equal(t, "123456", captured.Contract.ContractCode)
	assert.Equal(t, "json", captured.Format)
	assert.Equal(t, "2026-03-14", captured.Customer.Invoice.IssueDate)
	assert.Equal(t, 2, captured.Customer.Invoice.PaymentStatus)
	require.Len(t, captured.Customer.Invoice.Lines, 1)
	// Rates travel as percentages.
	assert.InDelta(t, 21.0, captured.Customer.Invoice.Lines[0].VatRate, 0.0001)
}

func TestAddInvoice_ShippingAddressTravelsAsAltAddress(t *testing.T) {
	var captured invoiceAddRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 0})
	}))
	defer server.Close()

	inv := sampleInvoice()
	inv.Customer.ShippingAddress = &invoicedomain.Address{
		Address1: "Warehouse Road 9", PostalCode: "5678 CD", City: "Utrecht", Country: "NL",
	}

	_, err := newTestClient(server.URL).AddInvoice(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, "Main Street 1", captured.Customer.Address1)
	assert.Equal(t, "Warehouse Road 9", captured.Customer.AltAddress1)
	assert.Equal(t, "5678 CD", captured.Customer.AltPostalCode)
	assert.Equal(t, "Utrecht", captured.Customer.AltCity)
	assert.Equal(t, "NL", captured.Customer.AltCountryCode)
}

func TestAddInvoice_DuplicateShippingAddressStaysOffTheWire(t *testing.T) {
	var captured invoiceAddRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 0})
	}))
	defer server.Close()

	// The collector copies the invoice address when the shop has no
	// shipping address; that copy must not become an alt address.
	inv := sampleInvoice()
	copied := *inv.Customer.InvoiceAddress
	inv.Customer.ShippingAddress = &copied

	_, err := newTestClient(server.URL).AddInvoice(context.Background(), inv)
	require.NoError(t, err)

	assert.Empty(t, captured.Customer.AltAddress1)
	assert.Empty(t, captured.Customer.AltCity)
}

func TestAddInvoice_ConceptResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  0,
			"invoice": map[string]any{"conceptid": "5"},
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).AddInvoice(context.Background(), sampleInvoice())
	require.NoError(t, err)

	require.NotNil(t, result.ConceptID)
	assert.Equal(t, int64(5), *result.ConceptID)
	assert.False(t, result.Accepted())
}

func TestAddInvoice_RemoteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 1,
			"errors": map[string]any{
				"count_errors": 1,
				"error": []map[string]any{
					{"code": "403", "codetag": "AA6A5KZ", "message": "Invalid vat number"},
				},
			},
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).AddInvoice(context.Background(), sampleInvoice())
	require.NoError(t, err, "remote validation errors are a result, not a transport error")

	assert.Equal(t, invoicedomain.SendStatusErrors, result.Status)
	assert.True(t, result.HasError())
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "403", result.Messages[0].Code)
	assert.False(t, result.Accepted())
}

func TestAddInvoice_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).AddInvoice(context.Background(), sampleInvoice())
	assert.Error(t, err)
}

func TestAddInvoice_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).AddInvoice(context.Background(), sampleInvoice())
	assert.Error(t, err)
}

func TestPDFURIs(t *testing.T) {
	client := newTestClient("https://api.sielsystems.nl/acumulus/stable")

	assert.Equal(t,
		"https://api.sielsystems.nl/acumulus/stable/invoices/invoice_get_pdf.php?token=T-token",
		client.InvoicePDFURI("T-token"))
	assert.Equal(t,
		"https://api.sielsystems.nl/acumulus/stable/delivery/packing_slip_get_pdf.php?token=T-token",
		client.PackingSlipPDFURI("T-token"))
}

func TestUpdateStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/stock_add.php", r.URL.Path)
		var req stockAddRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(77), req.Stock.ProductID)
		assert.InDelta(t, -2.0, req.Stock.StockAmount, 0.0001)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 0,
			"stock":  map[string]any{"productid": "77", "stockamount": "8"},
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).UpdateStock(context.Background(), 77, -2, "order 1001")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.InDelta(t, 8.0, result.StockAmount, 0.0001)
}
