package woocommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siel/acumulus-sync/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleOrder() *Order {
	return &Order{
		ID:          1001,
		Number:      "1001",
		Status:      "processing",
		Currency:    "EUR",
		DateCreated: "2026-03-14T10:00:00",
		DatePaid:    "2026-03-14T10:05:00",
		Total:       "126.05",
		TotalTax:    "21.10",
		Billing: Address{
			FirstName: "Jane", LastName: "Buyer",
			Address1: "Main Street 1", Postcode: "1234 AB", City: "Amsterdam", Country: "NL",
			Email: "buyer@example.com",
		},
		LineItems: []LineItem{
			{
				ID: 1, Name: "Widget", ProductID: 77, SKU: "WDG-1",
				Quantity: 2, Subtotal: "100.00", SubtotalTax: "21.00",
				Total: "100.00", TotalTax: "21.00",
			},
		},
		ShippingLines: []ShippingLine{
			{ID: 9, MethodTitle: "Standard shipping", Total: "4.95", TotalTax: "0.00"},
		},
		CouponLines: []CouponLine{
			{ID: 3, Code: "SPRING", Discount: "10.00", DiscountTax: "2.10"},
		},
	}
}

func TestOrderToSource(t *testing.T) {
	src := orderToSource(sampleOrder())

	assert.Equal(t, source.TypeOrder, src.Type)
	assert.Equal(t, int64(1001), src.ID)
	assert.Equal(t, "1001", src.ReferenceID)
	assert.Equal(t, source.PaymentPaid, src.PaymentStatus)
	assert.Equal(t, "processing", src.ShopStatus)
	assert.InDelta(t, 126.05, src.TotalAmount, 0.001)
	assert.Equal(t, 2026, src.DateOfSale.Year())

	require.Len(t, src.Items, 1)
	item := src.Items[0]
	assert.Equal(t, int64(77), item.ProductID)
	assert.Equal(t, 2.0, item.Quantity)
	assert.InDelta(t, 50.0, item.UnitPriceEx, 0.0001)
	assert.InDelta(t, 10.5, item.VatAmount, 0.0001)
	require.NotNil(t, item.VatRate)
	assert.InDelta(t, 0.21, *item.VatRate, 0.0001)

	require.Len(t, src.ShippingLines, 1)
	shipping := src.ShippingLines[0]
	assert.InDelta(t, 4.95, shipping.AmountEx, 0.0001)
	require.NotNil(t, shipping.VatRate)
	assert.Equal(t, 0.0, *shipping.VatRate)

	// Coupons come out negative with the vat left unresolved.
	require.Len(t, src.DiscountLines, 1)
	discount := src.DiscountLines[0]
	assert.Equal(t, "Discount SPRING", discount.Description)
	assert.InDelta(t, -10.0, discount.AmountEx, 0.0001)
	assert.InDelta(t, -2.10, discount.VatAmount, 0.0001)
	assert.Nil(t, discount.VatRate)
}

func TestOrderToSource_UnpaidOrder(t *testing.T) {
	order := sampleOrder()
	order.DatePaid = ""

	src := orderToSource(order)
	assert.Equal(t, source.PaymentDue, src.PaymentStatus)
}

func TestRefundToSource(t *testing.T) {
	refund := &Refund{
		ID:          55,
		ParentID:    1001,
		DateCreated: "2026-03-20T09:00:00",
		Amount:      "60.50",
		LineItems: []LineItem{
			{
				ID: 12, Name: "Widget", ProductID: 77, SKU: "WDG-1",
				Quantity: -1, Total: "-50.00", TotalTax: "-10.50",
			},
		},
	}

	src := refundToSource(refund, sampleOrder())

	assert.Equal(t, source.TypeCreditNote, src.Type)
	assert.Equal(t, int64(55), src.ID)
	assert.Equal(t, "1001-R55", src.ReferenceID)
	assert.Equal(t, int64(1001), src.Order)
	assert.Equal(t, source.PaymentPaid, src.PaymentStatus)
	assert.InDelta(t, -60.50, src.TotalAmount, 0.001)
	assert.InDelta(t, -10.50, src.TotalVat, 0.001)
	assert.Equal(t, "buyer@example.com", src.Customer.Email)

	// Positive refunded quantity, negative amounts.
	require.Len(t, src.Items, 1)
	item := src.Items[0]
	assert.Equal(t, 1.0, item.Quantity)
	assert.InDelta(t, -50.0, item.UnitPriceEx, 0.0001)
	assert.InDelta(t, -10.5, item.VatAmount, 0.0001)
	require.NotNil(t, item.VatRate)
	assert.InDelta(t, 0.21, *item.VatRate, 0.0001)
}

func TestProductIDPrefersVariation(t *testing.T) {
	li := &LineItem{ProductID: 77, VariationID: 78}
	assert.Equal(t, int64(78), productID(li))

	li.VariationID = 0
	assert.Equal(t, int64(77), productID(li))
}

func TestClient_GetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders/1001", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)
		_ = json.NewEncoder(w).Encode(sampleOrder())
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "ck_test", "cs_test")
	order, err := client.GetOrder(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), order.ID)
	assert.Equal(t, "1001", order.Number)
}

func TestClient_GetOrder_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(apiError{Code: "woocommerce_rest_shop_order_invalid_id", Message: "Invalid ID."})
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "ck", "cs")
	_, err := client.GetOrder(context.Background(), 9999)
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
}

func TestClient_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(apiIndex{
			Name:       "Test Shop",
			Namespaces: []string{"wp/v2", "wc/v3", "wc/store/v1"},
		})
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "ck", "cs")
	assert.NoError(t, client.Probe(context.Background()))
}

func TestClient_ProbeMissingNamespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(apiIndex{Name: "Bare WP", Namespaces: []string{"wp/v2"}})
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "ck", "cs")
	assert.Error(t, client.Probe(context.Background()))
}
