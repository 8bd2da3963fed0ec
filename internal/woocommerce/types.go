// Package woocommerce resolves shop sources from a WooCommerce
// installation over the REST API (wc/v3). All WooCommerce-specific types
// and transforms live here; nothing outside this package knows it is
// talking to WooCommerce.
package woocommerce

// Order is a WooCommerce order as returned by GET /wc/v3/orders/{id}.
// Monetary fields are string decimals ("99.00") on the wire.
type Order struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	Status      string `json:"status"`
	Currency    string `json:"currency"`
	DateCreated string `json:"date_created"`
	DatePaid    string `json:"date_paid"`

	// Total includes tax; TotalTax is the tax portion.
	Total        string `json:"total"`
	TotalTax     string `json:"total_tax"`
	PricesIncl   bool   `json:"prices_include_tax"`
	CustomerID   int64  `json:"customer_id"`
	CustomerNote string `json:"customer_note"`

	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`

	LineItems     []LineItem     `json:"line_items"`
	ShippingLines []ShippingLine `json:"shipping_lines"`
	FeeLines      []FeeLine      `json:"fee_lines"`
	CouponLines   []CouponLine   `json:"coupon_lines"`
}

// Refund is GET /wc/v3/refunds/{id}; ParentID points at the refunded order.
type Refund struct {
	ID          int64      `json:"id"`
	ParentID    int64      `json:"parent_id"`
	DateCreated string     `json:"date_created"`
	Amount      string     `json:"amount"`
	Reason      string     `json:"reason"`
	LineItems   []LineItem `json:"line_items"`

	ShippingLines []ShippingLine `json:"shipping_lines"`
	FeeLines      []FeeLine      `json:"fee_lines"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// LineItem is one product row. On refunds quantity and the amounts are
// negative.
type LineItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ProductID   int64   `json:"product_id"`
	VariationID int64   `json:"variation_id"`
	SKU         string  `json:"sku"`
	Quantity    float64 `json:"quantity"`
	// Subtotal is the pre-discount line total excluding tax.
	Subtotal    string `json:"subtotal"`
	SubtotalTax string `json:"subtotal_tax"`
	// Total is the post-discount line total excluding tax.
	Total    string  `json:"total"`
	TotalTax string  `json:"total_tax"`
	Price    float64 `json:"price"`
}

type ShippingLine struct {
	ID          int64  `json:"id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
	TotalTax    string `json:"total_tax"`
}

type FeeLine struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Total    string `json:"total"`
	TotalTax string `json:"total_tax"`
}

type CouponLine struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Discount    string `json:"discount"`
	DiscountTax string `json:"discount_tax"`
}

// apiIndex is the REST index at /wp-json/, used to probe capabilities.
type apiIndex struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	Namespaces []string `json:"namespaces"`
}

// apiError is the wp-json error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
