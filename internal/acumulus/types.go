// Package acumulus implements the client for the Acumulus web service.
// Requests are JSON over HTTPS; every call carries the contract envelope.
package acumulus

// contract identifies the Acumulus account on every request.
type contract struct {
	ContractCode string `json:"contractcode"`
	UserName     string `json:"username"`
	Password     string `json:"password"`
	EmailOnError string `json:"emailonerror,omitempty"`
}

// connector identifies this integration to the remote service.
type connector struct {
	Application string `json:"application"`
	WebKoppel   string `json:"webkoppel"`
	Development string `json:"development"`
	Remark      string `json:"remark,omitempty"`
	SourceURI   string `json:"sourceuri,omitempty"`
}

type envelope struct {
	Contract  contract  `json:"contract"`
	Format    string    `json:"format"`
	TestMode  int       `json:"testmode"`
	Connector connector `json:"connector"`
}

// invoiceAddRequest is the payload for invoices/invoice_add.
type invoiceAddRequest struct {
	envelope
	Customer wireCustomer `json:"customer"`
}

type wireCustomer struct {
	Email       string  `json:"email,omitempty"`
	Telephone   string  `json:"telephone,omitempty"`
	CompanyName string  `json:"companyname1,omitempty"`
	FullName    string  `json:"fullname,omitempty"`
	VatNumber   string  `json:"vatnumber,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	PostalCode  string `json:"postalcode,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"countrycode,omitempty"`

	// Alt fields carry the shipping address when it differs from the
	// invoice address.
	AltAddress1    string `json:"altaddress1,omitempty"`
	AltAddress2    string `json:"altaddress2,omitempty"`
	AltPostalCode  string `json:"altpostalcode,omitempty"`
	AltCity        string `json:"altcity,omitempty"`
	AltCountryCode string `json:"altcountrycode,omitempty"`

	Invoice wireInvoice `json:"invoice"`
}

type wireInvoice struct {
	Concept       int        `json:"concept"`
	Number        string     `json:"number,omitempty"`
	IssueDate     string     `json:"issuedate"`
	Description   string     `json:"description,omitempty"`
	PaymentStatus int        `json:"paymentstatus"`
	Lines         []wireLine `json:"line"`
}

type wireLine struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	// UnitPrice is the unit price excluding vat.
	UnitPrice float64 `json:"unitprice"`
	// VatRate is a percentage on the wire (21 for 21%).
	VatRate   float64 `json:"vatrate"`
	VatAmount float64 `json:"vatamount"`
	ItemNum   string  `json:"itemnumber,omitempty"`
}

// stockAddRequest is the payload for products/stock_add.
type stockAddRequest struct {
	envelope
	Stock wireStock `json:"stock"`
}

type wireStock struct {
	ProductID   int64   `json:"productid"`
	StockAmount float64 `json:"stockamount"`
	Description string  `json:"stockdescription,omitempty"`
}

// apiResponse is the common response envelope.
type apiResponse struct {
	Status   int          `json:"status"`
	Errors   wireMessages `json:"errors"`
	Warnings wireMessages `json:"warnings"`

	Invoice *wireInvoiceResult `json:"invoice,omitempty"`
	Stock   *wireStockResult   `json:"stock,omitempty"`
}

type wireMessages struct {
	Count    int           `json:"count_errors,omitempty"`
	Messages []wireMessage `json:"error,omitempty"`

	CountWarnings   int           `json:"count_warnings,omitempty"`
	WarningMessages []wireMessage `json:"warning,omitempty"`
}

type wireMessage struct {
	Code    string `json:"code"`
	CodeTag string `json:"codetag"`
	Message string `json:"message"`
}

type wireInvoiceResult struct {
	ConceptID     *int64 `json:"conceptid,string,omitempty"`
	EntryID       *int64 `json:"entryid,string,omitempty"`
	Token         string `json:"token,omitempty"`
	InvoiceNumber string `json:"invoicenumber,omitempty"`
}

type wireStockResult struct {
	ProductID   int64   `json:"productid,string"`
	StockAmount float64 `json:"stockamount,string"`
}

// StockResult is the outcome of one stock mutation call.
type StockResult struct {
	Status      int
	StockAmount float64
	Errors      []string
}

// remote status codes in the response envelope.
const (
	statusSuccess       = 0
	statusErrors        = 1
	statusWarnings      = 2
	statusErrorsAndWarn = 3
)
