package domain

import "errors"

var (
	ErrNilInvoice      = errors.New("nil_invoice")
	ErrMissingCustomer = errors.New("missing_customer")
	ErrNoToken         = errors.New("no_token")
)
