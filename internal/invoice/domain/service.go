package domain

import (
	"context"

	"github.com/siel/acumulus-sync/internal/source"
)

// Service orchestrates the send pipeline for a source.
type Service interface {
	// HandleSourceStatusChange reacts to a shop status change. It is
	// idempotent: a source with an accepted entry is not sent again.
	HandleSourceStatusChange(ctx context.Context, typ source.Type, id int64, shopStatus string) (*InvoiceAddResult, error)
	// Send runs the full pipeline for a source. With forced set, an
	// existing accepted entry is resent and updated in place.
	Send(ctx context.Context, typ source.Type, id int64, forced bool) (*InvoiceAddResult, error)
	// InvoicePDFURI returns the remote pdf location for an accepted entry.
	InvoicePDFURI(ctx context.Context, typ source.Type, id int64) (string, error)
	// PackingSlipPDFURI returns the remote packing slip location.
	PackingSlipPDFURI(ctx context.Context, typ source.Type, id int64) (string, error)
}
