package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/siel/acumulus-sync/internal/invoice/domain"
	"github.com/siel/acumulus-sync/internal/source"
)

// Service manages the source-to-entry mapping.
type Service interface {
	GetByInvoiceSource(ctx context.Context, src *source.Source) (*AcumulusEntry, error)
	GetBySource(ctx context.Context, typ source.Type, id int64) (*AcumulusEntry, error)
	GetByEntryID(ctx context.Context, entryID int64) (*AcumulusEntry, error)
	// SaveResult upserts the entry for a source from a successful send
	// result: a concept id for drafts, entry id plus token once accepted
	// (which clears any previous concept id).
	SaveResult(ctx context.Context, src *source.Source, result *invoicedomain.InvoiceAddResult) (*AcumulusEntry, error)
	Delete(ctx context.Context, entry *AcumulusEntry) error
	DeleteForSource(ctx context.Context, typ source.Type, id int64) error
}

var (
	ErrNothingToSave = errors.New("nothing_to_save")
	ErrEntryNotFound = errors.New("entry_not_found")
)
