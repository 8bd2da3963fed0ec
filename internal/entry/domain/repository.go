package domain

import (
	"context"

	"github.com/siel/acumulus-sync/internal/source"
)

// Repository persists acumulus entries. Upsert must be a single atomic
// statement keyed on (source_type, source_id): two overlapping sends for
// the same source may race, and the unique constraint plus
// update-on-conflict is what keeps the table at one row per source.
type Repository interface {
	GetBySource(ctx context.Context, typ source.Type, id int64) (*AcumulusEntry, error)
	GetByEntryID(ctx context.Context, entryID int64) (*AcumulusEntry, error)
	Upsert(ctx context.Context, entry *AcumulusEntry) error
	Delete(ctx context.Context, entry *AcumulusEntry) error
}
