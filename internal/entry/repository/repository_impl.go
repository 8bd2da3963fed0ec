package repository

import (
	"context"

	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	"github.com/siel/acumulus-sync/internal/source"
	"github.com/siel/acumulus-sync/pkg/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RepositoryParam struct {
	fx.In

	DB *gorm.DB
}

type repo struct {
	db    *gorm.DB
	store repository.Repository[entrydomain.AcumulusEntry]
}

func NewRepository(p RepositoryParam) entrydomain.Repository {
	return &repo{
		db:    p.DB,
		store: repository.ProvideStore[entrydomain.AcumulusEntry](p.DB),
	}
}

func (r *repo) GetBySource(ctx context.Context, typ source.Type, id int64) (*entrydomain.AcumulusEntry, error) {
	return r.store.FindOne(ctx, &entrydomain.AcumulusEntry{
		SourceType: string(typ),
		SourceID:   id,
	})
}

func (r *repo) GetByEntryID(ctx context.Context, entryID int64) (*entrydomain.AcumulusEntry, error) {
	return r.store.FindOne(ctx, &entrydomain.AcumulusEntry{EntryID: &entryID})
}

// Upsert writes the entry in one statement, rendered as the dialect's
// native upsert (ON CONFLICT on postgres/sqlite, ON DUPLICATE KEY UPDATE
// on mysql). The conflict target is the unique (source_type, source_id)
// index, so two racing sends for the same source collapse into one row;
// created_at survives a conflict because it is not in the update set.
func (r *repo) Upsert(ctx context.Context, entry *entrydomain.AcumulusEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_type"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"concept_id", "entry_id", "token", "last_status", "last_messages", "updated_at",
		}),
	}).Create(entry).Error
}

func (r *repo) Delete(ctx context.Context, entry *entrydomain.AcumulusEntry) error {
	return r.store.Delete(ctx, entry.ID.String())
}
