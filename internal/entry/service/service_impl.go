package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/siel/acumulus-sync/internal/clock"
	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	invoicedomain "github.com/siel/acumulus-sync/internal/invoice/domain"
	"github.com/siel/acumulus-sync/internal/source"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  entrydomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  entrydomain.Repository
}

func NewService(p ServiceParam) entrydomain.Service {
	return &Service{
		log:   p.Log.Named("entry.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) GetByInvoiceSource(ctx context.Context, src *source.Source) (*entrydomain.AcumulusEntry, error) {
	return s.repo.GetBySource(ctx, src.Type, src.ID)
}

func (s *Service) GetBySource(ctx context.Context, typ source.Type, id int64) (*entrydomain.AcumulusEntry, error) {
	return s.repo.GetBySource(ctx, typ, id)
}

func (s *Service) GetByEntryID(ctx context.Context, entryID int64) (*entrydomain.AcumulusEntry, error) {
	return s.repo.GetByEntryID(ctx, entryID)
}

func (s *Service) SaveResult(ctx context.Context, src *source.Source, result *invoicedomain.InvoiceAddResult) (*entrydomain.AcumulusEntry, error) {
	now := s.clock.Now()
	entry := &entrydomain.AcumulusEntry{
		ID:           s.genID.Generate(),
		SourceType:   string(src.Type),
		SourceID:     src.ID,
		LastStatus:   result.Status.String(),
		LastMessages: messagesMap(result.Messages),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch {
	case result.Accepted():
		entry.EntryID = result.EntryID
		entry.Token = result.Token
	case result.ConceptID != nil:
		entry.ConceptID = result.ConceptID
	default:
		return nil, entrydomain.ErrNothingToSave
	}

	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	// Reload so the caller sees the surviving row: on a resend the id and
	// created_at of the first insert are kept.
	saved, err := s.repo.GetBySource(ctx, src.Type, src.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("acumulus entry saved",
		zap.String("source_type", string(src.Type)),
		zap.Int64("source_id", src.ID),
		zap.String("status", result.Status.String()),
	)
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, entry *entrydomain.AcumulusEntry) error {
	return s.repo.Delete(ctx, entry)
}

func (s *Service) DeleteForSource(ctx context.Context, typ source.Type, id int64) error {
	entry, err := s.repo.GetBySource(ctx, typ, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return entrydomain.ErrEntryNotFound
	}
	return s.repo.Delete(ctx, entry)
}

func messagesMap(messages []invoicedomain.Message) datatypes.JSONMap {
	list := make([]any, 0, len(messages))
	for _, m := range messages {
		list = append(list, map[string]any{
			"severity": m.Severity.String(),
			"code":     m.Code,
			"text":     m.Text,
		})
	}
	return datatypes.JSONMap{"messages": list}
}
