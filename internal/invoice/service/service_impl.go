package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/siel/acumulus-sync/internal/acumulus"
	"github.com/siel/acumulus-sync/internal/config"
	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	"github.com/siel/acumulus-sync/internal/invoice/collector"
	"github.com/siel/acumulus-sync/internal/invoice/completor"
	invoicedomain "github.com/siel/acumulus-sync/internal/invoice/domain"
	"github.com/siel/acumulus-sync/internal/providers/email"
	"github.com/siel/acumulus-sync/internal/source"
	"github.com/siel/acumulus-sync/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Settings  *config.InvoiceSettingsHolder
	Adapter   source.Adapter
	Collector *collector.Collector
	Completor *completor.Completor
	Client    acumulus.Client
	Entries   entrydomain.Service
	Mailer    email.Provider
	Metrics   *telemetry.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	adminEmail string
	settings   *config.InvoiceSettingsHolder
	adapter    source.Adapter
	collector  *collector.Collector
	completor  *completor.Completor
	client     acumulus.Client
	entries    entrydomain.Service
	mailer     email.Provider
	metrics    *telemetry.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:        p.Log.Named("invoice.service"),
		adminEmail: p.Config.AdminEmail,
		settings:   p.Settings,
		adapter:    p.Adapter,
		collector:  p.Collector,
		completor:  p.Completor,
		client:     p.Client,
		entries:    p.Entries,
		mailer:     p.Mailer,
		metrics:    p.Metrics,
	}
}

// HandleSourceStatusChange decides whether a status change makes the
// source invoiceable and sends it if so. Credit notes skip the trigger
// check: the refund existing is the trigger.
func (s *Service) HandleSourceStatusChange(ctx context.Context, typ source.Type, id int64, shopStatus string) (*invoicedomain.InvoiceAddResult, error) {
	if typ == source.TypeOrder && !s.isTriggerStatus(shopStatus) {
		result := invoicedomain.NewInvoiceAddResult()
		result.AddMessage(invoicedomain.SeverityInfo, "status_not_triggering",
			fmt.Sprintf("status %q does not trigger invoice sending", shopStatus), "")
		s.log.Debug("status change ignored",
			zap.Int64("source_id", id),
			zap.String("shop_status", shopStatus),
		)
		return result, nil
	}
	return s.Send(ctx, typ, id, false)
}

// Send runs collect, complete, send and persist for one source.
//
// Remote failures do not surface as errors: the result records them, the
// administrator is mailed once, and no entry is written so the next
// status change retries naturally. The error return is reserved for
// local problems (unknown source, storage).
func (s *Service) Send(ctx context.Context, typ source.Type, id int64, forced bool) (*invoicedomain.InvoiceAddResult, error) {
	src, err := s.adapter.GetSource(ctx, typ, id)
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.GetByInvoiceSource(ctx, src)
	if err != nil {
		return nil, err
	}
	if entry != nil && entry.IsAccepted() && !forced {
		result := invoicedomain.NewInvoiceAddResult()
		result.AddMessage(invoicedomain.SeverityInfo, "already_sent",
			"source already has an accepted entry", "")
		s.log.Info("send skipped, already accepted",
			zap.String("source_type", string(typ)),
			zap.Int64("source_id", id),
		)
		return result, nil
	}

	settings := s.settings.Get()
	result := invoicedomain.NewInvoiceAddResult()

	inv := s.collector.Collect(src)
	inv.Concept = settings.Concept
	if err := s.completor.Complete(inv, result); err != nil {
		return nil, err
	}

	started := time.Now()
	sent, err := s.client.AddInvoice(ctx, inv)
	if err != nil {
		s.metrics.ObserveInvoiceSend(string(typ), "transport_error", src.TotalAmount, time.Since(started))
		result.AddMessage(invoicedomain.SeverityException, "send_failed", err.Error(), "")
		s.reportFailure(ctx, src, result)
		return result, nil
	}
	mergeResult(result, sent)
	s.metrics.ObserveInvoiceSend(string(typ), result.Status.String(), src.TotalAmount, time.Since(started))

	if result.HasError() {
		s.reportFailure(ctx, src, result)
		return result, nil
	}

	if _, err := s.entries.SaveResult(ctx, src, result); err != nil {
		if errors.Is(err, entrydomain.ErrNothingToSave) {
			s.log.Warn("accepted response carried no entry ids",
				zap.String("source_type", string(typ)),
				zap.Int64("source_id", id),
			)
			return result, nil
		}
		return nil, err
	}

	s.log.Info("invoice sent",
		zap.String("source_type", string(typ)),
		zap.Int64("source_id", id),
		zap.String("status", result.Status.String()),
		zap.Bool("forced", forced),
	)
	return result, nil
}

func (s *Service) InvoicePDFURI(ctx context.Context, typ source.Type, id int64) (string, error) {
	token, err := s.tokenFor(ctx, typ, id)
	if err != nil {
		return "", err
	}
	return s.client.InvoicePDFURI(token), nil
}

func (s *Service) PackingSlipPDFURI(ctx context.Context, typ source.Type, id int64) (string, error) {
	token, err := s.tokenFor(ctx, typ, id)
	if err != nil {
		return "", err
	}
	return s.client.PackingSlipPDFURI(token), nil
}

func (s *Service) tokenFor(ctx context.Context, typ source.Type, id int64) (string, error) {
	entry, err := s.entries.GetBySource(ctx, typ, id)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", entrydomain.ErrEntryNotFound
	}
	if entry.Token == nil {
		return "", invoicedomain.ErrNoToken
	}
	return *entry.Token, nil
}

func (s *Service) isTriggerStatus(shopStatus string) bool {
	for _, status := range s.settings.Get().TriggerStatuses {
		if status == shopStatus {
			return true
		}
	}
	return false
}

// reportFailure mails the administrator once per failed send attempt.
func (s *Service) reportFailure(ctx context.Context, src *source.Source, result *invoicedomain.InvoiceAddResult) {
	s.log.Error("invoice send failed",
		zap.String("source_type", string(src.Type)),
		zap.Int64("source_id", src.ID),
		zap.String("status", result.Status.String()),
	)
	if s.adminEmail == "" {
		return
	}

	report := email.FailureReport{
		SourceType: string(src.Type),
		SourceID:   src.ID,
		Reference:  src.ReferenceID,
		Status:     result.Status.String(),
	}
	for _, m := range result.Messages {
		report.Messages = append(report.Messages, email.FailureMessage{
			Severity: m.Severity.String(),
			Code:     m.Code,
			Text:     m.Text,
		})
	}
	if err := s.mailer.SendSyncFailure(ctx, []string{s.adminEmail}, report); err != nil {
		s.log.Warn("failure mail not sent", zap.Error(err))
	}
}

// mergeResult folds the remote outcome into the local result, which may
// already carry completion warnings.
func mergeResult(local *invoicedomain.InvoiceAddResult, remote *invoicedomain.InvoiceAddResult) {
	for _, m := range remote.Messages {
		local.AddMessage(m.Severity, m.Code, m.Text, m.Field)
	}
	if remote.Status > local.Status || local.Status == invoicedomain.SendStatusNotSent {
		local.Status = remote.Status
	}
	local.ConceptID = remote.ConceptID
	local.EntryID = remote.EntryID
	local.Token = remote.Token
}
