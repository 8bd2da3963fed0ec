// Package email sends administrator notifications for failed syncs.
package email

import "context"

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	// SendSyncFailure renders and sends the failure report for one source.
	SendSyncFailure(ctx context.Context, to []string, report FailureReport) error
}

// FailureReport carries everything the admin needs to retry by hand.
type FailureReport struct {
	SourceType string
	SourceID   int64
	Reference  string
	Status     string
	Messages   []FailureMessage
}

type FailureMessage struct {
	Severity string
	Code     string
	Text     string
}

// NoOpProvider drops every mail. Used when no admin address is configured
// and in tests.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (p *NoOpProvider) SendSyncFailure(ctx context.Context, to []string, report FailureReport) error {
	return nil
}
