package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg  Config
	tmpl *template.Template
}

var failureTemplate = template.Must(template.New("sync_failure").Parse(`<html><body>
<p>Sending {{.SourceType}} {{.SourceID}} ({{.Reference}}) to Acumulus failed with status <b>{{.Status}}</b>.</p>
<p>The invoice was not registered. Messages from the web service:</p>
<ul>
{{range .Messages}}<li>[{{.Severity}}] {{.Code}}: {{.Text}}</li>
{{end}}</ul>
<p>Correct the underlying problem and resend the invoice from the status overview.</p>
</body></html>`))

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, tmpl: failureTemplate}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to[0], subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, p.cfg.From, to, msg)
}

func (p *SMTPProvider) SendSyncFailure(ctx context.Context, to []string, report FailureReport) error {
	var body bytes.Buffer
	if err := p.tmpl.Execute(&body, report); err != nil {
		return fmt.Errorf("render failure report: %w", err)
	}

	subject := fmt.Sprintf("Acumulus sync failed for %s %d", report.SourceType, report.SourceID)
	return p.Send(ctx, to, subject, body.String())
}
