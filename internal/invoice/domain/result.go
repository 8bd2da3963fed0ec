package domain

// Severity classifies a message attached to a send result.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityError
	SeverityException
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityException:
		return "exception"
	default:
		return "unknown"
	}
}

// SendStatus is the overall outcome of one send attempt.
type SendStatus int

const (
	SendStatusNotSent SendStatus = iota
	SendStatusSuccess
	SendStatusWarnings
	SendStatusErrors
	SendStatusException
)

func (s SendStatus) String() string {
	switch s {
	case SendStatusNotSent:
		return "not_sent"
	case SendStatusSuccess:
		return "success"
	case SendStatusWarnings:
		return "sent_with_warnings"
	case SendStatusErrors:
		return "errors"
	case SendStatusException:
		return "exception"
	default:
		return "unknown"
	}
}

// Message is one diagnostic attached to a result.
type Message struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Text     string   `json:"text"`
	Field    string   `json:"field,omitempty"`
}

// InvoiceAddResult is the transient outcome of one send attempt. It is
// never persisted as-is; the entry manager stores a summary of it.
type InvoiceAddResult struct {
	Status   SendStatus
	Messages []Message

	ConceptID *int64
	EntryID   *int64
	Token     *string
}

// NewInvoiceAddResult returns an empty result in the not-sent state.
func NewInvoiceAddResult() *InvoiceAddResult {
	return &InvoiceAddResult{Status: SendStatusNotSent}
}

// AddMessage appends a message and raises the overall status when the
// severity calls for it.
func (r *InvoiceAddResult) AddMessage(severity Severity, code, text, field string) {
	r.Messages = append(r.Messages, Message{Severity: severity, Code: code, Text: text, Field: field})
	switch severity {
	case SeverityWarning:
		if r.Status == SendStatusSuccess || r.Status == SendStatusNotSent {
			r.Status = SendStatusWarnings
		}
	case SeverityError:
		if r.Status < SendStatusErrors {
			r.Status = SendStatusErrors
		}
	case SeverityException:
		r.Status = SendStatusException
	}
}

// AddWarning appends a warning message.
func (r *InvoiceAddResult) AddWarning(code, text string) {
	r.AddMessage(SeverityWarning, code, text, "")
}

// HasError reports whether the result carries error or exception messages.
func (r *InvoiceAddResult) HasError() bool {
	return r.Status == SendStatusErrors || r.Status == SendStatusException
}

// Accepted reports whether the remote system accepted a final entry.
func (r *InvoiceAddResult) Accepted() bool {
	return r.EntryID != nil && r.Token != nil
}

// Warnings returns only the warning-severity messages.
func (r *InvoiceAddResult) Warnings() []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.Severity == SeverityWarning {
			out = append(out, m)
		}
	}
	return out
}
