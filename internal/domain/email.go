package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EvictionReportEmailData holds data for the report sent after a fixed binding moved registrants.
type EvictionReportEmailData struct {
	To            string
	Nickname      string
	Number        int
	Evictions     []*Eviction
	Reassignments []*Reassignment
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendEvictionReport(ctx context.Context, data *EvictionReportEmailData) error
}
