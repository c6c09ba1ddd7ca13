package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventregistry/internal/domain"
	"eventregistry/internal/metrics"
)

const evictionReportTemplate = "eviction_report"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, m *metrics.Metrics, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, metrics: m, logger: logger}
}

// SendEvictionReport tells an operator who a new fixed binding moved.
func (s *emailService) SendEvictionReport(ctx context.Context, data *domain.EvictionReportEmailData) error {
	if data == nil {
		return fmt.Errorf("eviction report data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(evictionReportTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", evictionReportTemplate, err)
	}
	if err := s.mailer.Send(data.To, subject, htmlBody, textBody); err != nil {
		s.metrics.IncrementEmail(evictionReportTemplate, false)
		return fmt.Errorf("failed to send eviction report: %w", err)
	}
	s.metrics.IncrementEmail(evictionReportTemplate, true)
	s.logger.InfoContext(ctx, "eviction report sent", "to", data.To, "nickname", data.Nickname, "number", data.Number)
	return nil
}
