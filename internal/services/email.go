package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventservices/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendBookingCreated sends the "booking_created" email.
func (s *emailService) SendBookingCreated(ctx context.Context, data *domain.BookingEmailData) error {
	return s.send(ctx, "booking_created", data)
}

// SendBookingStatusChanged sends the "booking_status" email.
func (s *emailService) SendBookingStatusChanged(ctx context.Context, data *domain.BookingEmailData) error {
	return s.send(ctx, "booking_status", data)
}

func (s *emailService) send(ctx context.Context, template string, data *domain.BookingEmailData) error {
	if data == nil {
		return fmt.Errorf("%s email data is nil", template)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.DebugContext(ctx, "email sent", "template", template, "booking_id", data.BookingID)
	return nil
}
