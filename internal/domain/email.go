package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// BookingEmailData holds data for booking lifecycle emails.
type BookingEmailData struct {
	Email        string
	Username     string
	ProviderName string
	BookingID    string
	Slot         Slot
	Status       BookingStatus
	Previous     BookingStatus
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendBookingCreated(ctx context.Context, data *BookingEmailData) error
	SendBookingStatusChanged(ctx context.Context, data *BookingEmailData) error
}
