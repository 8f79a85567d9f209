package services

import (
	"context"
	"log/slog"

	"eventservices/internal/domain"
)

type bookingNotifier struct {
	users     domain.UserRepository
	providers domain.ProviderCatalog
	emails    domain.EmailService
	logger    *slog.Logger
}

// NewBookingNotifier emails the booking owner about lifecycle changes.
// Failures are logged and never surface to the caller.
func NewBookingNotifier(users domain.UserRepository, providers domain.ProviderCatalog, emails domain.EmailService, logger *slog.Logger) domain.BookingNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &bookingNotifier{users: users, providers: providers, emails: emails, logger: logger}
}

func (n *bookingNotifier) BookingCreated(ctx context.Context, b *domain.Booking) {
	data, ok := n.emailData(ctx, b)
	if !ok {
		return
	}
	if err := n.emails.SendBookingCreated(ctx, data); err != nil {
		n.logger.WarnContext(ctx, "booking created email failed", "booking_id", b.ID, "error", err)
	}
}

func (n *bookingNotifier) BookingStatusChanged(ctx context.Context, b *domain.Booking, from domain.BookingStatus) {
	data, ok := n.emailData(ctx, b)
	if !ok {
		return
	}
	data.Previous = from
	if err := n.emails.SendBookingStatusChanged(ctx, data); err != nil {
		n.logger.WarnContext(ctx, "booking status email failed", "booking_id", b.ID, "error", err)
	}
}

func (n *bookingNotifier) emailData(ctx context.Context, b *domain.Booking) (*domain.BookingEmailData, bool) {
	user, err := n.users.GetByID(ctx, b.UserID)
	if err != nil {
		n.logger.WarnContext(ctx, "booking email skipped: user lookup failed", "booking_id", b.ID, "error", err)
		return nil, false
	}
	if user.Email == "" {
		return nil, false
	}
	data := &domain.BookingEmailData{
		Email:     user.Email,
		Username:  user.Username,
		BookingID: b.ID,
		Slot:      b.Slot,
		Status:    b.Status,
	}
	if p, err := n.providers.GetProvider(ctx, b.ProviderID); err == nil {
		data.ProviderName = p.Name
	}
	return data, true
}
