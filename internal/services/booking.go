package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"time"

	"eventservices/internal/domain"
)

type bookingService struct {
	bookings  domain.BookingRepository
	users     domain.IdentityStore
	providers domain.ProviderCatalog
	locker    domain.ProviderLocker
	notifier  domain.BookingNotifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookingService creates the booking engine. notifier may be nil.
func NewBookingService(
	bookings domain.BookingRepository,
	users domain.IdentityStore,
	providers domain.ProviderCatalog,
	locker domain.ProviderLocker,
	notifier domain.BookingNotifier,
	logger *slog.Logger,
) domain.BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bookingService{
		bookings:  bookings,
		users:     users,
		providers: providers,
		locker:    locker,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func storageErr(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

func (s *bookingService) CreateBooking(ctx context.Context, userID, providerID string, slot domain.Slot) (*domain.Booking, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !exists {
		return nil, domain.ErrUnknownUser
	}
	provider, err := s.provider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !slot.Valid() {
		return nil, domain.ErrInvalidSlot
	}
	if _, ok := provider.WindowFor(slot); !ok {
		return nil, domain.ErrOutsideAvailability
	}

	booking, err := s.insertLocked(ctx, provider, userID, slot)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "booking created",
		"booking_id", booking.ID, "user_id", userID, "provider_id", providerID,
		"start", slot.Start, "end", slot.End)
	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, booking)
	}
	return booking, nil
}

func (s *bookingService) insertLocked(ctx context.Context, provider *domain.Provider, userID string, slot domain.Slot) (*domain.Booking, error) {
	unlock, err := s.locker.Lock(ctx, provider.ID)
	if err != nil {
		return nil, fmt.Errorf("lock provider %s: %w", provider.ID, err)
	}
	defer unlock()

	active, err := s.bookings.Scan(ctx, domain.BookingFilter{
		ProviderID:  provider.ID,
		Statuses:    domain.ActiveStatuses,
		Overlapping: &slot,
	})
	if err != nil {
		return nil, storageErr(err)
	}
	for _, b := range active {
		if b.UserID == userID {
			return nil, domain.ErrDuplicateBooking
		}
	}
	// Capacity bounds the bookings active at any single instant of slot, not
	// the number of bookings overlapping it: two back-to-back bookings inside
	// slot only occupy one unit.
	if peakConcurrency(active, slot) >= provider.Capacity {
		return nil, domain.ErrSlotFull
	}

	booking := domain.NewBooking(userID, provider.ID, slot, s.now())
	if err := s.bookings.Insert(ctx, booking); err != nil {
		return nil, storageErr(err)
	}
	return booking, nil
}

func (s *bookingService) Transition(ctx context.Context, bookingID string, requester domain.Requester, target domain.BookingStatus) (*domain.Booking, error) {
	booking, err := s.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	provider, err := s.provider(ctx, booking.ProviderID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.canManage(ctx, requester, booking, provider)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrForbidden
	}

	booking, from, err := s.transitionLocked(ctx, provider, bookingID, target)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "booking status changed",
		"booking_id", booking.ID, "from", from, "to", booking.Status, "by", requester.UserID)
	if s.notifier != nil {
		s.notifier.BookingStatusChanged(ctx, booking, from)
	}
	return booking, nil
}

// transitionLocked re-reads the booking under the provider lock and applies target.
func (s *bookingService) transitionLocked(ctx context.Context, provider *domain.Provider, bookingID string, target domain.BookingStatus) (*domain.Booking, domain.BookingStatus, error) {
	unlock, err := s.locker.Lock(ctx, provider.ID)
	if err != nil {
		return nil, "", fmt.Errorf("lock provider %s: %w", provider.ID, err)
	}
	defer unlock()

	booking, err := s.booking(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	from := booking.Status
	if !from.CanTransitionTo(target) {
		return nil, "", fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, target)
	}
	if target == domain.StatusConfirmed {
		active, err := s.bookings.Scan(ctx, domain.BookingFilter{
			ProviderID:  provider.ID,
			Statuses:    domain.ActiveStatuses,
			Overlapping: &booking.Slot,
		})
		if err != nil {
			return nil, "", storageErr(err)
		}
		others := slices.DeleteFunc(active, func(b *domain.Booking) bool { return b.ID == booking.ID })
		if peakConcurrency(others, booking.Slot) >= provider.Capacity {
			return nil, "", domain.ErrSlotFull
		}
	}

	booking.Status = target
	booking.UpdatedAt = s.now()
	if err := s.bookings.Update(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnknownBooking
		}
		return nil, "", storageErr(err)
	}
	return booking, from, nil
}

func (s *bookingService) Confirm(ctx context.Context, bookingID string, requester domain.Requester) (*domain.Booking, error) {
	return s.Transition(ctx, bookingID, requester, domain.StatusConfirmed)
}

func (s *bookingService) Cancel(ctx context.Context, bookingID string, requester domain.Requester) (*domain.Booking, error) {
	return s.Transition(ctx, bookingID, requester, domain.StatusCancelled)
}

func (s *bookingService) Complete(ctx context.Context, bookingID string, requester domain.Requester) (*domain.Booking, error) {
	return s.Transition(ctx, bookingID, requester, domain.StatusCompleted)
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string, requester domain.Requester) (*domain.Booking, error) {
	booking, err := s.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	provider, err := s.provider(ctx, booking.ProviderID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.canManage(ctx, requester, booking, provider)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

// ListBookings takes a snapshot of the matching bookings. The returned sequence
// replays that snapshot each time it is ranged over.
func (s *bookingService) ListBookings(ctx context.Context, filter domain.ListBookingsFilter) (iter.Seq[domain.Booking], error) {
	scan := domain.BookingFilter{UserID: filter.UserID, ProviderID: filter.ProviderID}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
		}
		scan.Statuses = []domain.BookingStatus{filter.Status}
	}
	found, err := s.bookings.Scan(ctx, scan)
	if err != nil {
		return nil, storageErr(err)
	}

	snapshot := make([]domain.Booking, len(found))
	for i, b := range found {
		snapshot[i] = *b
	}
	slices.SortStableFunc(snapshot, func(a, b domain.Booking) int {
		return cmp.Or(
			a.Slot.Start.Compare(b.Slot.Start),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return slices.Values(snapshot), nil
}

// CancelExpired cancels every pending booking whose slot ended before now.
// Each candidate is re-read under its provider's lock, so a booking confirmed
// in the meantime is left alone. On error the count of bookings already
// cancelled is returned with it.
func (s *bookingService) CancelExpired(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.bookings.Scan(ctx, domain.BookingFilter{
		Statuses:   []domain.BookingStatus{domain.StatusPending},
		EndsBefore: &now,
	})
	if err != nil {
		return 0, storageErr(err)
	}

	byProvider := make(map[string][]string)
	for _, b := range candidates {
		byProvider[b.ProviderID] = append(byProvider[b.ProviderID], b.ID)
	}
	count := 0
	for _, providerID := range slices.Sorted(maps.Keys(byProvider)) {
		cancelled, err := s.expireProvider(ctx, providerID, byProvider[providerID], now)
		count += len(cancelled)
		if s.notifier != nil {
			for _, b := range cancelled {
				s.notifier.BookingStatusChanged(ctx, b, domain.StatusPending)
			}
		}
		if err != nil {
			return count, err
		}
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "expired bookings cancelled", "count", count)
	}
	return count, nil
}

func (s *bookingService) expireProvider(ctx context.Context, providerID string, bookingIDs []string, now time.Time) ([]*domain.Booking, error) {
	unlock, err := s.locker.Lock(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("lock provider %s: %w", providerID, err)
	}
	defer unlock()

	var cancelled []*domain.Booking
	for _, id := range bookingIDs {
		b, err := s.bookings.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return cancelled, storageErr(err)
		}
		if b.Status != domain.StatusPending || !b.Slot.End.Before(now) {
			continue
		}
		b.Status = domain.StatusCancelled
		b.UpdatedAt = now
		if err := s.bookings.Update(ctx, b); err != nil {
			return cancelled, storageErr(err)
		}
		cancelled = append(cancelled, b)
	}
	return cancelled, nil
}

func (s *bookingService) booking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownBooking
		}
		return nil, storageErr(err)
	}
	return b, nil
}

func (s *bookingService) provider(ctx context.Context, id string) (*domain.Provider, error) {
	p, err := s.providers.GetProvider(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownProvider
		}
		return nil, storageErr(err)
	}
	return p, nil
}

// canManage reports whether requester may read or transition the booking: its
// owner, an admin, or the organizer who owns the provider. A requester
// without a role gets it resolved through the identity store.
func (s *bookingService) canManage(ctx context.Context, requester domain.Requester, b *domain.Booking, p *domain.Provider) (bool, error) {
	if requester.UserID == "" {
		return false, nil
	}
	if requester.UserID == b.UserID {
		return true, nil
	}
	role := requester.Role
	if role == "" {
		var err error
		role, err = s.users.RoleOf(ctx, requester.UserID)
		if errors.Is(err, domain.ErrUnknownUser) {
			return false, nil
		}
		if err != nil {
			return false, storageErr(err)
		}
	}
	switch role {
	case domain.RoleAdmin:
		return true, nil
	case domain.RoleOrganizer:
		return p.OwnerID != "" && p.OwnerID == requester.UserID, nil
	}
	return false, nil
}
