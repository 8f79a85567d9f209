package domain

import (
	"context"
	"iter"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// ActiveStatuses are the statuses that occupy provider capacity.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Active reports whether the status occupies capacity.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether s -> target is in the transition table.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Booking ties a user to a provider for a slot.
// swagger:model Booking
type Booking struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	ProviderID string        `json:"provider_id"`
	Slot       Slot          `json:"slot"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewBooking returns a pending booking. ID is typically set by the repository on insert.
func NewBooking(userID, providerID string, slot Slot, now time.Time) *Booking {
	return &Booking{
		UserID:     userID,
		ProviderID: providerID,
		Slot:       slot,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// BookingFilter is the predicate used to scan stored bookings. Zero fields match everything.
type BookingFilter struct {
	UserID     string
	ProviderID string
	Statuses   []BookingStatus
	// Overlapping keeps bookings whose slot overlaps it.
	Overlapping *Slot
	// EndsBefore keeps bookings whose slot ends strictly before it.
	EndsBefore *time.Time
}

// Match reports whether b satisfies the filter.
func (f BookingFilter) Match(b *Booking) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.ProviderID != "" && b.ProviderID != f.ProviderID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if b.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Overlapping != nil && !f.Overlapping.Overlaps(b.Slot) {
		return false
	}
	if f.EndsBefore != nil && !b.Slot.End.Before(*f.EndsBefore) {
		return false
	}
	return true
}

// BookingRepository is the storage collaborator of the booking engine.
// Get returns ErrNotFound when absent; Update returns ErrNotFound when no row was changed.
type BookingRepository interface {
	Get(ctx context.Context, id string) (*Booking, error)
	Insert(ctx context.Context, booking *Booking) error
	Update(ctx context.Context, booking *Booking) error
	Scan(ctx context.Context, filter BookingFilter) ([]*Booking, error)
}

// Requester identifies who is calling a mutating operation.
type Requester struct {
	UserID string
	Role   Role
}

// ListBookingsFilter narrows ListBookings. Empty fields are ignored.
type ListBookingsFilter struct {
	UserID     string
	ProviderID string
	Status     BookingStatus
}

// ProviderLocker serializes mutations per provider.
// Lock blocks until the provider's critical section is acquired or ctx is done.
type ProviderLocker interface {
	Lock(ctx context.Context, providerID string) (unlock func(), err error)
}

// BookingNotifier is told about booking lifecycle changes.
type BookingNotifier interface {
	BookingCreated(ctx context.Context, booking *Booking)
	BookingStatusChanged(ctx context.Context, booking *Booking, from BookingStatus)
}

// BookingService is the booking engine.
type BookingService interface {
	CreateBooking(ctx context.Context, userID, providerID string, slot Slot) (*Booking, error)
	Transition(ctx context.Context, bookingID string, requester Requester, target BookingStatus) (*Booking, error)
	Confirm(ctx context.Context, bookingID string, requester Requester) (*Booking, error)
	Cancel(ctx context.Context, bookingID string, requester Requester) (*Booking, error)
	Complete(ctx context.Context, bookingID string, requester Requester) (*Booking, error)
	GetBooking(ctx context.Context, bookingID string, requester Requester) (*Booking, error)
	ListBookings(ctx context.Context, filter ListBookingsFilter) (iter.Seq[Booking], error)
	CancelExpired(ctx context.Context, now time.Time) (int, error)
}
