// Package memory holds in-process repositories used for local runs and tests.
package memory

import (
	"context"
	"sync"

	"eventservices/internal/domain"

	"github.com/google/uuid"
)

// BookingRepository keeps bookings in a map. Reads and writes copy records so
// callers never observe a half-written booking.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

var _ domain.BookingRepository = (*BookingRepository)(nil)

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[string]domain.Booking)}
}

func (r *BookingRepository) Get(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepository) Insert(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepository) Update(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return domain.ErrNotFound
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepository) Scan(_ context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Booking{}
	for _, b := range r.bookings {
		if filter.Match(&b) {
			cp := b
			out = append(out, &cp)
		}
	}
	return out, nil
}
