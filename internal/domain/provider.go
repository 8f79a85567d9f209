package domain

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ProviderCategory is the kind of service a provider offers.
type ProviderCategory string

const (
	CategoryVendor                 ProviderCategory = "vendor"
	CategoryGuestSpeaker           ProviderCategory = "guestSpeaker"
	CategoryTransportationProvider ProviderCategory = "transportationProvider"
)

// Valid reports whether c is a known category.
func (c ProviderCategory) Valid() bool {
	switch c {
	case CategoryVendor, CategoryGuestSpeaker, CategoryTransportationProvider:
		return true
	}
	return false
}

// Provider is a bookable vendor, guest speaker or transportation provider.
// AvailabilityWindows are ordered by start and never overlap.
// swagger:model Provider
type Provider struct {
	ID                  string           `json:"id"`
	Category            ProviderCategory `json:"category"`
	Name                string           `json:"name"`
	Description         string           `json:"description,omitempty"`
	OwnerID             string           `json:"owner_id,omitempty"`
	Capacity            int              `json:"capacity"`
	AvailabilityWindows []Slot           `json:"availability_windows"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// NewProvider returns a new Provider with the given fields. ID is typically set by the repository on create.
func NewProvider(category ProviderCategory, name, description, ownerID string, capacity int, windows []Slot, createdAt, updatedAt time.Time) *Provider {
	return &Provider{
		Category:            category,
		Name:                name,
		Description:         description,
		OwnerID:             ownerID,
		Capacity:            capacity,
		AvailabilityWindows: windows,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}
}

// WindowFor returns the availability window that fully contains slot.
func (p *Provider) WindowFor(slot Slot) (Slot, bool) {
	for _, w := range p.AvailabilityWindows {
		if w.Contains(slot) {
			return w, true
		}
	}
	return Slot{}, false
}

// NormalizeWindows sorts windows by start and rejects malformed or overlapping ones.
func NormalizeWindows(windows []Slot) ([]Slot, error) {
	out := make([]Slot, len(windows))
	copy(out, windows)
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	for i, w := range out {
		if !w.Valid() {
			return nil, fmt.Errorf("%w: window %d has start not before end", ErrInvalidInput, i)
		}
		if i > 0 && out[i-1].Overlaps(w) {
			return nil, fmt.Errorf("%w: availability windows overlap", ErrInvalidInput)
		}
	}
	return out, nil
}

// ProviderRepository defines the interface for provider storage.
// GetByID returns ErrNotFound when no provider matches.
type ProviderRepository interface {
	Create(ctx context.Context, provider *Provider) error
	GetByID(ctx context.Context, id string) (*Provider, error)
	List(ctx context.Context, category ProviderCategory, page PaginationParams) ([]*Provider, int, error)
}

// ProviderCatalog is the read-only view of providers used by the booking engine.
// GetProvider returns ErrNotFound when the provider is absent.
type ProviderCatalog interface {
	GetProvider(ctx context.Context, id string) (*Provider, error)
}

// ProviderService exposes provider listings.
type ProviderService interface {
	ProviderCatalog
	Create(ctx context.Context, requester Requester, provider *Provider) error
	List(ctx context.Context, category ProviderCategory, page PaginationParams) ([]*Provider, int, error)
}
