package services

import (
	"context"
	"testing"
	"time"

	"eventservices/internal/domain"
	"eventservices/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderService_Create(t *testing.T) {
	ctx := context.Background()
	organizer := domain.Requester{UserID: "org-1", Role: domain.RoleOrganizer}
	admin := domain.Requester{UserID: "admin-1", Role: domain.RoleAdmin}

	tests := []struct {
		name      string
		requester domain.Requester
		provider  domain.Provider
		wantOwner string
		wantErr   error
	}{
		{
			name:      "organizer becomes owner",
			requester: organizer,
			provider:  domain.Provider{Category: domain.CategoryVendor, Name: " Tents ", Capacity: 2, OwnerID: "someone-else", AvailabilityWindows: []domain.Slot{slot(13, 0, 17, 0), slot(9, 0, 12, 0)}},
			wantOwner: "org-1",
		},
		{
			name:      "admin may assign owner",
			requester: admin,
			provider:  domain.Provider{Category: domain.CategoryGuestSpeaker, Name: "Dr. Talk", Capacity: 1, OwnerID: "org-2"},
			wantOwner: "org-2",
		},
		{
			name:      "guest forbidden",
			requester: domain.Requester{UserID: "g", Role: domain.RoleGuest},
			provider:  domain.Provider{Category: domain.CategoryVendor, Name: "X", Capacity: 1},
			wantErr:   domain.ErrForbidden,
		},
		{
			name:      "unknown category",
			requester: organizer,
			provider:  domain.Provider{Category: "caterer", Name: "X", Capacity: 1},
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "blank name",
			requester: organizer,
			provider:  domain.Provider{Category: domain.CategoryVendor, Name: "  ", Capacity: 1},
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "zero capacity",
			requester: organizer,
			provider:  domain.Provider{Category: domain.CategoryVendor, Name: "X", Capacity: 0},
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "overlapping windows",
			requester: organizer,
			provider:  domain.Provider{Category: domain.CategoryTransportationProvider, Name: "Bus", Capacity: 1, AvailabilityWindows: []domain.Slot{slot(9, 0, 12, 0), slot(11, 0, 13, 0)}},
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "inverted window",
			requester: organizer,
			provider:  domain.Provider{Category: domain.CategoryTransportationProvider, Name: "Bus", Capacity: 1, AvailabilityWindows: []domain.Slot{slot(12, 0, 9, 0)}},
			wantErr:   domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewProviderRepository()
			svc := NewProviderService(repo)
			p := tt.provider

			err := svc.Create(ctx, tt.requester, &p)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, p.OwnerID)
			assert.False(t, p.CreatedAt.IsZero())

			stored, err := svc.GetProvider(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, p.Name, stored.Name)
			for i := 1; i < len(stored.AvailabilityWindows); i++ {
				assert.True(t, stored.AvailabilityWindows[i-1].Start.Before(stored.AvailabilityWindows[i].Start), "windows are sorted")
			}
		})
	}
}

func TestProviderService_List(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProviderRepository()
	svc := NewProviderService(repo)
	now := time.Now()
	for _, p := range []*domain.Provider{
		domain.NewProvider(domain.CategoryVendor, "B vendor", "", "", 1, nil, now, now),
		domain.NewProvider(domain.CategoryVendor, "A vendor", "", "", 1, nil, now, now),
		domain.NewProvider(domain.CategoryGuestSpeaker, "Speaker", "", "", 1, nil, now, now),
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	vendors, total, err := svc.List(ctx, domain.CategoryVendor, domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, vendors, 2)
	assert.Equal(t, "A vendor", vendors[0].Name)

	all, total, err := svc.List(ctx, "", domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 1)

	_, _, err = svc.List(ctx, "caterer", domain.PaginationParams{Page: 1, PageSize: 10})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.GetProvider(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
