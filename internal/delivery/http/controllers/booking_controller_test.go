package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"eventservices/internal/delivery/http/helpers"
	"eventservices/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBookingService implements domain.BookingService for handler tests.
type fakeBookingService struct {
	err           error
	booking       *domain.Booking
	list          []domain.Booking
	lastCreate    []string
	lastSlot      domain.Slot
	lastRequester domain.Requester
	lastTarget    domain.BookingStatus
	lastFilter    domain.ListBookingsFilter
}

func (f *fakeBookingService) CreateBooking(_ context.Context, userID, providerID string, slot domain.Slot) (*domain.Booking, error) {
	f.lastCreate = []string{userID, providerID}
	f.lastSlot = slot
	if f.err != nil {
		return nil, f.err
	}
	return f.booking, nil
}

func (f *fakeBookingService) Transition(_ context.Context, bookingID string, requester domain.Requester, target domain.BookingStatus) (*domain.Booking, error) {
	f.lastRequester = requester
	f.lastTarget = target
	if f.err != nil {
		return nil, f.err
	}
	b := *f.booking
	b.Status = target
	return &b, nil
}

func (f *fakeBookingService) Confirm(ctx context.Context, id string, r domain.Requester) (*domain.Booking, error) {
	return f.Transition(ctx, id, r, domain.StatusConfirmed)
}

func (f *fakeBookingService) Cancel(ctx context.Context, id string, r domain.Requester) (*domain.Booking, error) {
	return f.Transition(ctx, id, r, domain.StatusCancelled)
}

func (f *fakeBookingService) Complete(ctx context.Context, id string, r domain.Requester) (*domain.Booking, error) {
	return f.Transition(ctx, id, r, domain.StatusCompleted)
}

func (f *fakeBookingService) GetBooking(_ context.Context, bookingID string, requester domain.Requester) (*domain.Booking, error) {
	f.lastRequester = requester
	if f.err != nil {
		return nil, f.err
	}
	return f.booking, nil
}

func (f *fakeBookingService) ListBookings(_ context.Context, filter domain.ListBookingsFilter) (iter.Seq[domain.Booking], error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return slices.Values(f.list), nil
}

func (f *fakeBookingService) CancelExpired(context.Context, time.Time) (int, error) { return 0, f.err }

// fakeCatalog implements domain.ProviderCatalog for handler tests.
type fakeCatalog map[string]*domain.Provider

func (f fakeCatalog) GetProvider(_ context.Context, id string) (*domain.Provider, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

var sampleBooking = &domain.Booking{
	ID:         "b-1",
	UserID:     "user-123",
	ProviderID: "p-1",
	Slot:       domain.NewSlot(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC), time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)),
	Status:     domain.StatusPending,
}

func TestBookingController_CreateBooking(t *testing.T) {
	const validBody = `{"provider_id":"p-1","slot":{"start":"2026-06-01T10:00:00Z","end":"2026-06-01T11:00:00Z"}}`

	tests := []struct {
		name       string
		body       string
		role       domain.Role
		noUser     bool
		fakeErr    error
		wantStatus int
		wantCode   string
		wantCreate []string
	}{
		{name: "success", body: validBody, role: domain.RoleGuest, wantStatus: http.StatusCreated, wantCreate: []string{"user-123", "p-1"}},
		{name: "admin books for another user", body: `{"provider_id":"p-1","user_id":"user-9","slot":{"start":"2026-06-01T10:00:00Z","end":"2026-06-01T11:00:00Z"}}`, role: domain.RoleAdmin, wantStatus: http.StatusCreated, wantCreate: []string{"user-9", "p-1"}},
		{name: "guest cannot book for another user", body: `{"provider_id":"p-1","user_id":"user-9","slot":{"start":"2026-06-01T10:00:00Z","end":"2026-06-01T11:00:00Z"}}`, role: domain.RoleGuest, wantStatus: http.StatusForbidden, wantCode: domain.CodeForbidden},
		{name: "unauthenticated", body: validBody, noUser: true, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "missing slot", body: `{"provider_id":"p-1"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "malformed time", body: `{"provider_id":"p-1","slot":{"start":"tomorrow","end":"2026-06-01T11:00:00Z"}}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "invalid slot", body: validBody, fakeErr: domain.ErrInvalidSlot, wantStatus: http.StatusBadRequest, wantCode: domain.CodeInvalidSlot},
		{name: "outside availability", body: validBody, fakeErr: domain.ErrOutsideAvailability, wantStatus: http.StatusBadRequest, wantCode: domain.CodeOutsideAvailability},
		{name: "unknown user", body: validBody, fakeErr: domain.ErrUnknownUser, wantStatus: http.StatusNotFound, wantCode: domain.CodeUnknownUser},
		{name: "unknown provider", body: validBody, fakeErr: domain.ErrUnknownProvider, wantStatus: http.StatusNotFound, wantCode: domain.CodeUnknownProvider},
		{name: "slot full", body: validBody, fakeErr: domain.ErrSlotFull, wantStatus: http.StatusConflict, wantCode: domain.CodeSlotFull},
		{name: "duplicate", body: validBody, fakeErr: domain.ErrDuplicateBooking, wantStatus: http.StatusConflict, wantCode: domain.CodeDuplicateBooking},
		{name: "storage unavailable", body: validBody, fakeErr: fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, errors.New("dial tcp: refused")), wantStatus: http.StatusServiceUnavailable, wantCode: domain.CodeStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBookingService{err: tt.fakeErr, booking: sampleBooking}
			ctrl := NewBookingController(testLogger, fake, fakeCatalog{})
			req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(tt.body))
			if !tt.noUser {
				req = withUser(req, "user-123", tt.role)
			}
			rr := httptest.NewRecorder()

			ctrl.CreateBooking(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var got domain.Booking
			envelope := decodeEnvelope(t, rr, &got)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "b-1", got.ID)
				assert.Equal(t, tt.wantCreate, fake.lastCreate)
				assert.True(t, sampleBooking.Slot.Start.Equal(fake.lastSlot.Start))
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			assert.NotContains(t, envelope.Error.Message, "dial tcp", "storage details are not exposed")
		})
	}
}

func TestBookingController_TransitionBooking(t *testing.T) {
	tests := []struct {
		name       string
		bookingID  string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "confirm", bookingID: "b-1", body: `{"target_status":"confirmed"}`, wantStatus: http.StatusOK},
		{name: "missing target", bookingID: "b-1", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "unknown booking", bookingID: "b-x", body: `{"target_status":"cancelled"}`, fakeErr: domain.ErrUnknownBooking, wantStatus: http.StatusNotFound, wantCode: domain.CodeUnknownBooking},
		{name: "forbidden", bookingID: "b-1", body: `{"target_status":"cancelled"}`, fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: domain.CodeForbidden},
		{name: "invalid transition", bookingID: "b-1", body: `{"target_status":"pending"}`, fakeErr: domain.ErrInvalidTransition, wantStatus: http.StatusConflict, wantCode: domain.CodeInvalidTransition},
		{name: "slot full on confirm", bookingID: "b-1", body: `{"target_status":"confirmed"}`, fakeErr: domain.ErrSlotFull, wantStatus: http.StatusConflict, wantCode: domain.CodeSlotFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBookingService{err: tt.fakeErr, booking: sampleBooking}
			ctrl := NewBookingController(testLogger, fake, fakeCatalog{})
			req := httptest.NewRequest(http.MethodPatch, "/bookings/"+tt.bookingID, bytes.NewBufferString(tt.body))
			req.SetPathValue("bookingID", tt.bookingID)
			req = withUser(req, "user-123", domain.RoleOrganizer)
			rr := httptest.NewRecorder()

			ctrl.TransitionBooking(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var got domain.Booking
			envelope := decodeEnvelope(t, rr, &got)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, domain.StatusConfirmed, got.Status)
				assert.Equal(t, domain.Requester{UserID: "user-123", Role: domain.RoleOrganizer}, fake.lastRequester)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestBookingController_GetBooking(t *testing.T) {
	fake := &fakeBookingService{booking: sampleBooking}
	ctrl := NewBookingController(testLogger, fake, fakeCatalog{})

	req := httptest.NewRequest(http.MethodGet, "/bookings/b-1", nil)
	req.SetPathValue("bookingID", "b-1")
	rr := httptest.NewRecorder()
	ctrl.GetBooking(rr, withUser(req, "user-123", domain.RoleGuest))
	require.Equal(t, http.StatusOK, rr.Code)

	fake.err = domain.ErrForbidden
	rr = httptest.NewRecorder()
	ctrl.GetBooking(rr, withUser(req, "user-999", domain.RoleGuest))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBookingController_ListBookings(t *testing.T) {
	catalog := fakeCatalog{
		"p-own":   {ID: "p-own", OwnerID: "org-1"},
		"p-other": {ID: "p-other", OwnerID: "org-2"},
	}

	tests := []struct {
		name       string
		query      string
		userID     string
		role       domain.Role
		wantStatus int
		wantFilter domain.ListBookingsFilter
	}{
		{name: "guest defaults to own bookings", query: "", userID: "user-123", role: domain.RoleGuest, wantStatus: http.StatusOK, wantFilter: domain.ListBookingsFilter{UserID: "user-123"}},
		{name: "guest with status", query: "?status=pending", userID: "user-123", role: domain.RoleGuest, wantStatus: http.StatusOK, wantFilter: domain.ListBookingsFilter{UserID: "user-123", Status: domain.StatusPending}},
		{name: "guest asking for someone else", query: "?user_id=user-9", userID: "user-123", role: domain.RoleGuest, wantStatus: http.StatusForbidden},
		{name: "admin sees all", query: "?provider_id=p-other", userID: "admin-1", role: domain.RoleAdmin, wantStatus: http.StatusOK, wantFilter: domain.ListBookingsFilter{ProviderID: "p-other"}},
		{name: "organizer lists own provider", query: "?provider_id=p-own", userID: "org-1", role: domain.RoleOrganizer, wantStatus: http.StatusOK, wantFilter: domain.ListBookingsFilter{ProviderID: "p-own"}},
		{name: "organizer on foreign provider sees own bookings only", query: "?provider_id=p-other", userID: "org-1", role: domain.RoleOrganizer, wantStatus: http.StatusOK, wantFilter: domain.ListBookingsFilter{ProviderID: "p-other", UserID: "org-1"}},
		{name: "organizer unknown provider", query: "?provider_id=p-none", userID: "org-1", role: domain.RoleOrganizer, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBookingService{list: []domain.Booking{*sampleBooking}}
			ctrl := NewBookingController(testLogger, fake, catalog)
			req := withUser(httptest.NewRequest(http.MethodGet, "/bookings"+tt.query, nil), tt.userID, tt.role)
			rr := httptest.NewRecorder()

			ctrl.ListBookings(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got []domain.Booking
			decodeEnvelope(t, rr, &got)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantFilter, fake.lastFilter)
		})
	}
}

func TestBookingController_ListBookings_empty(t *testing.T) {
	ctrl := NewBookingController(testLogger, &fakeBookingService{}, fakeCatalog{})
	rr := httptest.NewRecorder()
	ctrl.ListBookings(rr, withUser(httptest.NewRequest(http.MethodGet, "/bookings", nil), "user-123", domain.RoleGuest))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[],"error":null}`, rr.Body.String())
}
