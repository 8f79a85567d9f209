package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventservices/internal/adapters/auth"
	"eventservices/internal/adapters/lock"
	"eventservices/internal/delivery/http/controllers"
	"eventservices/internal/delivery/http/middleware"
	"eventservices/internal/domain"
	"eventservices/internal/repository/memory"
	"eventservices/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, path, token string, body any) (int, envelope) {
	c.t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr.Code, env
}

func (c apiClient) signUp(username string, role domain.Role) string {
	c.t.Helper()
	status, _ := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "password": "correct-horse", "role": string(role),
	})
	require.Equal(c.t, http.StatusCreated, status)

	status, env := c.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": username, "password": "correct-horse",
	})
	require.Equal(c.t, http.StatusOK, status)
	var login controllers.LoginResponse
	require.NoError(c.t, json.Unmarshal(env.Data, &login))
	return login.Token
}

func newTestAPI(t *testing.T) apiClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUserRepository()
	providers := services.NewProviderService(memory.NewProviderRepository())
	bookings := services.NewBookingService(
		memory.NewBookingRepository(),
		services.NewIdentityStore(users),
		providers,
		lock.NewMemoryLocker(),
		nil,
		logger,
	)
	userSvc := services.NewUserService(users, auth.NewBcryptHasher(4), auth.NewJWTIssuer("test-secret"), time.Hour)

	mux := NewRouter(
		controllers.NewUserController(logger, userSvc),
		controllers.NewProviderController(logger, providers),
		controllers.NewBookingController(logger, bookings, providers),
		middleware.RequireAuth(auth.NewJWTVerifier("test-secret"), logger),
	)
	return apiClient{t: t, handler: mux}
}

func TestRouter_BookingFlow(t *testing.T) {
	api := newTestAPI(t)
	organizer := api.signUp("organizer", domain.RoleOrganizer)
	alice := api.signUp("alice", domain.RoleGuest)
	bob := api.signUp("bob", domain.RoleGuest)

	status, env := api.do(http.MethodPost, "/providers", organizer, map[string]any{
		"category": "guestSpeaker",
		"name":     "Keynote speaker",
		"capacity": 1,
		"availability_windows": []map[string]string{
			{"start": "2030-06-01T09:00:00Z", "end": "2030-06-01T17:00:00Z"},
		},
	})
	require.Equal(t, http.StatusCreated, status)
	var provider domain.Provider
	require.NoError(t, json.Unmarshal(env.Data, &provider))

	slot := map[string]string{"start": "2030-06-01T10:00:00Z", "end": "2030-06-01T11:00:00Z"}
	status, env = api.do(http.MethodPost, "/bookings", alice, map[string]any{"provider_id": provider.ID, "slot": slot})
	require.Equal(t, http.StatusCreated, status)
	var booking domain.Booking
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	assert.Equal(t, domain.StatusPending, booking.Status)

	status, env = api.do(http.MethodPost, "/bookings", bob, map[string]any{"provider_id": provider.ID, "slot": slot})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, domain.CodeSlotFull, env.Error.Code)

	status, env = api.do(http.MethodPost, "/bookings", alice, map[string]any{
		"provider_id": provider.ID,
		"slot":        map[string]string{"start": "2030-06-01T16:30:00Z", "end": "2030-06-01T17:30:00Z"},
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, domain.CodeOutsideAvailability, env.Error.Code)

	status, _ = api.do(http.MethodPatch, "/bookings/"+booking.ID, bob, map[string]string{"target_status": "cancelled"})
	require.Equal(t, http.StatusForbidden, status)

	status, env = api.do(http.MethodPatch, "/bookings/"+booking.ID, organizer, map[string]string{"target_status": "confirmed"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	assert.Equal(t, domain.StatusConfirmed, booking.Status)

	status, env = api.do(http.MethodPatch, "/bookings/"+booking.ID, alice, map[string]string{"target_status": "pending"})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, domain.CodeInvalidTransition, env.Error.Code)

	status, env = api.do(http.MethodGet, "/bookings", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []domain.Booking
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, booking.ID, mine[0].ID)

	status, env = api.do(http.MethodGet, "/bookings", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/providers", http.StatusOK},
		{http.MethodGet, "/providers/does-not-exist", http.StatusNotFound},
		{http.MethodGet, "/users/me", http.StatusUnauthorized},
		{http.MethodPost, "/providers", http.StatusUnauthorized},
		{http.MethodGet, "/bookings", http.StatusUnauthorized},
		{http.MethodPost, "/bookings", http.StatusUnauthorized},
		{http.MethodGet, "/bookings/b-1", http.StatusUnauthorized},
		{http.MethodPatch, "/bookings/b-1", http.StatusUnauthorized},
		{http.MethodDelete, "/bookings/b-1", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			api.handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
