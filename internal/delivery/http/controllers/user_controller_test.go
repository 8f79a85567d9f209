package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventservices/internal/delivery/http/helpers"
	"eventservices/internal/delivery/http/middleware"
	"eventservices/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	registerUser *domain.User
	registerErr  error
	lastRegister []string
	loginToken   string
	loginUser    *domain.User
	loginErr     error
	rotateErr    error
	lastRotate   []string
	getByIDUser  *domain.User
	getByIDErr   error
	lastGetByID  string
}

func (f *fakeUserService) Register(_ context.Context, username, password, email string, role domain.Role) (*domain.User, error) {
	f.lastRegister = []string{username, password, email, string(role)}
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerUser, nil
}

func (f *fakeUserService) Login(_ context.Context, username, password string) (string, *domain.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return f.loginToken, f.loginUser, nil
}

func (f *fakeUserService) RotatePassword(_ context.Context, userID, current, next string) error {
	f.lastRotate = []string{userID, current, next}
	return f.rotateErr
}

func (f *fakeUserService) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.lastGetByID = id
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.getByIDUser, nil
}

func withUser(req *http.Request, userID string, role domain.Role) *http.Request {
	return req.WithContext(middleware.SetClaims(req.Context(), domain.Claims{UserID: userID, Role: role}))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if data != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return envelope
}

func TestUserController_Register(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		fakeErr      error
		wantStatus   int
		wantCode     string
		wantRegister []string
	}{
		{
			name:         "success",
			body:         `{"username":"alice","password":"password123","email":"a@b.com","role":"organizer"}`,
			wantStatus:   http.StatusCreated,
			wantRegister: []string{"alice", "password123", "a@b.com", "organizer"},
		},
		{
			name:       "missing fields",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unknown field rejected",
			body:       `{"username":"alice","password":"password123","id":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "validation error from service",
			body:       `{"username":"alice","password":"short"}`,
			fakeErr:    errors.Join(domain.ErrInvalidInput, errors.New("password must be at least 8 characters")),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "username taken",
			body:       `{"username":"alice","password":"password123"}`,
			fakeErr:    domain.ErrDuplicateUsername,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "admin self-registration",
			body:       `{"username":"root","password":"password123","role":"admin"}`,
			fakeErr:    domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   domain.CodeForbidden,
		},
		{
			name:       "unexpected error",
			body:       `{"username":"alice","password":"password123"}`,
			fakeErr:    errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{registerErr: tt.fakeErr, registerUser: &domain.User{ID: "user-1", Username: "alice", Role: domain.RoleOrganizer}}
			ctrl := NewUserController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			ctrl.Register(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var user domain.User
			envelope := decodeEnvelope(t, rr, &user)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "user-1", user.ID)
				assert.Equal(t, tt.wantRegister, fake.lastRegister)
				assert.NotContains(t, rr.Body.String(), "password")
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestUserController_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "success", body: `{"username":"alice","password":"password123"}`, wantStatus: http.StatusOK},
		{name: "bad credentials", body: `{"username":"alice","password":"nope"}`, fakeErr: domain.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "missing password", body: `{"username":"alice"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "invalid json", body: `{invalid`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{loginErr: tt.fakeErr, loginToken: "jwt-token", loginUser: &domain.User{ID: "user-1", Username: "alice"}}
			ctrl := NewUserController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			ctrl.Login(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var resp LoginResponse
			envelope := decodeEnvelope(t, rr, &resp)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "jwt-token", resp.Token)
				assert.Equal(t, "Bearer", resp.TokenType)
				assert.Equal(t, "user-1", resp.User.ID)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestUserController_GetMe(t *testing.T) {
	tests := []struct {
		name          string
		contextUserID string
		fakeErr       error
		wantStatus    int
		wantCode      string
	}{
		{name: "success", contextUserID: "user-123", wantStatus: http.StatusOK},
		{name: "no user in context", wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "user vanished", contextUserID: "user-123", fakeErr: domain.ErrUnknownUser, wantStatus: http.StatusNotFound, wantCode: domain.CodeUnknownUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{
				getByIDErr:  tt.fakeErr,
				getByIDUser: &domain.User{ID: "user-123", Username: "alice", CreatedAt: time.Now(), UpdatedAt: time.Now()},
			}
			ctrl := NewUserController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.contextUserID != "" {
				req = withUser(req, tt.contextUserID, domain.RoleGuest)
			}
			rr := httptest.NewRecorder()

			ctrl.GetMe(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var user domain.User
			envelope := decodeEnvelope(t, rr, &user)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "user-123", user.ID)
				assert.Equal(t, "user-123", fake.lastGetByID)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestUserController_ChangePassword(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		noUser     bool
		fakeErr    error
		wantStatus int
	}{
		{name: "success", body: `{"current_password":"old-password","new_password":"new-password"}`, wantStatus: http.StatusNoContent},
		{name: "wrong current password", body: `{"current_password":"x","new_password":"new-password"}`, fakeErr: domain.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "missing new password", body: `{"current_password":"old-password"}`, wantStatus: http.StatusBadRequest},
		{name: "unauthenticated", body: `{}`, noUser: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{rotateErr: tt.fakeErr}
			ctrl := NewUserController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPut, "/users/me/password", bytes.NewBufferString(tt.body))
			if !tt.noUser {
				req = withUser(req, "user-123", domain.RoleGuest)
			}
			rr := httptest.NewRecorder()

			ctrl.ChangePassword(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, []string{"user-123", "old-password", "new-password"}, fake.lastRotate)
			}
		})
	}
}
