package helpers

import (
	"errors"
	"net/http"

	"eventservices/internal/domain"
)

var statusByCode = map[string]int{
	domain.CodeInvalidSlot:         http.StatusBadRequest,
	domain.CodeOutsideAvailability: http.StatusBadRequest,
	domain.CodeUnknownUser:         http.StatusNotFound,
	domain.CodeUnknownProvider:     http.StatusNotFound,
	domain.CodeUnknownBooking:      http.StatusNotFound,
	domain.CodeSlotFull:            http.StatusConflict,
	domain.CodeDuplicateBooking:    http.StatusConflict,
	domain.CodeInvalidTransition:   http.StatusConflict,
	domain.CodeForbidden:           http.StatusForbidden,
	domain.CodeStorageUnavailable:  http.StatusServiceUnavailable,
}

// StatusFor maps a domain error to its HTTP status and API error code.
// ok is false for errors with no domain meaning; callers treat those as 500.
func StatusFor(err error) (status int, code string, ok bool) {
	if code := domain.ErrorCode(err); code != "" {
		return statusByCode[code], code, true
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest, true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, true
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict, ErrCodeConflict, true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized, true
	}
	return http.StatusInternalServerError, ErrCodeInternalError, false
}

// WriteDomainError writes err using StatusFor. Storage failures do not leak
// their cause to the client.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, code, _ := StatusFor(err)
	msg := err.Error()
	if code == domain.CodeStorageUnavailable {
		msg = domain.ErrStorageUnavailable.Error()
	}
	WriteJSONError(w, status, code, msg)
}
