package domain

import "errors"

// Sentinel errors returned by the booking engine and its collaborators.
// Callers compare with errors.Is; storage failures are wrapped with ErrStorageUnavailable.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnknownUser         = errors.New("user does not exist")
	ErrUnknownProvider     = errors.New("provider does not exist")
	ErrUnknownBooking      = errors.New("booking does not exist")
	ErrInvalidSlot         = errors.New("slot start must be before slot end")
	ErrOutsideAvailability = errors.New("slot is outside the provider's availability")
	ErrSlotFull            = errors.New("slot is fully booked")
	ErrDuplicateBooking    = errors.New("user already holds an overlapping booking with this provider")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("status transition is not allowed")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDuplicateUsername   = errors.New("username already in use")
)

// Stable machine-readable codes for the errors above.
const (
	CodeUnknownUser         = "unknown_user"
	CodeUnknownProvider     = "unknown_provider"
	CodeUnknownBooking      = "unknown_booking"
	CodeInvalidSlot         = "invalid_slot"
	CodeOutsideAvailability = "outside_availability"
	CodeSlotFull            = "slot_full"
	CodeDuplicateBooking    = "duplicate_booking"
	CodeForbidden           = "forbidden"
	CodeInvalidTransition   = "invalid_transition"
	CodeStorageUnavailable  = "storage_unavailable"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrUnknownUser, CodeUnknownUser},
	{ErrUnknownProvider, CodeUnknownProvider},
	{ErrUnknownBooking, CodeUnknownBooking},
	{ErrInvalidSlot, CodeInvalidSlot},
	{ErrOutsideAvailability, CodeOutsideAvailability},
	{ErrSlotFull, CodeSlotFull},
	{ErrDuplicateBooking, CodeDuplicateBooking},
	{ErrForbidden, CodeForbidden},
	{ErrInvalidTransition, CodeInvalidTransition},
	{ErrStorageUnavailable, CodeStorageUnavailable},
}

// ErrorCode returns the stable code for a booking error kind, or "" when err is not one of them.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}
