package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"eventservices/internal/delivery/http/helpers"
	"eventservices/internal/delivery/http/middleware"
	"eventservices/internal/domain"
)

// CreateBookingRequest is the request body for POST /bookings.
type CreateBookingRequest struct {
	ProviderID string      `json:"provider_id"`
	UserID     string      `json:"user_id"` // admins only; defaults to the caller
	Slot       SlotRequest `json:"slot"`
}

// Validate implements Validator. Ordering of start and end is checked by the booking engine.
func (c CreateBookingRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.ProviderID) == "" {
		errs = append(errs, "provider_id is required")
	}
	if c.Slot.Start.IsZero() {
		errs = append(errs, "slot.start is required")
	}
	if c.Slot.End.IsZero() {
		errs = append(errs, "slot.end is required")
	}
	return errs
}

// TransitionBookingRequest is the request body for PATCH /bookings/{bookingID}.
type TransitionBookingRequest struct {
	TargetStatus string `json:"target_status"`
}

// Validate implements Validator.
func (t TransitionBookingRequest) Validate() []string {
	if strings.TrimSpace(t.TargetStatus) == "" {
		return []string{"target_status is required"}
	}
	return nil
}

// BookingSuccessResponse is the success response envelope for a single booking.
type BookingSuccessResponse struct {
	Data  *domain.Booking   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListBookingsSuccessResponse is the success response envelope for GET /bookings (200).
type ListBookingsSuccessResponse struct {
	Data  []domain.Booking  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BookingController maps the booking engine onto HTTP.
type BookingController struct {
	Logger    *slog.Logger
	Service   domain.BookingService
	Providers domain.ProviderCatalog
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService, providers domain.ProviderCatalog) *BookingController {
	return &BookingController{
		Logger:    logger,
		Service:   svc,
		Providers: providers,
	}
}

// CreateBooking godoc
// @Summary Book a provider for a slot
// @Description Creates a pending booking for the caller. Admins may book on behalf of user_id. The slot must fit inside one availability window and the provider must have capacity left at every instant of it.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBookingRequest true "Booking data"
// @Success 201 {object} controllers.BookingSuccessResponse "data contains the created booking"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, invalid_slot, outside_availability"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: unknown_user, unknown_provider"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_full, duplicate_booking"
// @Failure 503 {object} helpers.APIResponse "error.code: storage_unavailable"
// @Router /bookings [post]
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID := requester.UserID
	if req.UserID != "" && req.UserID != requester.UserID {
		if requester.Role != domain.RoleAdmin {
			helpers.WriteDomainError(w, domain.ErrForbidden)
			return
		}
		userID = req.UserID
	}
	booking, err := c.Service.CreateBooking(r.Context(), userID, strings.TrimSpace(req.ProviderID), req.Slot.toDomain())
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, booking)
}

// TransitionBooking godoc
// @Summary Change a booking's status
// @Description Allowed moves: pending to confirmed or cancelled, confirmed to cancelled or completed. The booking owner, an admin or the organizer owning the provider may call it.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID"
// @Param body body TransitionBookingRequest true "Target status"
// @Success 200 {object} controllers.BookingSuccessResponse "data contains the updated booking"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: unknown_booking"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition, slot_full"
// @Failure 503 {object} helpers.APIResponse "error.code: storage_unavailable"
// @Router /bookings/{bookingID} [patch]
func (c *BookingController) TransitionBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("bookingID")
	if bookingID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing bookingID")
		return
	}
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req TransitionBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	target := domain.BookingStatus(strings.TrimSpace(req.TargetStatus))
	booking, err := c.Service.Transition(r.Context(), bookingID, requester, target)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// GetBooking godoc
// @Summary Get a booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} controllers.BookingSuccessResponse "data contains the booking"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: unknown_booking"
// @Failure 503 {object} helpers.APIResponse "error.code: storage_unavailable"
// @Router /bookings/{bookingID} [get]
func (c *BookingController) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("bookingID")
	if bookingID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing bookingID")
		return
	}
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	booking, err := c.Service.GetBooking(r.Context(), bookingID, requester)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// ListBookings godoc
// @Summary List bookings
// @Description Bookings ordered by slot start, then creation time. Guests see their own bookings; organizers may also list the bookings of a provider they own; admins see everything.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Filter by user"
// @Param provider_id query string false "Filter by provider"
// @Param status query string false "Filter by status"
// @Success 200 {object} controllers.ListBookingsSuccessResponse "data contains the bookings"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 503 {object} helpers.APIResponse "error.code: storage_unavailable"
// @Router /bookings [get]
func (c *BookingController) ListBookings(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	filter := domain.ListBookingsFilter{
		UserID:     strings.TrimSpace(q.Get("user_id")),
		ProviderID: strings.TrimSpace(q.Get("provider_id")),
		Status:     domain.BookingStatus(strings.TrimSpace(q.Get("status"))),
	}
	filter, err := c.scopeFilter(r, requester, filter)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	seq, err := c.Service.ListBookings(r.Context(), filter)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	list := slices.Collect(seq)
	if list == nil {
		list = []domain.Booking{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// scopeFilter narrows filter to what requester may see.
func (c *BookingController) scopeFilter(r *http.Request, requester domain.Requester, filter domain.ListBookingsFilter) (domain.ListBookingsFilter, error) {
	if requester.Role == domain.RoleAdmin {
		return filter, nil
	}
	if filter.ProviderID != "" && requester.Role == domain.RoleOrganizer {
		p, err := c.Providers.GetProvider(r.Context(), filter.ProviderID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return filter, domain.ErrUnknownProvider
		case err != nil:
			return filter, err
		case p.OwnerID == requester.UserID:
			return filter, nil
		}
	}
	if filter.UserID != "" && filter.UserID != requester.UserID {
		return filter, domain.ErrForbidden
	}
	filter.UserID = requester.UserID
	return filter, nil
}
