package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventservices/internal/delivery/http/helpers"
	"eventservices/internal/delivery/http/middleware"
	"eventservices/internal/domain"
)

// SlotRequest is a half-open [start, end) interval in RFC 3339.
type SlotRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s SlotRequest) toDomain() domain.Slot {
	return domain.NewSlot(s.Start, s.End)
}

// CreateProviderRequest is the request body for POST /providers.
type CreateProviderRequest struct {
	Category            string        `json:"category"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	Capacity            int           `json:"capacity"`
	OwnerID             string        `json:"owner_id"` // admins only; organizers always own what they create
	AvailabilityWindows []SlotRequest `json:"availability_windows"`
}

// Validate implements Validator.
func (c CreateProviderRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Category) == "" {
		errs = append(errs, "category is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	for _, w := range c.AvailabilityWindows {
		if w.Start.IsZero() || w.End.IsZero() {
			errs = append(errs, "availability windows need start and end")
			break
		}
	}
	return errs
}

// ProviderSuccessResponse is the success response envelope for a single provider.
type ProviderSuccessResponse struct {
	Data  *domain.Provider  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListProvidersResponse is the response body for GET /providers.
type ListProvidersResponse struct {
	Items      []*domain.Provider     `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListProvidersSuccessResponse is the success response envelope for GET /providers (200).
type ListProvidersSuccessResponse struct {
	Data  ListProvidersResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ProviderController serves the vendor, guest speaker and transportation listings.
type ProviderController struct {
	Logger  *slog.Logger
	Service domain.ProviderService
}

func NewProviderController(logger *slog.Logger, svc domain.ProviderService) *ProviderController {
	return &ProviderController{
		Logger:  logger,
		Service: svc,
	}
}

// ListProviders godoc
// @Summary List providers
// @Description Lists providers ordered by name. Filter by category: vendor, guestSpeaker or transportationProvider.
// @Tags providers
// @Produce json
// @Param category query string false "Provider category"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListProvidersSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /providers [get]
func (c *ProviderController) ListProviders(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	category := domain.ProviderCategory(strings.TrimSpace(r.URL.Query().Get("category")))
	list, total, err := c.Service.List(r.Context(), category, params)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Provider{}
	}
	meta := helpers.NewPaginationMeta(params, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListProvidersResponse{Items: list, Pagination: meta})
}

// GetProvider godoc
// @Summary Get a provider
// @Tags providers
// @Produce json
// @Param providerID path string true "Provider ID"
// @Success 200 {object} controllers.ProviderSuccessResponse "data contains the provider"
// @Failure 404 {object} helpers.APIResponse "error.code: unknown_provider"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /providers/{providerID} [get]
func (c *ProviderController) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("providerID")
	if providerID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing providerID")
		return
	}
	p, err := c.Service.GetProvider(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, domain.CodeUnknownProvider, domain.ErrUnknownProvider.Error())
			return
		}
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// CreateProvider godoc
// @Summary Create a provider listing
// @Description Organizers and admins create listings. Windows are sorted and must not overlap. The caller becomes the owner unless an admin names one.
// @Tags providers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateProviderRequest true "Provider data"
// @Success 201 {object} controllers.ProviderSuccessResponse "data contains the created provider"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /providers [post]
func (c *ProviderController) CreateProvider(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateProviderRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	windows := make([]domain.Slot, len(req.AvailabilityWindows))
	for i, s := range req.AvailabilityWindows {
		windows[i] = s.toDomain()
	}
	p := &domain.Provider{
		Category:            domain.ProviderCategory(strings.TrimSpace(req.Category)),
		Name:                req.Name,
		Description:         req.Description,
		OwnerID:             req.OwnerID,
		Capacity:            req.Capacity,
		AvailabilityWindows: windows,
	}
	if err := c.Service.Create(r.Context(), requester, p); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}
