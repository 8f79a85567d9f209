package controllers

import (
	"log/slog"
	"net/http"

	"eventservices/internal/delivery/http/helpers"
)

// writeServiceError maps a service error onto the response envelope and logs
// the ones the client cannot fix.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, _, _ := helpers.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}
