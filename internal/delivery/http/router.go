package http

import (
	"net/http"

	"eventservices/internal/delivery/http/controllers"
	"eventservices/internal/delivery/http/helpers"

	httpSwagger "github.com/swaggo/http-swagger"
)

// AuthMiddleware wraps a handler that requires an authenticated caller.
type AuthMiddleware func(http.HandlerFunc) http.HandlerFunc

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	userController *controllers.UserController,
	providerController *controllers.ProviderController,
	bookingController *controllers.BookingController,
	requireAuth AuthMiddleware,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/register", userController.Register)
	mux.HandleFunc("POST /auth/login", userController.Login)

	// Users
	mux.HandleFunc("GET /users/me", requireAuth(userController.GetMe))
	mux.HandleFunc("PUT /users/me/password", requireAuth(userController.ChangePassword))

	// Providers
	mux.HandleFunc("GET /providers", providerController.ListProviders)
	mux.HandleFunc("GET /providers/{providerID}", providerController.GetProvider)
	mux.HandleFunc("POST /providers", requireAuth(providerController.CreateProvider))

	// Bookings
	mux.HandleFunc("POST /bookings", requireAuth(bookingController.CreateBooking))
	mux.HandleFunc("GET /bookings", requireAuth(bookingController.ListBookings))
	mux.HandleFunc("GET /bookings/{bookingID}", requireAuth(bookingController.GetBooking))
	mux.HandleFunc("PATCH /bookings/{bookingID}", requireAuth(bookingController.TransitionBooking))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
