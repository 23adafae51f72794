package routes

import (
	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/handlers"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	accountHandler *handlers.AccountHandler,
	mfaHandler *handlers.MFAHandler,
	tokenManager *auth.TokenManager,
) {
	// Public routes - no token required
	router.Get("/", accountHandler.Home)
	router.Get("/signup", accountHandler.SignupPage)
	router.Post("/signup", accountHandler.Signup)
	router.Get("/login", accountHandler.LoginPage)
	router.Post("/login", accountHandler.Login)
	router.Post("/logout", accountHandler.Logout)

	// Second-factor challenge - pending-MFA token only
	router.Group(func(r chi.Router) {
		r.Use(auth.RequirePending(tokenManager))

		r.Get("/mfa-verify", mfaHandler.VerifyPage)
		r.Post("/mfa-verify", mfaHandler.Verify)
	})

	// Protected routes - full session required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(tokenManager))

		r.Get("/dashboard", accountHandler.Dashboard)
		r.Get("/setup-mfa", mfaHandler.SetupPage)
		r.Post("/enable-mfa", mfaHandler.Enable)
		r.Get("/disable-mfa", mfaHandler.DisablePage)
		r.Post("/disable-mfa", mfaHandler.Disable)
	})
}
