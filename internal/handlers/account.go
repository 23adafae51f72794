package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/models"
	"github.com/averlow/otpgate/internal/services"
	pkgauth "github.com/averlow/otpgate/pkg/auth"
)

// AccountServiceInterface defines the account business logic the handlers need
type AccountServiceInterface interface {
	Signup(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AccountHandler serves the signup, login, dashboard, and logout pages
type AccountHandler struct {
	service        AccountServiceInterface
	rd             *Renderer
	cookies        auth.CookieConfig
	sessionExpiry  time.Duration
	pendingExpiry  time.Duration
}

func NewAccountHandler(service AccountServiceInterface, rd *Renderer, cookies auth.CookieConfig, sessionExpiry, pendingExpiry time.Duration) *AccountHandler {
	return &AccountHandler{
		service:       service,
		rd:            rd,
		cookies:       cookies,
		sessionExpiry: sessionExpiry,
		pendingExpiry: pendingExpiry,
	}
}

// Form DTOs

// SignupForm represents the signup form submission
type SignupForm struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required,min=1,max=100"`
	Password string `validate:"required,min=8,max=128"`
}

// LoginForm represents the login form submission
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type formPage struct {
	Error string
}

// Home renders the landing page.
func (h *AccountHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.rd.Render(w, http.StatusOK, "index.html", nil)
}

// SignupPage renders the registration form.
func (h *AccountHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.rd.Render(w, http.StatusOK, "signup.html", formPage{})
}

// Signup handles the registration form submission.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.rd.Render(w, http.StatusBadRequest, "signup.html", formPage{Error: "Invalid form submission"})
		return
	}

	form := SignupForm{
		Email:    r.PostFormValue("email"),
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
	}

	if err := ValidateForm(form); err != nil {
		h.rd.Render(w, http.StatusBadRequest, "signup.html", formPage{Error: err.Error()})
		return
	}

	_, err := h.service.Signup(r.Context(), form.Email, form.Name, form.Password)
	if err != nil {
		var pve *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &pve):
			h.rd.Render(w, http.StatusBadRequest, "signup.html", formPage{Error: pve.Error()})
		case errors.Is(err, models.ErrDuplicateEmail):
			h.rd.Render(w, http.StatusConflict, "signup.html", formPage{Error: "That email is already registered"})
		default:
			h.rd.ServerError(w)
		}
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage renders the credential form.
func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.rd.Render(w, http.StatusOK, "login.html", formPage{})
}

// Login handles the credential form submission. With MFA enabled the client
// only receives a pending-MFA cookie; the full session is withheld until the
// second factor succeeds.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.rd.Render(w, http.StatusBadRequest, "login.html", formPage{Error: "Invalid form submission"})
		return
	}

	form := LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if err := ValidateForm(form); err != nil {
		h.rd.Render(w, http.StatusBadRequest, "login.html", formPage{Error: err.Error()})
		return
	}

	result, err := h.service.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			h.rd.Render(w, http.StatusUnauthorized, "login.html", formPage{Error: "Incorrect email or password"})
			return
		}
		h.rd.ServerError(w)
		return
	}

	if result.MFARequired {
		auth.SetPendingCookie(w, result.Token, h.pendingExpiry, h.cookies)
		http.Redirect(w, r, "/mfa-verify", http.StatusSeeOther)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.sessionExpiry, h.cookies)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// dashboardPage is the data for the dashboard view
type dashboardPage struct {
	Name       string
	Email      string
	MFAEnabled bool
	Notice     string
}

// Dashboard renders the protected landing view for a signed-in user.
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.rd.ServerError(w)
		return
	}

	var notice string
	switch r.URL.Query().Get("mfa") {
	case "enabled":
		notice = "Two-factor authentication is now enabled."
	case "disabled":
		notice = "Two-factor authentication has been disabled."
	}

	h.rd.Render(w, http.StatusOK, "dashboard.html", dashboardPage{
		Name:       user.Name,
		Email:      user.Email,
		MFAEnabled: user.MFAEnabled(),
		Notice:     notice,
	})
}

// Logout discards the client-held tokens. Sessions are stateless signed
// claims, so there is nothing server-side to revoke; the token simply
// expires on its own after the cookie is gone.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookies)
	auth.ClearPendingCookie(w, h.cookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
