package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/models"
	"github.com/averlow/otpgate/internal/services"
)

// MFAServiceInterface defines the MFA business logic the handlers need
type MFAServiceInterface interface {
	BeginSetup(ctx context.Context, userID string) (*services.SetupInfo, error)
	Enable(ctx context.Context, userID, code string) error
	VerifyLogin(ctx context.Context, userID, code string) (string, error)
	Disable(ctx context.Context, userID, code string) error
}

// MFAHandler serves the MFA enrollment and second-factor challenge pages
type MFAHandler struct {
	service       MFAServiceInterface
	accounts      AccountServiceInterface
	rd            *Renderer
	cookies       auth.CookieConfig
	sessionExpiry time.Duration
}

func NewMFAHandler(service MFAServiceInterface, accounts AccountServiceInterface, rd *Renderer, cookies auth.CookieConfig, sessionExpiry time.Duration) *MFAHandler {
	return &MFAHandler{
		service:       service,
		accounts:      accounts,
		rd:            rd,
		cookies:       cookies,
		sessionExpiry: sessionExpiry,
	}
}

// CodeForm represents a submitted TOTP code
type CodeForm struct {
	Code string `validate:"required,len=6,numeric"`
}

// setupPage is the data for the provisioning view
type setupPage struct {
	Secret    string
	QRDataURL string
	Error     string
}

// SetupPage renders the provisioning QR and secret. For an account that has
// already completed enrollment it short-circuits to the already-set-up view
// without regenerating anything.
func (h *MFAHandler) SetupPage(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	info, err := h.service.BeginSetup(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.rd.ServerError(w)
		return
	}

	if info.AlreadyEnabled {
		h.rd.Render(w, http.StatusOK, "mfa_already_setup.html", nil)
		return
	}

	var pageErr string
	if r.URL.Query().Get("error") == "invalid_code" {
		pageErr = "That code was not valid. Scan the QR code and try again."
	}

	h.rd.Render(w, http.StatusOK, "setup_mfa.html", setupPage{
		Secret:    info.Secret,
		QRDataURL: info.QRDataURL,
		Error:     pageErr,
	})
}

// Enable completes enrollment with a code from the authenticator.
func (h *MFAHandler) Enable(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/setup-mfa?error=invalid_code", http.StatusSeeOther)
		return
	}

	form := CodeForm{Code: r.PostFormValue("code")}
	if err := ValidateForm(form); err != nil {
		http.Redirect(w, r, "/setup-mfa?error=invalid_code", http.StatusSeeOther)
		return
	}

	if err := h.service.Enable(r.Context(), claims.UserID, form.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCode):
			// Setup resumes with the same pending secret, so the QR the
			// user already scanned stays valid.
			http.Redirect(w, r, "/setup-mfa?error=invalid_code", http.StatusSeeOther)
		case errors.Is(err, models.ErrMFANotPending):
			http.Redirect(w, r, "/setup-mfa", http.StatusSeeOther)
		case errors.Is(err, models.ErrNotFound):
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			h.rd.ServerError(w)
		}
		return
	}

	http.Redirect(w, r, "/dashboard?mfa=enabled", http.StatusSeeOther)
}

// VerifyPage renders the second-factor challenge during login.
func (h *MFAHandler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	h.rd.Render(w, http.StatusOK, "mfa_verify.html", formPage{})
}

// Verify exchanges the pending-MFA token plus a valid code for a full
// session. An invalid code re-renders the challenge; retries are allowed.
func (h *MFAHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.rd.Render(w, http.StatusBadRequest, "mfa_verify.html", formPage{Error: "Invalid form submission"})
		return
	}

	form := CodeForm{Code: r.PostFormValue("code")}
	if err := ValidateForm(form); err != nil {
		h.rd.Render(w, http.StatusUnauthorized, "mfa_verify.html", formPage{Error: "Enter the 6-digit code from your authenticator app"})
		return
	}

	token, err := h.service.VerifyLogin(r.Context(), claims.UserID, form.Code)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCode):
			h.rd.Render(w, http.StatusUnauthorized, "mfa_verify.html", formPage{Error: "Invalid code, try again"})
		case errors.Is(err, models.ErrMFANotEnabled), errors.Is(err, models.ErrUnauthorized):
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			h.rd.ServerError(w)
		}
		return
	}

	auth.ClearPendingCookie(w, h.cookies)
	auth.SetSessionCookie(w, token, h.sessionExpiry, h.cookies)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// DisablePage renders the code-confirmation form for turning MFA off.
func (h *MFAHandler) DisablePage(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.accounts.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.rd.ServerError(w)
		return
	}

	if !user.MFAEnabled() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	h.rd.Render(w, http.StatusOK, "disable_mfa.html", formPage{})
}

// Disable turns MFA off after a valid code confirms possession of the
// authenticator.
func (h *MFAHandler) Disable(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.rd.Render(w, http.StatusBadRequest, "disable_mfa.html", formPage{Error: "Invalid form submission"})
		return
	}

	form := CodeForm{Code: r.PostFormValue("code")}
	if err := ValidateForm(form); err != nil {
		h.rd.Render(w, http.StatusUnauthorized, "disable_mfa.html", formPage{Error: "Enter the 6-digit code from your authenticator app"})
		return
	}

	if err := h.service.Disable(r.Context(), claims.UserID, form.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCode):
			h.rd.Render(w, http.StatusUnauthorized, "disable_mfa.html", formPage{Error: "Invalid code, try again"})
		case errors.Is(err, models.ErrMFANotEnabled):
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		case errors.Is(err, models.ErrNotFound):
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			h.rd.ServerError(w)
		}
		return
	}

	http.Redirect(w, r, "/dashboard?mfa=disabled", http.StatusSeeOther)
}
