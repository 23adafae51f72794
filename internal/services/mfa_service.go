package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/averlow/otpgate/internal/auth"
	"github.com/averlow/otpgate/internal/models"
)

// MFAService handles TOTP enrollment and second-factor verification
type MFAService struct {
	repo    UserRepository
	totpMgr *auth.TOTPManager
	tm      *auth.TokenManager
	logger  *slog.Logger
}

func NewMFAService(repo UserRepository, totpMgr *auth.TOTPManager, tm *auth.TokenManager, logger *slog.Logger) *MFAService {
	return &MFAService{
		repo:    repo,
		totpMgr: totpMgr,
		tm:      tm,
		logger:  logger,
	}
}

// SetupInfo is what the setup page renders. When AlreadyEnabled is set the
// other fields are empty and nothing was written.
type SetupInfo struct {
	AlreadyEnabled bool
	Secret         string
	QRDataURL      string
}

// BeginSetup returns the provisioning material for TOTP enrollment.
// Idempotent once enrollment is complete: calling it against an enabled
// account never touches the stored secret, which would silently break the
// user's working authenticator. A setup already in progress is resumed with
// the same secret; a fresh one is generated and stored only on the first
// setup request.
func (s *MFAService) BeginSetup(ctx context.Context, userID string) (*SetupInfo, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user for mfa setup", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.MFAEnabled() {
		return &SetupInfo{AlreadyEnabled: true}, nil
	}

	var secret string
	if user.MFAStatus == models.MFAStatusPending {
		secret, err = s.totpMgr.DecryptSecret(user.MFASecretEnc, user.MFASecretNonce)
		if err != nil {
			s.logger.Error("failed to decrypt pending secret", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	} else {
		secret, err = s.totpMgr.GenerateSecret(user.Email)
		if err != nil {
			s.logger.Error("failed to generate TOTP secret", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		secretEnc, nonce, err := s.totpMgr.EncryptSecret(secret)
		if err != nil {
			s.logger.Error("failed to encrypt TOTP secret", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		if err := s.repo.UpdateMFA(ctx, user.ID, models.MFAStatusPending, secretEnc, nonce); err != nil {
			s.logger.Error("failed to store pending secret", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.logger.Info("mfa setup initiated", slog.String("user_id", user.ID))
	}

	qrDataURL, err := s.totpMgr.QRDataURL(s.totpMgr.ProvisioningURI(secret, user.Email))
	if err != nil {
		s.logger.Error("failed to render QR code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &SetupInfo{Secret: secret, QRDataURL: qrDataURL}, nil
}

// Enable completes enrollment: the user proves possession of the pending
// secret with one valid code, and only then does the enabled flag flip.
func (s *MFAService) Enable(ctx context.Context, userID, code string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for mfa enable", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.MFAStatus != models.MFAStatusPending {
		return models.ErrMFANotPending
	}

	valid, err := s.validateStoredSecret(user, code)
	if err != nil {
		return err
	}
	if !valid {
		s.logger.Warn("invalid code during mfa enrollment", slog.String("user_id", user.ID))
		return models.ErrInvalidCode
	}

	if err := s.repo.UpdateMFA(ctx, user.ID, models.MFAStatusEnabled, user.MFASecretEnc, user.MFASecretNonce); err != nil {
		s.logger.Error("failed to enable mfa", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("mfa enabled", slog.String("user_id", user.ID))

	return nil
}

// VerifyLogin checks the second factor during login and exchanges the
// pending state for a full session token. Codes are only ever accepted
// against an account whose enabled flag is set; a pending secret does not
// count. Failures are retryable; there is no attempt limit.
func (s *MFAService) VerifyLogin(ctx context.Context, userID, code string) (string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for mfa verify", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if !user.MFAEnabled() {
		return "", models.ErrMFANotEnabled
	}

	valid, err := s.validateStoredSecret(user, code)
	if err != nil {
		return "", err
	}
	if !valid {
		s.logger.Warn("invalid second factor", slog.String("user_id", user.ID))
		return "", models.ErrInvalidCode
	}

	token, err := s.tm.IssueSession(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.logger.Info("second factor verified", slog.String("user_id", user.ID))

	return token, nil
}

// Disable turns MFA off after a code-verified confirmation and clears the
// stored secret.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for mfa disable", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !user.MFAEnabled() {
		return models.ErrMFANotEnabled
	}

	valid, err := s.validateStoredSecret(user, code)
	if err != nil {
		return err
	}
	if !valid {
		s.logger.Warn("invalid code during mfa disable", slog.String("user_id", user.ID))
		return models.ErrInvalidCode
	}

	if err := s.repo.UpdateMFA(ctx, user.ID, models.MFAStatusNone, nil, nil); err != nil {
		s.logger.Error("failed to disable mfa", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("mfa disabled", slog.String("user_id", user.ID))

	return nil
}

func (s *MFAService) validateStoredSecret(user *models.User, code string) (bool, error) {
	secret, err := s.totpMgr.DecryptSecret(user.MFASecretEnc, user.MFASecretNonce)
	if err != nil {
		s.logger.Error("failed to decrypt TOTP secret", slog.String("user_id", user.ID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	return s.totpMgr.ValidateCode(secret, code, time.Now())
}
