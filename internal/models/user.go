package models

import (
	"time"
)

// MFA enrollment states for a user. The secret columns are only populated
// while the state is pending or enabled.
const (
	MFAStatusNone    = "none"
	MFAStatusPending = "pending"
	MFAStatusEnabled = "enabled"
)

type User struct {
	ID             string
	Email          string
	Name           string
	PasswordHash   string
	MFAStatus      string // "none", "pending", "enabled"
	MFASecretEnc   []byte // AES-256-GCM ciphertext of the base32 TOTP secret
	MFASecretNonce []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MFAEnabled reports whether the user has completed MFA enrollment.
// A pending secret alone must never satisfy a second-factor check.
func (u *User) MFAEnabled() bool {
	return u.MFAStatus == MFAStatusEnabled
}
