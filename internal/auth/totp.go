package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	totpPeriod     = 30 // seconds per time step
	totpSecretSize = 32 // 256-bit secret, comfortably above the 160-bit floor
)

// TOTPManager handles TOTP secret generation, at-rest encryption, and code
// validation.
type TOTPManager struct {
	encryptionKey []byte // 32-byte AES-256 key
	issuer        string // issuer label shown in authenticator apps
}

// NewTOTPManager creates a TOTP manager.
// encryptionKey must be exactly 32 bytes for AES-256.
func NewTOTPManager(encryptionKey []byte, issuer string) (*TOTPManager, error) {
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("encryption key must be exactly 32 bytes, got %d", len(encryptionKey))
	}

	return &TOTPManager{
		encryptionKey: encryptionKey,
		issuer:        issuer,
	}, nil
}

// GenerateSecret creates a fresh random base32 secret for the given account.
func (tm *TOTPManager) GenerateSecret(accountEmail string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      tm.issuer,
		AccountName: accountEmail,
		SecretSize:  totpSecretSize,
		Period:      totpPeriod,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), nil
}

// ProvisioningURI builds the standard otpauth:// URI authenticator apps
// consume, labeled with the account email and the configured issuer.
func (tm *TOTPManager) ProvisioningURI(secret, accountEmail string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", tm.issuer)
	v.Set("period", strconv.Itoa(totpPeriod))
	v.Set("algorithm", otp.AlgorithmSHA1.String())
	v.Set("digits", otp.DigitsSix.String())

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + tm.issuer + ":" + accountEmail,
		RawQuery: v.Encode(),
	}

	return u.String()
}

// QRDataURL renders a provisioning URI as a PNG data URL for inline <img>
// embedding. QR rendering is a presentation concern; nothing here parses it.
func (tm *TOTPManager) QRDataURL(provisioningURI string) (string, error) {
	qr, err := qrcode.New(provisioningURI, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	qrImage, err := qr.PNG(200)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrImage), nil
}

// ValidateCode checks a submitted 6-digit code against a base32 secret at
// the given time. Skew of 1 accepts the immediately adjacent 30-second
// windows to absorb clock drift; anything two or more steps away fails.
func (tm *TOTPManager) ValidateCode(secret, code string, at time.Time) (bool, error) {
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// Malformed input (wrong length, bad base32) is just an invalid code
		// to the caller.
		return false, nil
	}
	return valid, nil
}

// EncryptSecret encrypts a TOTP secret for storage using AES-256-GCM.
// Returns the ciphertext and the nonce used.
func (tm *TOTPManager) EncryptSecret(secret string) ([]byte, []byte, error) {
	block, err := aes.NewCipher(tm.encryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(secret), nil)

	return ciphertext, nonce, nil
}

// DecryptSecret recovers a stored TOTP secret.
func (tm *TOTPManager) DecryptSecret(encrypted, nonce []byte) (string, error) {
	block, err := aes.NewCipher(tm.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}

	return string(plaintext), nil
}
