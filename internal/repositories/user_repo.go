package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/averlow/otpgate/internal/database"
	"github.com/averlow/otpgate/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, name, password_hash, mfa_status, mfa_secret_enc, mfa_secret_nonce, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db.SQL}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable columns and populates a User model
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var secretEnc, secretNonce []byte

	err := scanner.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.MFAStatus, &secretEnc, &secretNonce,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}

	user.MFASecretEnc = secretEnc
	user.MFASecretNonce = secretNonce

	return &user, nil
}

// Create inserts a new user. A duplicate email loses to the unique index
// and comes back as models.ErrDuplicateEmail, regardless of timing.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.MFAStatus == "" {
		user.MFAStatus = models.MFAStatusNone
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, mfa_status, mfa_secret_enc, mfa_secret_nonce, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash,
		user.MFAStatus, user.MFASecretEnc, user.MFASecretNonce,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUserRow(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUserRow(r.db.QueryRowContext(ctx, query, id))
}

// UpdateMFA persists an MFA state transition. Passing nil secret and nonce
// clears the stored secret (the none state).
func (r *UserRepository) UpdateMFA(ctx context.Context, id, status string, secretEnc, secretNonce []byte) error {
	query := `
		UPDATE users SET mfa_status = ?, mfa_secret_enc = ?, mfa_secret_nonce = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, secretEnc, secretNonce, time.Now().UTC(), id)
	if err != nil {
		return database.MapSQLiteError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	return nil
}
