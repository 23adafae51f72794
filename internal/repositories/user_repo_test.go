package repositories

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/averlow/otpgate/internal/config"
	"github.com/averlow/otpgate/internal/database"
	"github.com/averlow/otpgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo opens a fresh file-backed database and applies migrations.
func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout: 5 * time.Second,
	}

	db, err := database.NewConnection(cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate())

	return NewUserRepository(db)
}

func testUser(email string) *models.User {
	return &models.User{
		Email:        email,
		Name:         "Ann",
		PasswordHash: "$2a$12$notarealhashbutlongenoughforthecolumn",
	}
}

func TestUserRepository_CreateAndGetByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, testUser("a@x.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.MFAStatusNone, created.MFAStatus)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, created.PasswordHash, got.PasswordHash)
	assert.Nil(t, got.MFASecretEnc)
	assert.Nil(t, got.MFASecretNonce)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	user, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_GetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, testUser("a@x.com"))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = repo.GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testUser("a@x.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testUser("a@x.com"))
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestUserRepository_Create_ConcurrentDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, testUser("race@x.com"))
		}(i)
	}
	wg.Wait()

	// Exactly one insert wins; every loser gets DuplicateEmail from the
	// unique index, regardless of timing.
	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		default:
			assert.ErrorIs(t, err, models.ErrDuplicateEmail)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, lost)
}

func TestUserRepository_UpdateMFA_Transitions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, testUser("a@x.com"))
	require.NoError(t, err)

	secretEnc := []byte("ciphertext")
	nonce := []byte("nonce0nonce0")

	// none -> pending
	require.NoError(t, repo.UpdateMFA(ctx, created.ID, models.MFAStatusPending, secretEnc, nonce))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MFAStatusPending, got.MFAStatus)
	assert.Equal(t, secretEnc, got.MFASecretEnc)
	assert.Equal(t, nonce, got.MFASecretNonce)
	assert.False(t, got.MFAEnabled())

	// pending -> enabled
	require.NoError(t, repo.UpdateMFA(ctx, created.ID, models.MFAStatusEnabled, secretEnc, nonce))

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.MFAEnabled())

	// enabled -> none clears the secret
	require.NoError(t, repo.UpdateMFA(ctx, created.ID, models.MFAStatusNone, nil, nil))

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MFAStatusNone, got.MFAStatus)
	assert.Nil(t, got.MFASecretEnc)
	assert.Nil(t, got.MFASecretNonce)
}

func TestUserRepository_UpdateMFA_UnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateMFA(context.Background(), "no-such-id", models.MFAStatusPending, []byte("x"), []byte("y"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}
