package database

import (
	"database/sql"
	"errors"

	"github.com/averlow/otpgate/internal/models"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MapSQLiteError translates driver errors into the model's sentinel errors.
// The unique index on users.email is what makes concurrent duplicate signups
// safe: the losing insert surfaces here as ErrDuplicateEmail.
func MapSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return models.ErrDuplicateEmail
		}
	}

	return err
}
