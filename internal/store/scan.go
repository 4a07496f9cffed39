package store

import (
	"database/sql"
	"errors"

	"github.com/mlevkov/go-note-sync/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, user *models.User) error {
	return row.Scan(
		&user.UserID,
		&user.Username,
		&user.KeyAlgorithm,
		&user.PublicKey,
		&user.EncryptedPrivateKey,
		&user.PasswordSalt,
		&user.PasswordIterations,
		&user.PasswordAlgorithm,
		&user.PasswordHash,
		&user.EncryptedSymKey,
		&user.UsedBytes,
		&user.NoteCount,
		&user.QuotaTier,
		&user.CreatedAt,
	)
}

func scanKey(row rowScanner, key *models.Key) error {
	return row.Scan(
		&key.ID,
		&key.UserID,
		&key.KeyName,
		&key.Algorithm,
		&key.PublicKey,
		&key.EncryptedKeyMaterial,
		&key.CreatedAt,
	)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
