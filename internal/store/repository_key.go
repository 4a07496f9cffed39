package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/models"
)

// keyRepository is the PostgreSQL-backed implementation of [KeyRepository].
// Each row of the "keys" table is one ownership record: the same key name
// appears once per holder, each with their own encrypted key material.
type keyRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewKeyRepository constructs a [KeyRepository] backed by the provided
// database connection and logger.
func NewKeyRepository(db *DB, logger *logger.Logger) KeyRepository {
	logger.Debug().Msg("creating key repository")
	return &keyRepository{
		db:     db,
		logger: logger,
	}
}

// CreateKey persists a new ownership record and returns it with the
// server-assigned CreatedAt.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrKeyAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *keyRepository) CreateKey(ctx context.Context, key models.Key) (models.Key, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createKey,
		key.ID, key.UserID, key.KeyName, key.Algorithm, key.PublicKey, key.EncryptedKeyMaterial)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*keyRepository.CreateKey").Msg("error: row is nil")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Key{}, ErrKeyAlreadyExists
		default:
			return models.Key{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	var created models.Key
	if err := scanKey(row, &created); err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.Key{}, ErrKeyAlreadyExists
		}
		log.Err(err).Str("func", "*keyRepository.CreateKey").Msg("error: scanning error")
		return models.Key{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return created, nil
}

// GetKeysByName returns every ownership record carrying keyName, ordered by
// creation time. An empty result yields [ErrNoKeyWasFound]: a key with no
// holders does not exist.
func (r *keyRepository) GetKeysByName(ctx context.Context, keyName string) ([]models.Key, error) {
	query, args, err := buildGetKeysByName(keyName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	keys, err := r.queryKeys(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNoKeyWasFound
	}

	return keys, nil
}

// GetUserKeys returns every ownership record held by the user, ordered by
// key name. A user with no keys gets an empty slice, not an error.
func (r *keyRepository) GetUserKeys(ctx context.Context, userID string) ([]models.Key, error) {
	query, args, err := buildGetUserKeys(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.queryKeys(ctx, query, args...)
}

// GetUserKeyNames returns the key names visible to the user, ordered. The
// sync lock manager calls this to enumerate the key tables a reader or
// writer must claim.
func (r *keyRepository) GetUserKeyNames(ctx context.Context, userID string) ([]string, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetUserKeyNames(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*keyRepository.GetUserKeyNames").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			log.Err(err).Str("func", "*keyRepository.GetUserKeyNames").Msg("error: scanning error")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return names, nil
}

// DeleteKey removes the user's ownership record of keyName. Deletion is
// refused with [ErrKeyInUse] while any of the user's notes still reference
// the key name; co-holders' records are never touched.
func (r *keyRepository) DeleteKey(ctx context.Context, userID, keyName string) error {
	log := logger.FromContext(ctx)

	inUse, err := r.CountUserNotes(ctx, userID, keyName)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrKeyInUse
	}

	res, err := r.db.ExecContext(ctx, deleteKey, userID, keyName)
	if err != nil {
		log.Err(err).Str("func", "*keyRepository.DeleteKey").Msg("error deleting key")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoKeyWasFound
	}

	return nil
}

// CountUserNotes reports how many of the user's notes still reference
// keyName.
func (r *keyRepository) CountUserNotes(ctx context.Context, userID, keyName string) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildCountUserNotes(userID, keyName)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Err(err).Str("func", "*keyRepository.CountUserNotes").Msg("error counting notes")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func (r *keyRepository) queryKeys(ctx context.Context, query string, args ...any) ([]models.Key, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*keyRepository.queryKeys").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	keys := make([]models.Key, 0)
	for rows.Next() {
		var key models.Key
		if err := scanKey(rows, &key); err != nil {
			log.Err(err).Str("func", "*keyRepository.queryKeys").Msg("error: scanning error")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return keys, nil
}
