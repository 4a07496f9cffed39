package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/models"
)

// usageRetryAttempts bounds the automatic retries of the idempotent
// usage-aggregation statement.
const usageRetryAttempts = 3

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
// It handles account creation, lookup, deletion, and the usage aggregates
// against the "users" table.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser persists a new user record and returns the fully populated
// [models.User] with server-assigned fields (counters, CreatedAt). The
// username is stored lower-cased so lookups are case-insensitive.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrUsernameAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
//   - Scan failure → returned directly.
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createUser,
		user.UserID, user.Username, user.KeyAlgorithm, user.PublicKey, user.EncryptedPrivateKey,
		user.PasswordSalt, user.PasswordIterations, user.PasswordAlgorithm, user.PasswordHash,
		user.EncryptedSymKey, user.QuotaTier)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: row is nil")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrUsernameAlreadyExists
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	var created models.User
	if err := scanUser(row, &created); err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.User{}, ErrUsernameAlreadyExists
		}
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: scanning error")
		return models.User{}, err
	}

	return created, nil
}

// FindUserByUsername retrieves the user record whose username matches the
// given one, compared case-insensitively.
//
// Error handling:
//   - sql.ErrNoRows → [ErrNoUserWasFound].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, findUserByUsername, username)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.FindUserByUsername").Msg("error: row is nil")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	var found models.User
	if err := scanUser(row, &found); err != nil {
		if isNoRows(err) {
			return models.User{}, ErrNoUserWasFound
		}
		log.Err(err).Str("func", "*userRepository.FindUserByUsername").Msg("error: scanning error")
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return found, nil
}

// GetUserSize returns the stored used-bytes counter of the user.
func (r *userRepository) GetUserSize(ctx context.Context, userID string) (int64, error) {
	log := logger.FromContext(ctx)

	var size int64
	if err := r.db.QueryRowContext(ctx, getUserSize, userID).Scan(&size); err != nil {
		if isNoRows(err) {
			return 0, ErrNoUserWasFound
		}
		log.Err(err).Str("func", "*userRepository.GetUserSize").Str("user_id", userID).Msg("error reading user size")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return size, nil
}

// DeleteUser removes the account together with all exclusively-owned keys
// and their notes, inside one transaction. Keys whose key name is shared
// with another user survive, as do the notes under them.
func (r *userRepository) DeleteUser(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.DeleteUser").Msg("error beginning transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	// note rows cascade their items
	if _, err := tx.ExecContext(ctx, deleteExclusiveNotes, userID); err != nil {
		log.Err(err).Str("func", "*userRepository.DeleteUser").Msg("error deleting exclusively-owned notes")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if _, err := tx.ExecContext(ctx, deleteUserKeys, userID); err != nil {
		log.Err(err).Str("func", "*userRepository.DeleteUser").Msg("error deleting user keys")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if _, err := tx.ExecContext(ctx, deleteUser, userID); err != nil {
		log.Err(err).Str("func", "*userRepository.DeleteUser").Msg("error deleting user")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Str("func", "*userRepository.DeleteUser").Msg("error committing transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// RecomputeUserUsage refreshes the size and note-count counters of the user
// from the current note contents. The statement is idempotent, so transient
// driver errors (as judged by the error classifier) are retried a bounded
// number of times.
func (r *userRepository) RecomputeUserUsage(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < usageRetryAttempts; attempt++ {
		_, err := r.db.ExecContext(ctx, recomputeUserUsage, userID)
		if err == nil {
			return nil
		}
		lastErr = err

		if r.db.errorClassificator.Classify(err) != Retryable {
			break
		}
		log.Warn().Err(err).
			Str("user_id", userID).
			Int("attempt", attempt+1).
			Msg("retrying usage recomputation after transient error")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}

	log.Err(lastErr).Str("user_id", userID).Msg("usage recomputation failed")
	return fmt.Errorf("%w: %w", ErrExecutingStatement, lastErr)
}
