package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mlevkov/go-note-sync/internal/config"
	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/guard"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/notify"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/internal/synclock"
	"github.com/mlevkov/go-note-sync/internal/utils"
	"github.com/mlevkov/go-note-sync/models"
)

// authService is the concrete implementation of AuthService. It owns the
// challenge-response login flow and the JWT session tokens that gate the
// read-only endpoints. The server never sees a plain password: clients prove
// knowledge of the stored PBKDF2 hash by answering a one-time challenge.
type authService struct {
	userRepository store.UserRepository
	challenges     *guard.ChallengeManager
	auth           *authorizer
	locks          *synclock.Manager
	notifier       notify.Notifier

	uuid *utils.UUIDGenerator

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewAuthService constructs an AuthService wired to the given repositories
// and populated with security parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(userRepository store.UserRepository, challenges *guard.ChallengeManager, auth *authorizer, locks *synclock.Manager, notifier notify.Notifier, cfg config.Auth, logger *logger.Logger) AuthService {
	return &authService{
		userRepository: userRepository,
		challenges:     challenges,
		auth:           auth,
		locks:          locks,
		notifier:       notifier,
		uuid:           utils.NewUUIDGenerator(),
		tokenSignKey:   cfg.TokenSignKey,
		tokenIssuer:    cfg.TokenIssuer,
		tokenDuration:  cfg.TokenDuration,
		logger:         logger,
	}
}

// Register creates a new account. Registration is the only mutating
// operation without a signature chain: the account key pair it carries is
// what every later request will be verified against.
//
// Returns the persisted user (with a server-assigned UserID) or:
//   - ErrInvalidDataProvided if a required field is missing or the declared
//     algorithms are not supported.
//   - A wrapped storage error if the repository call fails (e.g. username
//     already taken — see store.ErrUsernameAlreadyExists).
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	if req.Username == "" || req.PublicKey == "" || req.PasswordSalt == "" || req.PasswordHash == "" {
		log.Error().Str("username", req.Username).Msg("invalid registration data provided")
		return models.User{}, ErrInvalidDataProvided
	}
	if req.KeyAlgorithm != crypto.AlgorithmEd25519 {
		log.Error().Str("key_algorithm", req.KeyAlgorithm).Msg("unsupported account key algorithm")
		return models.User{}, ErrInvalidDataProvided
	}
	if req.PasswordAlgorithm != crypto.PasswordAlgorithmPBKDF2 || req.PasswordIterations <= 0 {
		log.Error().Str("password_algorithm", req.PasswordAlgorithm).Msg("unsupported password derivation parameters")
		return models.User{}, ErrInvalidDataProvided
	}

	tier := req.QuotaTier
	if tier == "" {
		tier = models.QuotaTierDefault
	}

	user := models.User{
		UserID:              a.uuid.Generate(),
		Username:            req.Username,
		KeyAlgorithm:        req.KeyAlgorithm,
		PublicKey:           req.PublicKey,
		EncryptedPrivateKey: req.EncryptedPrivateKey,
		PasswordSalt:        req.PasswordSalt,
		PasswordIterations:  req.PasswordIterations,
		PasswordAlgorithm:   req.PasswordAlgorithm,
		PasswordHash:        req.PasswordHash,
		EncryptedSymKey:     req.EncryptedSymKey,
		QuotaTier:           tier,
	}

	registeredUser, err := a.userRepository.CreateUser(ctx, user)
	if err != nil {
		log.Err(err).Str("username", req.Username).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	return registeredUser, nil
}

// IssueChallenge produces a one-time login challenge for the named user. A
// challenge is issued whether or not the username exists, so this endpoint
// cannot be used to enumerate accounts; answering it for an unknown user
// still fails at Login.
func (a *authService) IssueChallenge(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", ErrInvalidDataProvided
	}

	return a.challenges.IssueChallenge(username)
}

// Login answers a previously issued challenge and, on success, issues a JWT
// session token. Every failure surfaces as ErrRejected: an unknown username,
// a consumed or expired challenge, and a wrong response are
// indistinguishable to the caller.
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (models.Token, models.User, error) {
	log := logger.FromContext(ctx)

	if req.Username == "" || req.Response == "" {
		log.Error().Str("username", req.Username).Msg("invalid login data provided")
		return models.Token{}, models.User{}, ErrInvalidDataProvided
	}

	user, err := a.userRepository.FindUserByUsername(ctx, req.Username)
	if err != nil {
		log.Debug().Err(err).Str("username", req.Username).Msg("login rejected: unknown user")
		return models.Token{}, models.User{}, ErrRejected
	}

	if !a.challenges.ValidateChallenge(req.Username, user.PasswordHash, req.Response, req.HashLength) {
		log.Debug().Str("username", req.Username).Msg("login rejected: challenge validation failed")
		return models.Token{}, models.User{}, ErrRejected
	}

	token, err := utils.GenerateJWTToken(a.tokenIssuer, user.UserID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, models.User{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, user, nil
}

// ParseToken validates and parses a raw JWT string. Any validation failure
// (expired, wrong issuer, malformed) is normalised to
// ErrTokenIsExpiredOrInvalid so that callers do not need to inspect
// low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}

// DeleteUser removes the account after running the full authorization chain.
// Exclusively-owned keys and the notes under them go with the account;
// anything shared with another user survives. The deletion happens under the
// user's writer lock over every visible key name so no snapshot observes a
// half-deleted account.
func (a *authService) DeleteUser(ctx context.Context, req *models.DeleteUserRequest) error {
	log := logger.FromContext(ctx)

	user, err := a.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return err
	}

	keyNames, err := a.auth.keys.GetUserKeyNames(ctx, user.UserID)
	if err != nil {
		return fmt.Errorf("error resolving key names for account deletion: %w", err)
	}

	lock, err := a.locks.TakeWriterLock(ctx, user.UserID, keyNames, 0)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := a.userRepository.DeleteUser(ctx, user.UserID); err != nil {
		log.Err(err).Str("user_id", user.UserID).Msg("account deletion failed")
		return err
	}

	go a.notifier.Publish(context.WithoutCancel(ctx), notify.Event{
		Kind:     notify.EventUserDeleted,
		Username: user.Username,
	})

	return nil
}
