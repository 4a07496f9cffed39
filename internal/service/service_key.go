package service

import (
	"context"
	"fmt"

	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/notify"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/internal/synclock"
	"github.com/mlevkov/go-note-sync/internal/utils"
	"github.com/mlevkov/go-note-sync/models"
)

// keyService is the concrete implementation of KeyService. A "key" here is
// an ownership record: sharing a key means inserting another record under
// the same key name, carrying material re-encrypted client-side for the
// target user.
type keyService struct {
	keyRepository store.KeyRepository
	auth          *authorizer
	locks         *synclock.Manager
	notifier      notify.Notifier

	uuid *utils.UUIDGenerator

	logger *logger.Logger
}

// NewKeyService constructs a KeyService wired to the given repository.
func NewKeyService(keyRepository store.KeyRepository, auth *authorizer, locks *synclock.Manager, notifier notify.Notifier, logger *logger.Logger) KeyService {
	return &keyService{
		keyRepository: keyRepository,
		auth:          auth,
		locks:         locks,
		notifier:      notifier,
		uuid:          utils.NewUUIDGenerator(),
		logger:        logger,
	}
}

// CreateKey registers a new shared key ownership record for the acting user.
// Requires the "user" proof. The first record of a key name defines the
// proof pair every later "key" signature is checked against.
func (s *keyService) CreateKey(ctx context.Context, req *models.CreateKeyRequest) (models.Key, error) {
	log := logger.FromContext(ctx)

	user, err := s.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return models.Key{}, err
	}

	if req.KeyName == "" || req.PublicKey == "" {
		log.Error().Str("key_name", req.KeyName).Msg("invalid key data provided")
		return models.Key{}, ErrInvalidDataProvided
	}
	if req.Algorithm != crypto.AlgorithmEd25519 {
		log.Error().Str("algorithm", req.Algorithm).Msg("unsupported key proof algorithm")
		return models.Key{}, ErrInvalidDataProvided
	}

	key := models.Key{
		ID:                   s.uuid.Generate(),
		UserID:               user.UserID,
		KeyName:              req.KeyName,
		Algorithm:            req.Algorithm,
		PublicKey:            req.PublicKey,
		EncryptedKeyMaterial: req.EncryptedKeyMaterial,
	}

	created, err := s.keyRepository.CreateKey(ctx, key)
	if err != nil {
		log.Err(err).Str("key_name", req.KeyName).Msg("key creation ended with error")
		return models.Key{}, fmt.Errorf("key creation ended with error: %w", err)
	}

	go s.notifier.Publish(context.WithoutCancel(ctx), notify.Event{
		Kind:     notify.EventKeyCreated,
		Username: user.Username,
		KeyName:  created.KeyName,
	})

	return created, nil
}

// ShareKey grants the target user access to an existing key name. Requires
// the sharer's "user" proof plus the "key" proof of the shared name. The new
// record copies the proof pair of an existing holder; the key material in
// the request was re-encrypted client-side for the target before the call.
func (s *keyService) ShareKey(ctx context.Context, req *models.ShareKeyRequest) (models.Key, error) {
	log := logger.FromContext(ctx)

	user, err := s.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return models.Key{}, err
	}
	if err := s.auth.requireKeyProof(ctx, req.KeyName, crypto.RoleKey, req); err != nil {
		return models.Key{}, err
	}

	if req.TargetUsername == "" || req.EncryptedKeyMaterial == "" {
		log.Error().Str("key_name", req.KeyName).Msg("invalid share data provided")
		return models.Key{}, ErrInvalidDataProvided
	}

	target, err := s.auth.users.FindUserByUsername(ctx, req.TargetUsername)
	if err != nil {
		log.Debug().Err(err).Str("target_username", req.TargetUsername).Msg("share target lookup failed")
		return models.Key{}, fmt.Errorf("share target lookup failed: %w", err)
	}

	holders, err := s.keyRepository.GetKeysByName(ctx, req.KeyName)
	if err != nil {
		return models.Key{}, fmt.Errorf("error resolving key holders: %w", err)
	}

	key := models.Key{
		ID:                   s.uuid.Generate(),
		UserID:               target.UserID,
		KeyName:              req.KeyName,
		Algorithm:            holders[0].Algorithm,
		PublicKey:            holders[0].PublicKey,
		EncryptedKeyMaterial: req.EncryptedKeyMaterial,
	}

	created, err := s.keyRepository.CreateKey(ctx, key)
	if err != nil {
		log.Err(err).Str("key_name", req.KeyName).Str("target_username", req.TargetUsername).Msg("key sharing ended with error")
		return models.Key{}, fmt.Errorf("key sharing ended with error: %w", err)
	}

	go s.notifier.Publish(context.WithoutCancel(ctx), notify.Event{
		Kind:     notify.EventKeyShared,
		Username: user.Username,
		KeyName:  created.KeyName,
	})

	return created, nil
}

// DeleteKey removes the acting user's ownership record of a key name.
// Requires "user" and "key" proofs. Deletion runs under the user's writer
// lock over the key name and is refused while any of the user's notes still
// reference it (store.ErrKeyInUse).
func (s *keyService) DeleteKey(ctx context.Context, req *models.DeleteKeyRequest) error {
	log := logger.FromContext(ctx)

	user, err := s.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return err
	}
	if err := s.auth.requireKeyProof(ctx, req.KeyName, crypto.RoleKey, req); err != nil {
		return err
	}

	lock, err := s.locks.TakeWriterLock(ctx, user.UserID, []string{req.KeyName}, 0)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := s.keyRepository.DeleteKey(ctx, user.UserID, req.KeyName); err != nil {
		log.Err(err).Str("key_name", req.KeyName).Msg("key deletion ended with error")
		return err
	}

	go s.notifier.Publish(context.WithoutCancel(ctx), notify.Event{
		Kind:     notify.EventKeyDeleted,
		Username: user.Username,
		KeyName:  req.KeyName,
	})

	return nil
}
