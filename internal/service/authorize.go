// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/guard"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/models"
)

// authorizer runs the signature authorization chain shared by every mutating
// service operation.
//
// The chain for one request is: resolve the acting user by the envelope's
// username, pass the envelope through the replay validator, then verify the
// "user" signature over the canonical payload of the full request against the
// account public key. Operations touching a shared key additionally demand a
// role-tagged proof verifiable against the public key of any current holder
// of that key name.
//
// Every failure surfaces as [ErrRejected]; the reason is logged server-side
// only.
type authorizer struct {
	users     store.UserRepository
	keys      store.KeyRepository
	validator *guard.RequestValidator

	logger *logger.Logger
}

// requireUser authorizes one mutating request and returns the acting user.
// env must be the envelope embedded in signed, which carries the signatures
// over its own canonical payload.
func (a *authorizer) requireUser(ctx context.Context, env *models.SignedRequest, signed models.Signable) (models.User, error) {
	log := logger.FromContext(ctx)

	user, err := a.users.FindUserByUsername(ctx, env.Username)
	if err != nil {
		log.Debug().Err(err).Str("username", env.Username).Msg("rejected: unknown acting user")
		return models.User{}, ErrRejected
	}

	if !a.validator.ValidateRequest(env) {
		log.Debug().Str("request_id", env.RequestID).Msg("rejected: replay validation failed")
		return models.User{}, ErrRejected
	}

	verifier, err := crypto.NewVerifier(user.KeyAlgorithm, user.PublicKey)
	if err != nil {
		log.Err(err).Str("username", env.Username).Msg("rejected: unusable stored account key")
		return models.User{}, ErrRejected
	}
	if !verifier.Verify(crypto.RoleUser, signed) {
		log.Debug().Str("request_id", env.RequestID).Msg("rejected: user signature invalid")
		return models.User{}, ErrRejected
	}

	return user, nil
}

// requireKeyProof verifies the role-tagged signature on signed against the
// public key of any current holder of keyName. A key nobody holds cannot be
// proven.
func (a *authorizer) requireKeyProof(ctx context.Context, keyName, role string, signed models.Signable) error {
	log := logger.FromContext(ctx)

	holders, err := a.keys.GetKeysByName(ctx, keyName)
	if err != nil {
		log.Debug().Err(err).Str("key_name", keyName).Msg("rejected: key proof against unknown key")
		return ErrRejected
	}

	for _, holder := range holders {
		verifier, err := crypto.NewVerifier(holder.Algorithm, holder.PublicKey)
		if err != nil {
			log.Err(err).Str("key_name", keyName).Msg("skipping holder with unusable stored key")
			continue
		}
		if verifier.Verify(role, signed) {
			return nil
		}
	}

	log.Debug().Str("key_name", keyName).Str("role", role).Msg("rejected: key proof invalid")
	return ErrRejected
}
