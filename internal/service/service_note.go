// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mlevkov/go-note-sync/internal/crypto"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/notify"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/internal/synclock"
	"github.com/mlevkov/go-note-sync/models"
)

// noteService is the concrete implementation of NoteService.
//
// Every mutation follows the same arc: authorization chain, quota check,
// writer lock over the key names touched, one store transaction through
// MultiApply, then post-commit bookkeeping (co-holder usage refresh and a
// signed mutation event). A non-empty conflict result means the transaction
// rolled back and none of that bookkeeping ran.
type noteService struct {
	noteRepository store.NoteRepository
	userRepository store.UserRepository
	keyRepository  store.KeyRepository
	auth           *authorizer
	locks          *synclock.Manager
	quota          quotaPolicy
	notifier       notify.Notifier

	logger *logger.Logger
}

// NewNoteService constructs a NoteService wired to the given repositories
// and policies.
func NewNoteService(storages *store.Storages, auth *authorizer, locks *synclock.Manager, quota quotaPolicy, notifier notify.Notifier, logger *logger.Logger) NoteService {
	return &noteService{
		noteRepository: storages.NoteRepository,
		userRepository: storages.UserRepository,
		keyRepository:  storages.KeyRepository,
		auth:           auth,
		locks:          locks,
		quota:          quota,
		notifier:       notifier,
		logger:         logger,
	}
}

// UpdateNote creates or updates a single note.
//
// Authorization: the "user" proof always; the "key" proof of the target key
// name; when re-keying additionally the "old-key" proof of the note's
// current key name. The quota policy is checked against the post-update note
// size before anything is written. Returned conflicts mean nothing was
// written.
func (s *noteService) UpdateNote(ctx context.Context, req *models.UpdateNoteRequest) ([]models.VersionConflict, error) {
	log := logger.FromContext(ctx)

	user, err := s.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return nil, err
	}

	if req.NoteID == "" || req.KeyName == "" || len(req.Items) == 0 {
		log.Error().Str("note_id", req.NoteID).Msg("invalid note update data provided")
		return nil, ErrInvalidDataProvided
	}

	targetKey := req.KeyName
	if req.NewKeyName != "" {
		targetKey = req.NewKeyName
	}

	if err := s.auth.requireKeyProof(ctx, targetKey, crypto.RoleKey, req); err != nil {
		return nil, err
	}
	if req.NewKeyName != "" {
		if err := s.auth.requireKeyProof(ctx, req.KeyName, crypto.RoleOldKey, req); err != nil {
			return nil, err
		}
	}

	lockNames := []string{req.KeyName}
	if req.NewKeyName != "" {
		lockNames = append(lockNames, req.NewKeyName)
	}

	lock, err := s.locks.TakeWriterLock(ctx, user.UserID, lockNames, 0)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	current, action, err := s.resolveUpdateAction(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.checkQuota(ctx, user, current, req.Items); err != nil {
		return nil, err
	}

	conflicts, err := s.noteRepository.MultiApply(ctx, user.UserID, []models.SyncAction{action})
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	s.afterMutation(ctx, user, lockNames, notify.Event{
		Kind:     notify.EventNoteUpdated,
		Username: user.Username,
		NoteID:   req.NoteID,
		KeyName:  targetKey,
	})

	return nil, nil
}

// DeleteNote removes a note and all of its items. Requires "user" and "key"
// proofs; the key proof is checked against the note's stored key name, not a
// client-declared one.
func (s *noteService) DeleteNote(ctx context.Context, req *models.DeleteNoteRequest) error {
	log := logger.FromContext(ctx)

	user, err := s.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return err
	}

	note, err := s.noteRepository.GetNote(ctx, req.NoteID)
	if err != nil {
		log.Debug().Err(err).Str("note_id", req.NoteID).Msg("note deletion target lookup failed")
		return err
	}

	if err := s.auth.requireKeyProof(ctx, note.KeyName, crypto.RoleKey, req); err != nil {
		return err
	}

	lock, err := s.locks.TakeWriterLock(ctx, user.UserID, []string{note.KeyName}, 0)
	if err != nil {
		return err
	}
	defer lock.Release()

	if _, err := s.noteRepository.MultiApply(ctx, user.UserID, []models.SyncAction{{
		Kind:   models.SyncActionDelete,
		NoteID: req.NoteID,
	}}); err != nil {
		return err
	}

	s.afterMutation(ctx, user, []string{note.KeyName}, notify.Event{
		Kind:     notify.EventNoteDeleted,
		Username: user.Username,
		NoteID:   req.NoteID,
		KeyName:  note.KeyName,
	})

	return nil
}

// ApplyBatch applies a sequence of heterogeneous note mutations atomically.
// Requires the "user" proof plus a "key:<name>" proof for every key name the
// batch touches; the name-tagged roles let proofs for several keys coexist
// on one request. One conflict anywhere rolls the whole batch back; the
// returned conflict list is then complete.
func (s *noteService) ApplyBatch(ctx context.Context, req *models.BatchRequest) ([]models.VersionConflict, error) {
	log := logger.FromContext(ctx)

	user, err := s.auth.requireUser(ctx, &req.SignedRequest, req)
	if err != nil {
		return nil, err
	}

	if len(req.Actions) == 0 {
		log.Error().Msg("empty batch provided")
		return nil, ErrInvalidDataProvided
	}

	keyNames, err := s.batchKeyNames(ctx, req.Actions)
	if err != nil {
		return nil, err
	}

	for _, keyName := range keyNames {
		if err := s.auth.requireKeyProof(ctx, keyName, crypto.KeyRole(keyName), req); err != nil {
			return nil, err
		}
	}

	lock, err := s.locks.TakeWriterLock(ctx, user.UserID, keyNames, 0)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	if err := s.checkBatchQuota(ctx, user, req.Actions); err != nil {
		return nil, err
	}

	conflicts, err := s.noteRepository.MultiApply(ctx, user.UserID, req.Actions)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	s.afterMutation(ctx, user, keyNames, notify.Event{
		Kind:     notify.EventBatchApplied,
		Username: user.Username,
	})

	return nil, nil
}

// resolveUpdateAction loads the current state of the note (nil items when it
// does not exist yet) and shapes the request into the one store action that
// realizes it. A request against an existing note must name its stored key;
// a re-key of a note that does not exist is meaningless.
func (s *noteService) resolveUpdateAction(ctx context.Context, req *models.UpdateNoteRequest) (map[string]models.NoteItem, models.SyncAction, error) {
	log := logger.FromContext(ctx)

	note, err := s.noteRepository.GetNote(ctx, req.NoteID)
	switch {
	case err == nil:
		if note.KeyName != req.KeyName {
			log.Debug().
				Str("note_id", req.NoteID).
				Str("declared", req.KeyName).
				Str("stored", note.KeyName).
				Msg("declared key name does not match stored one")
			return nil, models.SyncAction{}, ErrInvalidDataProvided
		}
		return note.Items, models.SyncAction{
			Kind:       models.SyncActionUpdate,
			NoteID:     req.NoteID,
			Items:      req.Items,
			NewKeyName: req.NewKeyName,
		}, nil

	case errors.Is(err, store.ErrNoNoteWasFound):
		if req.NewKeyName != "" {
			return nil, models.SyncAction{}, ErrInvalidDataProvided
		}
		items := make(map[string]models.NoteItem, len(req.Items))
		for _, item := range req.Items {
			items[item.Type] = item
		}
		return nil, models.SyncAction{
			Kind: models.SyncActionCreate,
			Note: &models.Note{
				NoteID:  req.NoteID,
				KeyName: req.KeyName,
				Items:   items,
			},
		}, nil

	default:
		return nil, models.SyncAction{}, err
	}
}

// checkQuota enforces the per-note and per-user byte limits for one note
// mutation. The user-level check uses the stored usage counter adjusted by
// the note's size delta, so it stays correct without re-aggregating.
func (s *noteService) checkQuota(ctx context.Context, user models.User, current map[string]models.NoteItem, proposed []models.NoteItem) error {
	log := logger.FromContext(ctx)

	noteLimit, userLimit := s.quota.limitsFor(user.QuotaTier)

	newSize, delta := CalcNewSize(current, proposed)
	if newSize > noteLimit {
		log.Debug().Int64("new_size", newSize).Int64("limit", noteLimit).Msg("note size limit exceeded")
		return ErrQuotaExceeded
	}

	usedBytes, err := s.userRepository.GetUserSize(ctx, user.UserID)
	if err != nil {
		return fmt.Errorf("error reading user usage for quota check: %w", err)
	}
	if usedBytes+delta > userLimit {
		log.Debug().Int64("used_bytes", usedBytes).Int64("limit", userLimit).Msg("user size limit exceeded")
		return ErrQuotaExceeded
	}

	return nil
}

// checkBatchQuota enforces the quota policy across a whole batch: every note
// must land under the per-note limit and the summed delta must keep the user
// under the per-user limit.
func (s *noteService) checkBatchQuota(ctx context.Context, user models.User, actions []models.SyncAction) error {
	log := logger.FromContext(ctx)

	noteLimit, userLimit := s.quota.limitsFor(user.QuotaTier)

	var delta int64
	for _, action := range actions {
		switch action.Kind {
		case models.SyncActionCreate:
			if action.Note == nil {
				return ErrInvalidDataProvided
			}
			var newSize int64
			for _, item := range action.Note.Items {
				newSize += item.Size()
			}
			if newSize > noteLimit {
				return ErrQuotaExceeded
			}
			delta += newSize

		case models.SyncActionUpdate:
			current, err := s.currentItems(ctx, action.NoteID)
			if err != nil {
				return err
			}
			newSize, sizeDelta := CalcNewSize(current, action.Items)
			if newSize > noteLimit {
				return ErrQuotaExceeded
			}
			delta += sizeDelta

		case models.SyncActionDelete:
			current, err := s.currentItems(ctx, action.NoteID)
			if err != nil {
				return err
			}
			for _, item := range current {
				delta -= item.Size()
			}
		}
	}

	usedBytes, err := s.userRepository.GetUserSize(ctx, user.UserID)
	if err != nil {
		return fmt.Errorf("error reading user usage for quota check: %w", err)
	}
	if usedBytes+delta > userLimit {
		log.Debug().Int64("used_bytes", usedBytes).Int64("delta", delta).Int64("limit", userLimit).Msg("user size limit exceeded by batch")
		return ErrQuotaExceeded
	}

	return nil
}

func (s *noteService) currentItems(ctx context.Context, noteID string) (map[string]models.NoteItem, error) {
	note, err := s.noteRepository.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNoNoteWasFound) {
			return nil, nil
		}
		return nil, err
	}
	return note.Items, nil
}

// batchKeyNames resolves the distinct key names a batch touches: the
// declared key of every created note plus the stored key of every updated or
// deleted one, and any re-key targets.
func (s *noteService) batchKeyNames(ctx context.Context, actions []models.SyncAction) ([]string, error) {
	set := make(map[string]struct{})
	for _, action := range actions {
		switch action.Kind {
		case models.SyncActionCreate:
			if action.Note == nil || action.Note.KeyName == "" {
				return nil, ErrInvalidDataProvided
			}
			set[action.Note.KeyName] = struct{}{}

		case models.SyncActionUpdate, models.SyncActionDelete:
			note, err := s.noteRepository.GetNote(ctx, action.NoteID)
			if err != nil {
				return nil, err
			}
			set[note.KeyName] = struct{}{}
			if action.NewKeyName != "" {
				set[action.NewKeyName] = struct{}{}
			}

		default:
			return nil, store.ErrUnknownAction
		}
	}

	keyNames := make([]string, 0, len(set))
	for keyName := range set {
		keyNames = append(keyNames, keyName)
	}
	sort.Strings(keyNames)
	return keyNames, nil
}

// afterMutation performs the post-commit bookkeeping of a successful write:
// co-holders of every touched key get their usage counters refreshed (the
// acting user's were refreshed in-transaction) and the signed mutation event
// goes out. Both steps are best-effort and never fail the mutation.
func (s *noteService) afterMutation(ctx context.Context, user models.User, keyNames []string, event notify.Event) {
	log := logger.FromContext(ctx)

	recompute := make(map[string]struct{})
	for _, keyName := range keyNames {
		holders, err := s.keyRepository.GetKeysByName(ctx, keyName)
		if err != nil {
			log.Warn().Err(err).Str("key_name", keyName).Msg("error resolving co-holders for usage refresh")
			continue
		}
		for _, holder := range holders {
			if holder.UserID != user.UserID {
				recompute[holder.UserID] = struct{}{}
			}
		}
	}

	// RecomputeUserUsage retries transient errors itself
	for userID := range recompute {
		if err := s.userRepository.RecomputeUserUsage(ctx, userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("co-holder usage refresh failed")
		}
	}

	go s.notifier.Publish(context.WithoutCancel(ctx), event)
}
