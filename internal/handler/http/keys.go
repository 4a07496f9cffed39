// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"

	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/utils"
	"github.com/mlevkov/go-note-sync/models"
)

func (h *Handler) createKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.createKey").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	key, err := h.services.KeyService.CreateKey(ctx, &req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createKey").Msg("error creating key")
		http.Error(w, "error creating key", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.KeyResponse{Key: key}, http.StatusCreated)
}

func (h *Handler) shareKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.ShareKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.shareKey").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	key, err := h.services.KeyService.ShareKey(ctx, &req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.shareKey").Msg("error sharing key")
		http.Error(w, "error sharing key", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.KeyResponse{Key: key}, http.StatusCreated)
}

func (h *Handler) deleteKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.DeleteKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.deleteKey").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.KeyService.DeleteKey(ctx, &req); err != nil {
		log.Err(err).Str("func", "*Handler.deleteKey").Msg("error deleting key")
		http.Error(w, "error deleting key", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
