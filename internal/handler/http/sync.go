package http

import (
	"encoding/json"
	"net/http"

	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/utils"
	"github.com/mlevkov/go-note-sync/models"
)

func (h *Handler) applyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.applyBatch").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	conflicts, err := h.services.NoteService.ApplyBatch(ctx, &req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.applyBatch").Msg("error applying batch")
		http.Error(w, "error applying batch", statusFromError(err))
		return
	}

	// a conflicting batch is rolled back in full; the client rebases and retries
	if len(conflicts) > 0 {
		utils.WriteJSON(w, models.BatchResponse{Conflicts: conflicts}, http.StatusConflict)
		return
	}

	utils.WriteJSON(w, models.BatchResponse{}, http.StatusOK)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.snapshot").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	snapshot, err := h.services.SyncService.Snapshot(ctx, &req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.snapshot").Msg("error taking snapshot")
		http.Error(w, "error taking snapshot", statusFromError(err))
		return
	}

	utils.WriteJSON(w, snapshot, http.StatusOK)
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.listNotes").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	notes, err := h.services.SyncService.GetNotes(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listNotes").Msg("error listing notes")
		http.Error(w, "error listing notes", statusFromError(err))
		return
	}

	response := models.NotesResponse{
		Notes:  notes,
		Length: len(notes),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
