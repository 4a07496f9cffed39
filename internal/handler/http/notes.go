package http

import (
	"encoding/json"
	"net/http"

	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/utils"
	"github.com/mlevkov/go-note-sync/models"
)

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.updateNote").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	conflicts, err := h.services.NoteService.UpdateNote(ctx, &req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateNote").Msg("error updating note")
		http.Error(w, "error updating note", statusFromError(err))
		return
	}

	response := models.UpdateNoteResponse{NoteID: req.NoteID, Conflicts: conflicts}
	if len(conflicts) > 0 {
		utils.WriteJSON(w, response, http.StatusConflict)
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.DeleteNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.deleteNote").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.NoteService.DeleteNote(ctx, &req); err != nil {
		log.Err(err).Str("func", "*Handler.deleteNote").Msg("error deleting note")
		http.Error(w, "error deleting note", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
