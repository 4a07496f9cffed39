package http

import (
	"errors"
	"net/http"

	"github.com/mlevkov/go-note-sync/internal/service"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/internal/synclock"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrRejected:                http.StatusUnauthorized,
	service.ErrQuotaExceeded:           http.StatusRequestEntityTooLarge,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrTokenCreationFailed:     http.StatusInternalServerError,

	synclock.ErrTimeout: http.StatusServiceUnavailable,

	store.ErrUsernameAlreadyExists: http.StatusConflict,
	store.ErrNoUserWasFound:        http.StatusNotFound,
	store.ErrNoKeyWasFound:         http.StatusNotFound,
	store.ErrKeyAlreadyExists:      http.StatusConflict,
	store.ErrKeyInUse:              http.StatusConflict,
	store.ErrNoNoteWasFound:        http.StatusNotFound,
	store.ErrUnknownAction:         http.StatusBadRequest,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
