package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(middleware.Compress(5))

	// account lifecycle; register/challenge/login carry no signed envelope
	router.Group(func(r chi.Router) {
		r.Post("/api/user/register", h.register)
		r.Post("/api/user/challenge", h.challenge)
		r.Post("/api/user/login", h.login)
		r.Post("/api/user/delete", h.deleteUser)
	})

	// envelope-authorized endpoints: each request body is its own proof
	router.Group(func(r chi.Router) {
		r.Post("/api/key/create", h.createKey)
		r.Post("/api/key/share", h.shareKey)
		r.Post("/api/key/delete", h.deleteKey)
		r.Post("/api/note/update", h.updateNote)
		r.Post("/api/note/delete", h.deleteNote)
		r.Post("/api/sync/batch", h.applyBatch)
		r.Post("/api/sync/snapshot", h.snapshot)
	})

	// token-authorized read endpoints
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/api/notes", h.listNotes)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
