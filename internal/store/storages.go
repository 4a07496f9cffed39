package store

import "github.com/mlevkov/go-note-sync/internal/logger"

// Storages bundles the repositories of one database connection.
type Storages struct {
	UserRepository UserRepository
	KeyRepository  KeyRepository
	NoteRepository NoteRepository
}

// NewStorages wires every repository to the shared connection.
func NewStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		UserRepository: NewUserRepository(db, log),
		KeyRepository:  NewKeyRepository(db, log),
		NoteRepository: NewNoteRepository(db, log),
	}
}
