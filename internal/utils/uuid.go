package utils

import "github.com/google/uuid"

// UUIDGenerator produces the identifiers for users, keys and notes.
// Version 7 keeps them time-ordered, which keeps index pages hot for
// recently written rows; on the rare entropy failure it falls back to a
// random version 4.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
