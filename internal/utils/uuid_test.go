package utils

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_Generate(t *testing.T) {
	g := NewUUIDGenerator()

	id := g.Generate()

	if id == "" {
		t.Fatal("expected non-empty UUID")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected parseable UUID, got %q: %v", id, err)
	}
}

func TestUUIDGenerator_Unique(t *testing.T) {
	g := NewUUIDGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Generate()
		if seen[id] {
			t.Fatalf("duplicate UUID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestUUIDGenerator_TimeOrdered(t *testing.T) {
	g := NewUUIDGenerator()

	// v7 identifiers issued later sort lexicographically after earlier ones
	first := g.Generate()
	second := g.Generate()

	if second < first {
		t.Errorf("expected time-ordered UUIDs, got %s before %s", first, second)
	}
}
