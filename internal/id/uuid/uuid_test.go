package uuid

import (
	"errors"
	"testing"

	goUUID "github.com/google/uuid"
)

// TestGeneratorNewID ensures generated IDs are unique, valid, and version 7.
func TestGeneratorNewID(t *testing.T) {
	t.Parallel()

	gen := New()
	id1, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	id2, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected unique IDs, got %s and %s", id1, id2)
	}
	parsed, err := goUUID.Parse(id1)
	if err != nil {
		t.Fatalf("id1 not valid UUID: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
}

type failingGen struct{}

func (failingGen) NewID() (string, error) { return "", errors.New("entropy exhausted") }

func TestRunIDFallback(t *testing.T) {
	t.Parallel()

	id := RunID(failingGen{})
	if _, err := goUUID.Parse(id); err != nil {
		t.Fatalf("fallback id not valid UUID: %v", err)
	}
	if RunID(nil) == "" {
		t.Fatal("expected id for nil generator")
	}
}
