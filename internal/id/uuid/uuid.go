// Package uuid generates run identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// Generator creates time-ordered UUIDv7 strings so run IDs sort by start.
type Generator struct{}

// New creates a Generator.
func New() Generator {
	return Generator{}
}

// NewID returns a UUIDv7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// RunID returns a new run identifier, falling back to a random UUID if the
// time-ordered source fails.
func RunID(gen crawler.IDGenerator) string {
	if gen != nil {
		if id, err := gen.NewID(); err == nil {
			return id
		}
	}
	return uuid.NewString()
}
