package discovery

import (
	"strings"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// Set is an insertion-ordered candidate set. Identity is the lowercased URL;
// the first spelling added is the one kept.
type Set struct {
	links []crawler.CandidateLink
	seen  map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Key returns the identity key for a normalized candidate URL.
func Key(rawURL string) string {
	return strings.ToLower(rawURL)
}

// Add inserts link unless an equivalent URL is already present.
func (s *Set) Add(link crawler.CandidateLink) bool {
	k := Key(link.URL)
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.links = append(s.links, link)
	return true
}

// Contains reports whether an equivalent URL is present.
func (s *Set) Contains(rawURL string) bool {
	_, ok := s.seen[Key(rawURL)]
	return ok
}

// Len returns the number of distinct candidates.
func (s *Set) Len() int {
	return len(s.links)
}

// Links returns the candidates in insertion order.
func (s *Set) Links() []crawler.CandidateLink {
	out := make([]crawler.CandidateLink, len(s.links))
	copy(out, s.links)
	return out
}
