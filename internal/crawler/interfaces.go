package crawler

import (
	"context"
	"time"
)

// Session is a per-target browsing context. Each Fetch is isolated: an error
// affects only the URL it was called with.
type Session interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
	Close()
}

// SessionOpener opens one Session per target.
type SessionOpener interface {
	Open(ctx context.Context) (Session, error)
}

// SitemapSource lists the <loc> entries of a sitemap document.
type SitemapSource interface {
	SitemapLocs(ctx context.Context, sitemapURL string, timeout time.Duration) ([]string, error)
}

// Extractor turns crawl text into a firm record.
type Extractor interface {
	Extract(ctx context.Context, text string) Result[FirmRecord]
}

// InsightExtractor derives career insights from section pages.
type InsightExtractor interface {
	ExtractInsights(ctx context.Context, sections []Section, fallback string) Result[InsightRecord]
}

// RecordStore persists extracted records.
type RecordStore interface {
	StoreFirm(ctx context.Context, record FirmRecord) error
	StoreInsights(ctx context.Context, firmName string, insight InsightRecord) error
}

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// RateLimiter blocks until a request to rawURL's host may proceed.
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
