// Package aggregator builds the crawl unit for a target: the home page plus a
// bounded set of discovered section pages, flattened to text.
package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
	"github.com/JakeFAU/firm-intel-crawler/internal/discovery"
	"github.com/JakeFAU/firm-intel-crawler/internal/metrics"
	"github.com/JakeFAU/firm-intel-crawler/internal/textconv"
)

const (
	defaultHomeTimeout    = 30 * time.Second
	defaultSectionTimeout = 10 * time.Second
	defaultSectionCap     = 5
)

// Config bounds the work done per target.
type Config struct {
	HomeTimeout    time.Duration
	SectionTimeout time.Duration
	SectionCap     int
	ExtraPaths     []string
}

// Discoverer finds candidate section links for a home page.
type Discoverer interface {
	Discover(ctx context.Context, baseURL, homeHTML string, extraPaths []string) (discovery.Candidates, error)
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithRobots checks section URLs against a robots policy before fetching.
func WithRobots(policy crawler.RobotsPolicy) Option {
	return func(a *Aggregator) { a.robots = policy }
}

// WithRateLimiter throttles every fetch per host.
func WithRateLimiter(limiter crawler.RateLimiter) Option {
	return func(a *Aggregator) { a.limiter = limiter }
}

// WithConverter replaces the HTML to text conversion.
func WithConverter(convert func(string) (string, error)) Option {
	return func(a *Aggregator) { a.convert = convert }
}

// Aggregator drives a per-target session through the home page and sections.
type Aggregator struct {
	cfg        Config
	opener     crawler.SessionOpener
	discoverer Discoverer
	robots     crawler.RobotsPolicy
	limiter    crawler.RateLimiter
	convert    func(string) (string, error)
	logger     *zap.Logger
}

// New constructs an Aggregator.
func New(cfg Config, opener crawler.SessionOpener, discoverer Discoverer, logger *zap.Logger, opts ...Option) *Aggregator {
	if cfg.HomeTimeout <= 0 {
		cfg.HomeTimeout = defaultHomeTimeout
	}
	if cfg.SectionTimeout <= 0 {
		cfg.SectionTimeout = defaultSectionTimeout
	}
	if cfg.SectionCap <= 0 {
		cfg.SectionCap = defaultSectionCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		cfg:        cfg,
		opener:     opener,
		discoverer: discoverer,
		convert:    textconv.FromHTML,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build returns the crawl unit for target. A failed home page yields a unit
// with no text; a failed section is skipped. Build never returns an error.
func (a *Aggregator) Build(ctx context.Context, target string) crawler.CrawlUnit {
	unit := crawler.CrawlUnit{Target: target}
	logger := a.logger.With(zap.String("target", target))

	session, err := a.opener.Open(ctx)
	if err != nil {
		logger.Error("open session failed", zap.Error(err))
		return unit
	}
	defer session.Close()

	logger.Info("visiting home page")
	homeHTML, err := a.fetch(ctx, session, target, a.cfg.HomeTimeout)
	if err != nil {
		logger.Error("home page fetch failed", zap.Error(err))
		return unit
	}
	logger.Debug("home page fetched", zap.Int("html_bytes", len(homeHTML)))
	if text, convErr := a.convert(homeHTML); convErr != nil {
		logger.Warn("home page conversion failed", zap.Error(convErr))
	} else {
		unit.HomeText = text
	}

	candidates, err := a.discoverer.Discover(ctx, target, homeHTML, a.cfg.ExtraPaths)
	if err != nil {
		logger.Warn("candidate discovery failed", zap.Error(err))
		return unit
	}
	for source, n := range candidates.Counts {
		metrics.ObserveCandidates(string(source), n)
	}

	links := candidates.Links
	if len(links) > a.cfg.SectionCap {
		links = links[:a.cfg.SectionCap]
	}
	logger.Info("section candidates selected",
		zap.Int("found", len(candidates.Links)),
		zap.Int("processing", len(links)),
		zap.Int("max", a.cfg.SectionCap),
	)

	for _, link := range links {
		if section, ok := a.fetchSection(ctx, session, link, logger); ok {
			unit.Sections = append(unit.Sections, section)
		}
	}
	return unit
}

func (a *Aggregator) fetchSection(
	ctx context.Context,
	session crawler.Session,
	link crawler.CandidateLink,
	logger *zap.Logger,
) (crawler.Section, bool) {
	logger = logger.With(zap.String("url", link.URL), zap.String("source", string(link.Source)))
	if a.robots != nil && !a.robots.Allowed(ctx, link.URL) {
		metrics.ObserveSectionFetch(link.URL, "disallowed")
		logger.Info("section disallowed by robots.txt")
		return crawler.Section{}, false
	}
	logger.Info("visiting section link")
	html, err := a.fetch(ctx, session, link.URL, a.cfg.SectionTimeout)
	if err != nil {
		logger.Warn("skipping section", zap.Error(err))
		return crawler.Section{}, false
	}
	text, err := a.convert(html)
	if err != nil {
		logger.Warn("skipping section", zap.Error(err))
		return crawler.Section{}, false
	}
	return crawler.Section{URL: link.URL, Text: text}, true
}

func (a *Aggregator) fetch(ctx context.Context, session crawler.Session, rawURL string, timeout time.Duration) (string, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, rawURL); err != nil {
			metrics.ObserveSectionFetch(rawURL, "rate_limited")
			return "", err
		}
	}
	html, err := session.Fetch(ctx, rawURL, timeout)
	if err != nil {
		metrics.ObserveSectionFetch(rawURL, "error")
		return "", err
	}
	metrics.ObserveSectionFetch(rawURL, "ok")
	return html, nil
}
