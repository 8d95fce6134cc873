// Package discovery finds same-origin section pages worth crawling for a
// target by merging DOM anchors, sitemap entries, well-known static paths,
// and caller-supplied paths.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// DefaultKeywords select anchors and sitemap entries by case-insensitive substring.
var DefaultKeywords = []string{
	"career", "about", "people", "team", "our people",
	"news", "insight", "join", "culture", "life",
}

// DefaultStaticPaths are always offered as candidates.
var DefaultStaticPaths = []string{
	"/careers", "/about-us", "/our-people", "/news",
	"/team", "/people", "/insights", "/join-us",
}

// SitemapPaths are probed independently on every target.
var SitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml"}

const defaultSitemapTimeout = 8 * time.Second

// Config tunes discovery. Zero values fall back to the defaults above.
type Config struct {
	Keywords       []string
	StaticPaths    []string
	SitemapTimeout time.Duration
}

// Candidates is the merged discovery result.
type Candidates struct {
	Links []crawler.CandidateLink
	// Counts holds distinct links per source before cross-source dedup.
	Counts map[crawler.Source]int
}

// Discoverer produces candidate links for a target's home page.
type Discoverer struct {
	keywords       []string
	staticPaths    []string
	sitemapTimeout time.Duration
	sitemaps       crawler.SitemapSource
	logger         *zap.Logger
}

// New builds a Discoverer. A nil sitemaps source disables sitemap discovery.
func New(cfg Config, sitemaps crawler.SitemapSource, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lowered = append(lowered, strings.ToLower(kw))
	}
	static := cfg.StaticPaths
	if static == nil {
		static = DefaultStaticPaths
	}
	timeout := cfg.SitemapTimeout
	if timeout <= 0 {
		timeout = defaultSitemapTimeout
	}
	return &Discoverer{
		keywords:       lowered,
		staticPaths:    static,
		sitemapTimeout: timeout,
		sitemaps:       sitemaps,
		logger:         logger,
	}
}

// Discover merges all four sources for baseURL in DOM, sitemap, static, extra
// order. The result is deduplicated but not capped.
func (d *Discoverer) Discover(ctx context.Context, baseURL, homeHTML string, extraPaths []string) (Candidates, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Candidates{}, fmt.Errorf("parse base url: %w", err)
	}

	sources := []struct {
		source crawler.Source
		links  []crawler.CandidateLink
	}{
		{crawler.SourceDOM, d.FromDOM(base, homeHTML)},
		{crawler.SourceSitemap, d.FromSitemaps(ctx, base)},
		{crawler.SourceStatic, d.FromPaths(base, d.staticPaths, crawler.SourceStatic)},
		{crawler.SourceExtra, d.FromPaths(base, extraPaths, crawler.SourceExtra)},
	}

	merged := NewSet()
	counts := make(map[crawler.Source]int, len(sources))
	for _, s := range sources {
		counts[s.source] = len(s.links)
		for _, link := range s.links {
			merged.Add(link)
		}
	}

	d.logger.Debug("candidate discovery complete",
		zap.String("target", baseURL),
		zap.Int("candidates", merged.Len()),
		zap.Int("dom", counts[crawler.SourceDOM]),
		zap.Int("sitemap", counts[crawler.SourceSitemap]),
		zap.Int("static", counts[crawler.SourceStatic]),
		zap.Int("extra", counts[crawler.SourceExtra]),
	)
	return Candidates{Links: merged.Links(), Counts: counts}, nil
}

// FromDOM scans anchors whose text or href mentions a keyword.
func (d *Discoverer) FromDOM(base *url.URL, homeHTML string) []crawler.CandidateLink {
	if strings.TrimSpace(homeHTML) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(homeHTML))
	if err != nil {
		d.logger.Debug("home page parse failed", zap.String("target", base.String()), zap.Error(err))
		return nil
	}
	set := NewSet()
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.ToLower(a.Text())
		if !d.matches(text) && !d.matches(strings.ToLower(href)) {
			return
		}
		if resolved, ok := crawler.ResolveCandidate(base, href); ok {
			set.Add(crawler.CandidateLink{URL: resolved, Source: crawler.SourceDOM})
		}
	})
	return set.Links()
}

// FromSitemaps reads each sitemap path and keeps keyword-matching <loc> entries.
// A failing sitemap is skipped without affecting the other.
func (d *Discoverer) FromSitemaps(ctx context.Context, base *url.URL) []crawler.CandidateLink {
	if d.sitemaps == nil {
		return nil
	}
	set := NewSet()
	for _, p := range SitemapPaths {
		sitemapURL := base.ResolveReference(&url.URL{Path: p}).String()
		locs, err := d.sitemaps.SitemapLocs(ctx, sitemapURL, d.sitemapTimeout)
		if err != nil {
			d.logger.Debug("skipping sitemap", zap.String("url", sitemapURL), zap.Error(err))
			continue
		}
		for _, loc := range locs {
			loc = strings.TrimSpace(loc)
			if loc == "" || !d.matches(strings.ToLower(loc)) {
				continue
			}
			if resolved, ok := crawler.ResolveCandidate(base, loc); ok {
				set.Add(crawler.CandidateLink{URL: resolved, Source: crawler.SourceSitemap})
			}
		}
	}
	return set.Links()
}

// FromPaths resolves fixed paths against base without keyword filtering.
func (d *Discoverer) FromPaths(base *url.URL, paths []string, source crawler.Source) []crawler.CandidateLink {
	set := NewSet()
	for _, p := range paths {
		if resolved, ok := crawler.ResolveCandidate(base, p); ok {
			set.Add(crawler.CandidateLink{URL: resolved, Source: source})
		}
	}
	return set.Links()
}

func (d *Discoverer) matches(lowered string) bool {
	for _, kw := range d.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
