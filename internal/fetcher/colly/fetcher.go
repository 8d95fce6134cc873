// Package collyfetcher implements plain-HTTP page sessions and sitemap
// reading on top of gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

const defaultTimeout = 60 * time.Second

// Config controls collector behavior. Timeout is the ceiling applied to the
// shared HTTP client; per-call timeouts below it are enforced by context.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher issues GET requests through cloned Colly collectors.
type Fetcher struct {
	cfg           Config
	transport     *http.Transport
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(cfg.Timeout)

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Open returns a Session for one target. Idle connections are released when
// the session closes.
func (f *Fetcher) Open(context.Context) (crawler.Session, error) {
	return &session{fetcher: f}, nil
}

// Fetch returns the response body of rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	var (
		body     string
		fetchErr error
	)
	ctx, cancel := context.WithTimeout(ctx, f.timeout(timeout))
	defer cancel()

	collector := f.buildCollector(ctx)
	f.configureCollectorHooks(collector, &body, &fetchErr)

	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return "", err
	}
	return body, nil
}

// SitemapLocs returns the text of every <loc> element in the sitemap at sitemapURL.
func (f *Fetcher) SitemapLocs(ctx context.Context, sitemapURL string, timeout time.Duration) ([]string, error) {
	var (
		locs     []string
		body     string
		fetchErr error
	)
	ctx, cancel := context.WithTimeout(ctx, f.timeout(timeout))
	defer cancel()

	collector := f.buildCollector(ctx)
	f.configureCollectorHooks(collector, &body, &fetchErr)
	collector.OnXML("//loc", func(e *colly.XMLElement) {
		if loc := strings.TrimSpace(e.Text); loc != "" {
			locs = append(locs, loc)
		}
	})

	if err := f.runCollector(ctx, collector, sitemapURL, &fetchErr); err != nil {
		return nil, err
	}
	return locs, nil
}

func (f *Fetcher) buildCollector(ctx context.Context) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	return collector
}

func (f *Fetcher) timeout(requested time.Duration) time.Duration {
	if requested <= 0 || requested > f.cfg.Timeout {
		return f.cfg.Timeout
	}
	return requested
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, body *string, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*body = string(r.Body)
	})
	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(
	ctx context.Context,
	collector *colly.Collector,
	rawURL string,
	fetchErr *error,
) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func (f *Fetcher) closeIdle() {
	f.transport.CloseIdleConnections()
}

type session struct {
	fetcher *Fetcher
}

func (s *session) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	return s.fetcher.Fetch(ctx, rawURL, timeout)
}

func (s *session) Close() {
	s.fetcher.closeIdle()
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
