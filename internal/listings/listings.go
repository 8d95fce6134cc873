// Package listings searches job boards for a company's advertised roles.
package listings

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// DefaultLocation is searched when none is configured.
const DefaultLocation = "London"

// Searcher finds listings for a company on one source.
type Searcher interface {
	Name() string
	SearchListings(ctx context.Context, company string) ([]crawler.Listing, error)
}

// Config tunes every board searcher.
type Config struct {
	Location    string
	MaxPages    int
	PageTimeout time.Duration
}

// BoardSearcher scrapes one Board through a fetch session.
type BoardSearcher struct {
	board   Board
	cfg     Config
	opener  crawler.SessionOpener
	limiter crawler.RateLimiter
	logger  *zap.Logger
}

// NewBoardSearcher builds a searcher for board. limiter may be nil.
func NewBoardSearcher(
	board Board,
	cfg Config,
	opener crawler.SessionOpener,
	limiter crawler.RateLimiter,
	logger *zap.Logger,
) *BoardSearcher {
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardSearcher{board: board, cfg: cfg, opener: opener, limiter: limiter, logger: logger}
}

// NewSearchers builds one searcher per board.
func NewSearchers(
	boards []Board,
	cfg Config,
	opener crawler.SessionOpener,
	limiter crawler.RateLimiter,
	logger *zap.Logger,
) []Searcher {
	out := make([]Searcher, 0, len(boards))
	for _, b := range boards {
		out = append(out, NewBoardSearcher(b, cfg, opener, limiter, logger))
	}
	return out
}

// Name implements Searcher.
func (s *BoardSearcher) Name() string { return s.board.Name }

// SearchListings walks result pages until one is empty, short, or fails.
// Listings gathered before a failing page are kept.
func (s *BoardSearcher) SearchListings(ctx context.Context, company string) ([]crawler.Listing, error) {
	session, err := s.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: open session: %w", s.board.Name, err)
	}
	defer session.Close()

	pages := s.board.MaxPages
	if s.cfg.MaxPages > 0 && pages > s.cfg.MaxPages {
		pages = s.cfg.MaxPages
	}
	if pages <= 0 {
		pages = 1
	}
	logger := s.logger.With(zap.String("board", s.board.Name), zap.String("company", company))

	var out []crawler.Listing
	for page := 1; page <= pages; page++ {
		pageURL := s.board.PageURL(company, s.cfg.Location, page)
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, pageURL); err != nil {
				return out, fmt.Errorf("%s: rate limit: %w", s.board.Name, err)
			}
		}
		logger.Info("scraping board page", zap.Int("page", page))
		html, err := session.Fetch(ctx, pageURL, s.cfg.PageTimeout)
		if err != nil {
			logger.Warn("board page failed", zap.Int("page", page), zap.Error(err))
			if len(out) == 0 {
				return nil, fmt.Errorf("%s: page %d: %w", s.board.Name, page, err)
			}
			break
		}
		found, cards, err := ParsePage(s.board, html, company, s.cfg.Location)
		if err != nil {
			return out, fmt.Errorf("%s: parse page %d: %w", s.board.Name, page, err)
		}
		out = append(out, found...)
		if cards < pageSize {
			break
		}
	}
	logger.Info("board search complete", zap.Int("listings", len(out)))
	return out, nil
}

// ParsePage extracts listings from one results page. It also returns the
// number of cards seen, including ones skipped for lacking a title.
func ParsePage(board Board, html, company, location string) ([]crawler.Listing, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}
	base, _ := url.Parse(board.BaseURL)
	sel := board.Selectors
	cards := doc.Find(sel.Card)

	var out []crawler.Listing
	cards.Each(func(_ int, card *goquery.Selection) {
		title := firstText(card, sel.Title)
		if title == "" || title == "N/A" {
			return
		}
		listing := crawler.Listing{
			Title:    title,
			Company:  orDefault(firstText(card, sel.Company), company),
			Location: orDefault(firstText(card, sel.Location), location),
			Summary:  firstText(card, sel.Summary),
			Board:    board.Name,
		}
		if href, ok := card.Find(sel.Link).First().Attr("href"); ok {
			listing.URL = absolute(base, href)
		}
		out = append(out, listing)
	})
	return out, cards.Length(), nil
}

// SearchAll queries every searcher concurrently. A failing searcher is logged
// and skipped. Results keep searcher order and are deduplicated by
// case-insensitive (title, company).
func SearchAll(ctx context.Context, searchers []Searcher, company string, logger *zap.Logger) []crawler.Listing {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([][]crawler.Listing, len(searchers))
	var wg sync.WaitGroup
	for i, s := range searchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Warn("searcher panicked", zap.String("board", s.Name()), zap.Any("panic", r))
				}
			}()
			found, err := s.SearchListings(ctx, company)
			if err != nil {
				logger.Warn("searcher returned error", zap.String("board", s.Name()), zap.Error(err))
			}
			results[i] = found
		}()
	}
	wg.Wait()

	type key struct{ title, company string }
	seen := make(map[key]struct{})
	var out []crawler.Listing
	for _, batch := range results {
		for _, l := range batch {
			k := key{strings.ToLower(l.Title), strings.ToLower(l.Company)}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, l)
		}
	}
	logger.Info("total unique listings", zap.String("company", company), zap.Int("count", len(out)))
	return out
}

func firstText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(card.Find(selector).First().Text())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func absolute(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
