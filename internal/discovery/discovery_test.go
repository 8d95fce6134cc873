package discovery

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

type fakeSitemaps struct {
	docs     map[string][]string
	errs     map[string]error
	requests []string
	timeouts []time.Duration
}

func (f *fakeSitemaps) SitemapLocs(_ context.Context, sitemapURL string, timeout time.Duration) ([]string, error) {
	f.requests = append(f.requests, sitemapURL)
	f.timeouts = append(f.timeouts, timeout)
	if err := f.errs[sitemapURL]; err != nil {
		return nil, err
	}
	return f.docs[sitemapURL], nil
}

func urls(links []crawler.CandidateLink) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.URL)
	}
	return out
}

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFromDOMMatchesTextOrHref(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<a href="/vacancies">Careers at Acme</a>
<a href="/who-we-are/our-team/">Meet us</a>
<a href="/contact">Contact</a>
<a href="https://other.com/careers">Partner careers</a>
<a href="/Our-People">OUR PEOPLE</a>
<a href="/team">Team</a>
<a href="/team/">Team again</a>
</body></html>`

	d := New(Config{}, nil, nil)
	got := d.FromDOM(mustBase(t, "https://example.com"), html)

	assert.Equal(t, []string{
		"https://example.com/vacancies",
		"https://example.com/who-we-are/our-team",
		"https://example.com/Our-People",
		"https://example.com/team",
	}, urls(got))
	for _, l := range got {
		assert.Equal(t, crawler.SourceDOM, l.Source)
	}
}

func TestDiscoverRejectsCrossOrigin(t *testing.T) {
	t.Parallel()

	sitemaps := &fakeSitemaps{docs: map[string][]string{
		"https://example.com/sitemap.xml": {"https://other.com/careers", "https://example.com/careers/graduates"},
	}}
	d := New(Config{}, sitemaps, nil)
	got, err := d.Discover(context.Background(), "https://example.com",
		`<a href="https://other.com/careers">Careers</a>`, []string{"https://other.com/join-us"})
	require.NoError(t, err)

	for _, l := range got.Links {
		assert.NotContains(t, l.URL, "other.com")
	}
	assert.Contains(t, urls(got.Links), "https://example.com/careers/graduates")
}

func TestDiscoverDedupsAcrossSourcesCaseInsensitively(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil, nil)
	got, err := d.Discover(context.Background(), "https://example.com", `<a href="/About-Us/">About</a>`, nil)
	require.NoError(t, err)

	aboutCount := 0
	for _, l := range got.Links {
		if Key(l.URL) == Key("https://example.com/about-us") {
			aboutCount++
			assert.Equal(t, "https://example.com/About-Us", l.URL)
			assert.Equal(t, crawler.SourceDOM, l.Source)
		}
	}
	assert.Equal(t, 1, aboutCount)
	assert.Len(t, got.Links, len(DefaultStaticPaths))
	assert.Equal(t, 1, got.Counts[crawler.SourceDOM])
	assert.Equal(t, len(DefaultStaticPaths), got.Counts[crawler.SourceStatic])
}

func TestDiscoverOrderAndStaticFloor(t *testing.T) {
	t.Parallel()

	sitemaps := &fakeSitemaps{
		docs: map[string][]string{
			"https://example.com/sitemap.xml": {
				"https://example.com/insights/2024",
				"https://example.com/services/tax",
				"https://example.com/careers/",
			},
			"https://example.com/sitemap_index.xml": {"https://example.com/life-at-acme"},
		},
	}
	d := New(Config{SitemapTimeout: 3 * time.Second}, sitemaps, nil)
	got, err := d.Discover(context.Background(), "https://example.com", "", []string{"/graduates", "/careers"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/insights/2024",
		"https://example.com/careers",
		"https://example.com/life-at-acme",
		"https://example.com/about-us",
		"https://example.com/our-people",
		"https://example.com/news",
		"https://example.com/team",
		"https://example.com/people",
		"https://example.com/insights",
		"https://example.com/join-us",
		"https://example.com/graduates",
	}, urls(got.Links))
	assert.Equal(t, []string{
		"https://example.com/sitemap.xml",
		"https://example.com/sitemap_index.xml",
	}, sitemaps.requests)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, sitemaps.timeouts)
	assert.Equal(t, 3, got.Counts[crawler.SourceSitemap])
	assert.Equal(t, 2, got.Counts[crawler.SourceExtra])
}

func TestFromSitemapsSkipsFailingDocument(t *testing.T) {
	t.Parallel()

	sitemaps := &fakeSitemaps{
		errs: map[string]error{"https://example.com/sitemap.xml": errors.New("timeout")},
		docs: map[string][]string{"https://example.com/sitemap_index.xml": {"https://example.com/news/item"}},
	}
	d := New(Config{}, sitemaps, nil)
	got := d.FromSitemaps(context.Background(), mustBase(t, "https://example.com"))

	assert.Equal(t, []string{"https://example.com/news/item"}, urls(got))
	assert.Len(t, sitemaps.requests, 2)
}

func TestDiscoverInvalidBase(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil, nil)
	_, err := d.Discover(context.Background(), "http://%zz", "", nil)
	require.Error(t, err)
}

func TestSetKeepsFirstSpelling(t *testing.T) {
	t.Parallel()

	s := NewSet()
	assert.True(t, s.Add(crawler.CandidateLink{URL: "https://example.com/News", Source: crawler.SourceDOM}))
	assert.False(t, s.Add(crawler.CandidateLink{URL: "https://example.com/news", Source: crawler.SourceStatic}))
	assert.True(t, s.Contains("HTTPS://EXAMPLE.COM/NEWS"))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "https://example.com/News", s.Links()[0].URL)
}
