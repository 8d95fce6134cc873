package crawler

import (
	"strings"
)

// Source tags where a candidate link was discovered.
type Source string

const (
	// SourceDOM marks anchors found on the rendered home page.
	SourceDOM Source = "dom"
	// SourceSitemap marks <loc> entries from sitemap documents.
	SourceSitemap Source = "sitemap"
	// SourceStatic marks well-known section paths.
	SourceStatic Source = "static"
	// SourceExtra marks caller-supplied paths.
	SourceExtra Source = "extra"
)

// CandidateLink is a same-origin URL believed to hold organizational content.
// Source is informational and does not take part in identity.
type CandidateLink struct {
	URL    string
	Source Source
}

// Section is the flattened text of one fetched section page.
type Section struct {
	URL  string
	Text string
}

// SourceMarker prefixes section text so provenance survives flattening.
func SourceMarker(url string) string {
	return "\n--- SOURCE: " + url + " ---\n"
}

// CrawlUnit is the text gathered for one target during one attempt.
type CrawlUnit struct {
	Target   string
	HomeText string
	Sections []Section
}

// Text concatenates the home text and every section in fetch order.
func (u CrawlUnit) Text() string {
	var b strings.Builder
	b.WriteString(u.HomeText)
	for _, s := range u.Sections {
		b.WriteString(SourceMarker(s.URL))
		b.WriteString(s.Text)
	}
	return b.String()
}

// Empty reports whether the unit carries no usable text.
func (u CrawlUnit) Empty() bool {
	return strings.TrimSpace(u.Text()) == ""
}

// FirmRecord is the structured profile extracted for one organization.
type FirmRecord struct {
	FirmName         string   `json:"firm_name"`
	Motto            string   `json:"motto"`
	HiringKeywords   []string `json:"hiring_keywords"`
	FirmTone         string   `json:"firm_tone"`
	RecentWins       []string `json:"recent_wins"`
	LifestyleSummary string   `json:"lifestyle_summary"`
	SectorFocus      []string `json:"sector_focus"`
	SourceURL        string   `json:"source_url,omitempty"`
}

// ID is the stable storage key derived from the firm name.
func (r FirmRecord) ID() string {
	return FirmID(r.FirmName)
}

// EmbeddingText is the document embedded for similarity search.
func (r FirmRecord) EmbeddingText() string {
	return "Firm: " + r.FirmName +
		"\nTone: " + r.FirmTone +
		"\nKeywords: " + strings.Join(r.HiringKeywords, ", ") +
		"\nLifestyle: " + r.LifestyleSummary +
		"\nSectors: " + strings.Join(r.SectorFocus, ", ")
}

// InsightRecord captures career-page specifics for one organization.
type InsightRecord struct {
	CurrentOpenings    []string `json:"current_openings"`
	Benefits           []string `json:"benefits"`
	CultureHighlights  []string `json:"culture_highlights"`
	TrainingProgrammes []string `json:"training_programmes"`
	ApplicationTips    string   `json:"application_tips"`
}

// IsZero reports whether the record holds nothing worth storing.
func (r InsightRecord) IsZero() bool {
	return len(r.CurrentOpenings) == 0 &&
		len(r.Benefits) == 0 &&
		len(r.CultureHighlights) == 0 &&
		len(r.TrainingProgrammes) == 0 &&
		strings.TrimSpace(r.ApplicationTips) == ""
}

// FirmMatch is a similarity search hit.
type FirmMatch struct {
	Record     FirmRecord
	Similarity float64
}

// Listing is one job advert found on a job board.
type Listing struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Summary  string `json:"summary,omitempty"`
	URL      string `json:"url,omitempty"`
	Board    string `json:"board"`
}
