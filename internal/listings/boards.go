package listings

import (
	"fmt"
	"net/url"
	"strconv"
)

// Selectors are the CSS selectors for one board's result cards. Each field
// may list alternatives separated by commas; the first match in document
// order wins.
type Selectors struct {
	Card     string
	Title    string
	Company  string
	Location string
	Summary  string
	Link     string
}

// Board describes how to search one job board.
type Board struct {
	Name      string
	BaseURL   string
	MaxPages  int
	Selectors Selectors
	// SearchPath returns the path and query for page (1-based).
	SearchPath func(company, location string, page int) string
}

// PageURL returns the absolute search URL for page.
func (b Board) PageURL(company, location string, page int) string {
	return b.BaseURL + b.SearchPath(company, location, page)
}

// WithBaseURL returns a copy of b that targets base instead.
func (b Board) WithBaseURL(base string) Board {
	b.BaseURL = base
	return b
}

// pageSize is the result count of a full page. A shorter page is the last.
const pageSize = 10

var q = url.QueryEscape

// DefaultBoards are the UK boards searched by default.
func DefaultBoards() []Board {
	return []Board{
		{
			Name:     "Indeed",
			BaseURL:  "https://www.indeed.co.uk",
			MaxPages: 3,
			Selectors: Selectors{
				Card:     ".jobsearch-SerpJobCard, [data-tn-component='organicJob']",
				Title:    "h2.jobTitle a, h2 a, .jobTitle",
				Company:  ".companyName, .company",
				Location: ".companyLocation, .location",
				Summary:  ".summary, .job-snippet",
				Link:     "h2.jobTitle a, h2 a",
			},
			SearchPath: func(company, location string, page int) string {
				path := fmt.Sprintf("/jobs?q=%s&l=%s", q(`company:"`+company+`"`), q(location))
				if page > 1 {
					path += "&start=" + strconv.Itoa((page-1)*pageSize)
				}
				return path
			},
		},
		{
			Name:     "Reed",
			BaseURL:  "https://www.reed.co.uk",
			MaxPages: 3,
			Selectors: Selectors{
				Card:     ".job-result, .job-result-info",
				Title:    "h2 a, h3 a, .job-result-title a",
				Company:  ".job-result-company, .company",
				Location: ".job-result-location, .location",
				Summary:  ".job-result-description, .description",
				Link:     "h2 a, h3 a, .job-result-title a",
			},
			SearchPath: func(company, location string, page int) string {
				return fmt.Sprintf("/jobs?keywords=%s&location=%s&page=%d", q(company), q(location), page)
			},
		},
		{
			Name:     "CV-Library",
			BaseURL:  "https://www.cv-library.co.uk",
			MaxPages: 3,
			Selectors: Selectors{
				Card:     ".search-result, .job-row",
				Title:    "h2 a, h3 a, .job-title a",
				Company:  ".company-name, .employer",
				Location: ".location, .job-location",
				Summary:  ".job-description, .summary",
				Link:     "h2 a, h3 a, .job-title a",
			},
			SearchPath: func(company, location string, page int) string {
				return fmt.Sprintf("/search?phrases=%s&location=%s&page=%d", q(company), q(location), page)
			},
		},
		{
			Name:     "TotallyLegal",
			BaseURL:  "https://www.totallylegal.com",
			MaxPages: 1,
			Selectors: Selectors{
				Card:     ".result, .job-listing",
				Title:    "h2 a, h3 a, .job-title a",
				Company:  ".company, .employer",
				Location: ".location",
				Summary:  ".description, .summary",
				Link:     "h2 a, h3 a, .job-title a",
			},
			SearchPath: func(company, location string, _ int) string {
				return fmt.Sprintf("/jobs/search/?q=%s&location=%s", q(company), q(location))
			},
		},
		{
			Name:     "LawCareers.Net",
			BaseURL:  "https://www.lawcareers.net",
			MaxPages: 1,
			Selectors: Selectors{
				Card:     ".vacancy, .job-listing, .result, .job-card",
				Title:    "h2 a, h3 a, .title a",
				Company:  ".company, .employer, .firm",
				Location: ".location",
				Summary:  ".description, .summary",
				Link:     "h2 a, h3 a, .title a",
			},
			SearchPath: func(company, _ string, _ int) string {
				return "/Search/Vacancies?q=" + q(company)
			},
		},
		{
			Name:     "Hays",
			BaseURL:  "https://www.hays.co.uk",
			MaxPages: 1,
			Selectors: Selectors{
				Card:     ".job-card, .job-result, .search-result, .job-listing",
				Title:    "h2 a, h3 a, .job-title a, .title a",
				Company:  ".company, .employer",
				Location: ".location, .job-location",
				Summary:  ".description, .summary, .job-description",
				Link:     "h2 a, h3 a, .job-title a, .title a",
			},
			SearchPath: func(company, location string, _ int) string {
				return fmt.Sprintf("/jobs?q=%s&location=%s", q(company), q(location))
			},
		},
	}
}
