package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlUnitText(t *testing.T) {
	t.Parallel()

	unit := CrawlUnit{
		Target:   "https://example.com",
		HomeText: "Home",
		Sections: []Section{
			{URL: "https://example.com/careers", Text: "Join us"},
			{URL: "https://example.com/team", Text: "Our team"},
		},
	}
	want := "Home" +
		"\n--- SOURCE: https://example.com/careers ---\nJoin us" +
		"\n--- SOURCE: https://example.com/team ---\nOur team"
	assert.Equal(t, want, unit.Text())
	assert.False(t, unit.Empty())
	assert.True(t, CrawlUnit{Target: "https://example.com", HomeText: " \n"}.Empty())
}

func TestFirmRecordEmbeddingText(t *testing.T) {
	t.Parallel()

	rec := FirmRecord{
		FirmName:         "Acme Law",
		FirmTone:         "Modern",
		HiringKeywords:   []string{"curious", "driven"},
		LifestyleSummary: "Hybrid working",
		SectorFocus:      []string{"Tech", "Media"},
	}
	assert.Equal(t, "acme_law", rec.ID())
	assert.Equal(t,
		"Firm: Acme Law\nTone: Modern\nKeywords: curious, driven\nLifestyle: Hybrid working\nSectors: Tech, Media",
		rec.EmbeddingText())
}

func TestInsightRecordIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, InsightRecord{}.IsZero())
	assert.False(t, InsightRecord{Benefits: []string{"pension"}}.IsZero())
	assert.False(t, InsightRecord{ApplicationTips: "apply early"}.IsZero())
}
