// Package extract turns crawled firm text into structured records with a
// language model.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// DefaultMaxInputChars bounds the text sent to the model.
const DefaultMaxInputChars = 15000

// CareerKeywords select the sections used for the insight pass.
var CareerKeywords = []string{"career", "join", "vacanc", "graduate", "trainee"}

const firmPrompt = `You are a Career Consultant analyzing a London Law Firm.
Extract resume-tailoring data from the raw website text below.
If data is missing, make an educated guess based on the tone of the text.

Respond with a single JSON object with exactly these keys:
  "firm_name": name of the firm (string)
  "motto": company motto or tagline (string)
  "hiring_keywords": 5 adjectives describing their ideal candidate (array of strings)
  "firm_tone": one of "Formal", "Aggressive", "Modern", "Community" (string)
  "recent_wins": recent cases or deals found in the text (array of strings)
  "lifestyle_summary": work-life balance and culture (string)
  "sector_focus": top 3 industries they serve (array of strings)`

const insightPrompt = `You are a Career Consultant reading a law firm's own careers pages.
Extract what a candidate needs to know from the text below.
Only report what the text supports; use empty values otherwise.

Respond with a single JSON object with exactly these keys:
  "current_openings": roles currently advertised (array of strings)
  "benefits": benefits and perks offered (array of strings)
  "culture_highlights": statements about culture and values (array of strings)
  "training_programmes": training contracts, vacation schemes, academies (array of strings)
  "application_tips": advice for applicants (string)`

// Extractor calls a chat model in JSON mode at temperature zero.
type Extractor struct {
	model    llms.Model
	maxChars int
	logger   *zap.Logger
}

// New creates an Extractor around model.
func New(model llms.Model, maxChars int, logger *zap.Logger) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{model: model, maxChars: maxChars, logger: logger}
}

// Extract derives a FirmRecord from text.
func (e *Extractor) Extract(ctx context.Context, text string) crawler.Result[crawler.FirmRecord] {
	var record crawler.FirmRecord
	ok, reason := e.generate(ctx, firmPrompt, text, &record)
	switch {
	case reason != "":
		return crawler.Failed[crawler.FirmRecord](reason)
	case !ok || isEmptyFirm(record):
		return crawler.Empty[crawler.FirmRecord]()
	}
	record.FirmName = strings.TrimSpace(record.FirmName)
	return crawler.Ok(record)
}

// ExtractInsights derives an InsightRecord from the careers-related
// sections, or from fallback when there are none.
func (e *Extractor) ExtractInsights(
	ctx context.Context,
	sections []crawler.Section,
	fallback string,
) crawler.Result[crawler.InsightRecord] {
	text := CareerText(sections)
	if text == "" {
		text = fallback
	}
	if strings.TrimSpace(text) == "" {
		return crawler.Empty[crawler.InsightRecord]()
	}
	var insight crawler.InsightRecord
	ok, reason := e.generate(ctx, insightPrompt, text, &insight)
	switch {
	case reason != "":
		return crawler.Failed[crawler.InsightRecord](reason)
	case !ok || insight.IsZero():
		return crawler.Empty[crawler.InsightRecord]()
	}
	return crawler.Ok(insight)
}

// CareerText joins the sections whose URL mentions a career keyword.
func CareerText(sections []crawler.Section) string {
	var b strings.Builder
	for _, s := range sections {
		lowered := strings.ToLower(s.URL)
		for _, kw := range CareerKeywords {
			if strings.Contains(lowered, kw) {
				b.WriteString(crawler.SourceMarker(s.URL))
				b.WriteString(s.Text)
				break
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// generate reports ok=false when the model answered with nothing usable and
// a non-empty reason when the call or decode failed.
func (e *Extractor) generate(ctx context.Context, prompt, text string, out any) (bool, string) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt),
		llms.TextParts(llms.ChatMessageTypeHuman, "RAW TEXT FROM WEBSITE:\n"+Truncate(text, e.maxChars)),
	}
	resp, err := e.model.GenerateContent(ctx, messages,
		llms.WithTemperature(0),
		llms.WithJSONMode(),
	)
	if err != nil {
		e.logger.Error("llm extraction error", zap.Error(err))
		return false, fmt.Sprintf("llm: %v", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return false, ""
	}
	body := stripFences(resp.Choices[0].Content)
	if body == "" || body == "null" || body == "{}" {
		return false, ""
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		e.logger.Warn("llm returned malformed json", zap.Error(err), zap.Int("bytes", len(body)))
		return false, fmt.Sprintf("decode llm output: %v", err)
	}
	return true, ""
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isEmptyFirm(r crawler.FirmRecord) bool {
	return strings.TrimSpace(r.FirmName) == "" &&
		r.Motto == "" &&
		r.FirmTone == "" &&
		r.LifestyleSummary == "" &&
		len(r.HiringKeywords) == 0 &&
		len(r.RecentWins) == 0 &&
		len(r.SectorFocus) == 0
}
