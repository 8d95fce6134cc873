// Package postgres stores firm profiles and career insights in Postgres with
// pgvector embeddings for similarity search.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	defaultFirmsTable    = "firms"
	defaultInsightsTable = "firm_insights"
	defaultDimensions    = 1536
)

// Config controls the connection pool and table layout.
type Config struct {
	DSN           string
	FirmsTable    string
	InsightsTable string
	Dimensions    int
	MaxConns      int32
}

// Embedder turns a document into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// VectorStore upserts firm and insight rows and serves top-k queries.
type VectorStore struct {
	pool          pool
	embedder      Embedder
	firmsTable    string
	insightsTable string
	dimensions    int
}

// New connects to Postgres. Vectors travel as pgvector text literals.
func New(ctx context.Context, cfg Config, embedder Embedder) (*VectorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewWithPool(p, cfg, embedder)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, cfg Config, embedder Embedder) (*VectorStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	firms := cfg.FirmsTable
	if firms == "" {
		firms = defaultFirmsTable
	}
	insights := cfg.InsightsTable
	if insights == "" {
		insights = defaultInsightsTable
	}
	for _, table := range []string{firms, insights} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &VectorStore{
		pool:          p,
		embedder:      embedder,
		firmsTable:    firms,
		insightsTable: insights,
		dimensions:    dims,
	}, nil
}

// Close releases the underlying pool resources.
func (s *VectorStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the vector extension, both tables and the cosine index.
func (s *VectorStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	firm_name TEXT NOT NULL,
	motto TEXT,
	firm_tone TEXT,
	hiring_keywords TEXT[],
	recent_wins TEXT[],
	lifestyle_summary TEXT,
	sector_focus TEXT[],
	source_url TEXT,
	document TEXT,
	embedding vector(%d),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.firmsTable, s.dimensions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	firm_id TEXT PRIMARY KEY,
	firm_name TEXT NOT NULL,
	current_openings TEXT[],
	benefits TEXT[],
	culture_highlights TEXT[],
	training_programmes TEXT[],
	application_tips TEXT,
	document TEXT,
	embedding vector(%d),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.insightsTable, s.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`,
			s.firmsTable, s.firmsTable),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// StoreFirm embeds and upserts record keyed by its ID.
func (s *VectorStore) StoreFirm(ctx context.Context, record crawler.FirmRecord) error {
	id := record.ID()
	if id == "" {
		return fmt.Errorf("firm name is required")
	}
	doc := record.EmbeddingText()
	vec, err := s.embed(ctx, doc)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, firm_name, motto, firm_tone, hiring_keywords, recent_wins,
	lifestyle_summary, sector_focus, source_url, document, embedding
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
	firm_name = EXCLUDED.firm_name,
	motto = EXCLUDED.motto,
	firm_tone = EXCLUDED.firm_tone,
	hiring_keywords = EXCLUDED.hiring_keywords,
	recent_wins = EXCLUDED.recent_wins,
	lifestyle_summary = EXCLUDED.lifestyle_summary,
	sector_focus = EXCLUDED.sector_focus,
	source_url = EXCLUDED.source_url,
	document = EXCLUDED.document,
	embedding = EXCLUDED.embedding,
	updated_at = now()`, s.firmsTable)

	args := []any{
		id,
		record.FirmName,
		record.Motto,
		record.FirmTone,
		record.HiringKeywords,
		record.RecentWins,
		record.LifestyleSummary,
		record.SectorFocus,
		record.SourceURL,
		doc,
		vec,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert firm: %w", err)
	}
	return nil
}

// StoreInsights embeds and upserts insight for firmName.
func (s *VectorStore) StoreInsights(ctx context.Context, firmName string, insight crawler.InsightRecord) error {
	id := crawler.FirmID(firmName)
	if id == "" {
		return fmt.Errorf("firm name is required")
	}
	doc := InsightDocument(firmName, insight)
	vec, err := s.embed(ctx, doc)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	firm_id, firm_name, current_openings, benefits, culture_highlights,
	training_programmes, application_tips, document, embedding
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (firm_id) DO UPDATE SET
	firm_name = EXCLUDED.firm_name,
	current_openings = EXCLUDED.current_openings,
	benefits = EXCLUDED.benefits,
	culture_highlights = EXCLUDED.culture_highlights,
	training_programmes = EXCLUDED.training_programmes,
	application_tips = EXCLUDED.application_tips,
	document = EXCLUDED.document,
	embedding = EXCLUDED.embedding,
	updated_at = now()`, s.insightsTable)

	args := []any{
		id,
		firmName,
		insight.CurrentOpenings,
		insight.Benefits,
		insight.CultureHighlights,
		insight.TrainingProgrammes,
		insight.ApplicationTips,
		doc,
		vec,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert insights: %w", err)
	}
	return nil
}

// Query returns the k firms closest to text by cosine distance.
func (s *VectorStore) Query(ctx context.Context, text string, k int) ([]crawler.FirmMatch, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text is required")
	}
	if k <= 0 {
		k = 5
	}
	vec, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT firm_name, COALESCE(motto, ''), COALESCE(firm_tone, ''), hiring_keywords, recent_wins,
	COALESCE(lifestyle_summary, ''), sector_focus, COALESCE(source_url, ''),
	1 - (embedding <=> $1) AS similarity
FROM %s
ORDER BY embedding <=> $1
LIMIT $2`, s.firmsTable)

	rows, err := s.pool.Query(ctx, query, vec, k)
	if err != nil {
		return nil, fmt.Errorf("query firms: %w", err)
	}
	defer rows.Close()

	var out []crawler.FirmMatch
	for rows.Next() {
		var m crawler.FirmMatch
		if err := rows.Scan(
			&m.Record.FirmName,
			&m.Record.Motto,
			&m.Record.FirmTone,
			&m.Record.HiringKeywords,
			&m.Record.RecentWins,
			&m.Record.LifestyleSummary,
			&m.Record.SectorFocus,
			&m.Record.SourceURL,
			&m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan firm: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firms: %w", err)
	}
	return out, nil
}

// InsightDocument is the text embedded for an insight row.
func InsightDocument(firmName string, insight crawler.InsightRecord) string {
	return "Firm: " + firmName +
		"\nOpenings: " + strings.Join(insight.CurrentOpenings, ", ") +
		"\nBenefits: " + strings.Join(insight.Benefits, ", ") +
		"\nCulture: " + strings.Join(insight.CultureHighlights, ", ") +
		"\nTraining: " + strings.Join(insight.TrainingProgrammes, ", ") +
		"\nTips: " + insight.ApplicationTips
}

func (s *VectorStore) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	emb, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embed document: %w", err)
	}
	if len(emb) != s.dimensions {
		return pgvector.Vector{}, fmt.Errorf("embedding has %d dimensions, want %d", len(emb), s.dimensions)
	}
	return pgvector.NewVector(emb), nil
}
