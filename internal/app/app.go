// Package app builds the long-lived services a command needs from Config and
// owns their shutdown.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/aggregator"
	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
	"github.com/JakeFAU/firm-intel-crawler/internal/clock"
	"github.com/JakeFAU/firm-intel-crawler/internal/config"
	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
	"github.com/JakeFAU/firm-intel-crawler/internal/discovery"
	"github.com/JakeFAU/firm-intel-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/firm-intel-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/firm-intel-crawler/internal/fetcher/headless"
	"github.com/JakeFAU/firm-intel-crawler/internal/listings"
	"github.com/JakeFAU/firm-intel-crawler/internal/orchestrator"
	"github.com/JakeFAU/firm-intel-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/firm-intel-crawler/internal/policy/robots"
	"github.com/JakeFAU/firm-intel-crawler/internal/storage/memory"
	"github.com/JakeFAU/firm-intel-crawler/internal/storage/postgres"
	"github.com/JakeFAU/firm-intel-crawler/internal/targets"
)

// App holds the services shared by the CLI commands. Services are built on
// first use so that commands only pay for what they touch.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	http    *collyfetcher.Fetcher
	limiter *ratelimit.Limiter
	vectors *postgres.VectorStore
	closers []func()
}

// New creates an App. No network connections are made here.
func New(cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		http: collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.HomeTimeout(),
		}),
		limiter: ratelimit.New(ratelimit.Config{RPS: cfg.Fetch.RatePerSecond, Burst: cfg.Fetch.Burst}),
	}
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Close releases everything opened through the App, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.logger.Sync()
}

// Checkpoint opens the configured checkpoint store.
func (a *App) Checkpoint(ctx context.Context) (checkpoint.Store, error) {
	cfg := a.cfg.Checkpoint
	switch cfg.Backend {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("close gcs client", zap.Error(err))
			}
		})
		bucket, err := checkpoint.NewGCSBucket(client, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		a.logger.Info("using gcs checkpoint", zap.String("bucket", cfg.GCSBucket), zap.String("object", cfg.GCSObject))
		return checkpoint.NewGCSStore(bucket, cfg.GCSObject, a.logger)
	default:
		a.logger.Info("using file checkpoint", zap.String("path", cfg.Path))
		return checkpoint.NewFileStore(cfg.Path, a.logger)
	}
}

// Records opens the configured firm record store.
func (a *App) Records(ctx context.Context) (crawler.RecordStore, error) {
	if a.cfg.Storage.Backend == "memory" {
		a.logger.Info("using in-memory record store; records are discarded on exit")
		return memory.NewRecordStore(), nil
	}
	return a.VectorStore(ctx)
}

// VectorStore connects to Postgres and ensures the schema exists.
func (a *App) VectorStore(ctx context.Context) (*postgres.VectorStore, error) {
	if a.vectors != nil {
		return a.vectors, nil
	}
	if a.cfg.Storage.Backend != "postgres" {
		return nil, fmt.Errorf("storage.backend is %q; the vector store needs postgres", a.cfg.Storage.Backend)
	}
	embedder, err := extract.NewEmbedder(a.llmConfig())
	if err != nil {
		return nil, err
	}
	pg := a.cfg.Storage.Postgres
	store, err := postgres.New(ctx, postgres.Config{
		DSN:           pg.DSN,
		FirmsTable:    pg.FirmsTable,
		InsightsTable: pg.InsightsTable,
		Dimensions:    pg.Dimensions,
		MaxConns:      pg.MaxConns,
	}, embedder)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	a.vectors = store
	return store, nil
}

// Opener returns the session opener for the configured fetch mode.
func (a *App) Opener() (crawler.SessionOpener, error) {
	if a.cfg.Fetch.Mode == "http" {
		return a.http, nil
	}
	browser, err := headless.New(headless.Config{
		UserAgent:         a.cfg.Fetch.UserAgent,
		ExecPath:          a.cfg.Headless.ExecPath,
		NoSandbox:         a.cfg.Headless.NoSandbox,
		NavigationTimeout: a.cfg.Fetch.HomeTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("start headless browser: %w", err)
	}
	a.closers = append(a.closers, browser.Close)
	return browser, nil
}

// Aggregator wires discovery, robots and rate limiting around opener.
func (a *App) Aggregator(opener crawler.SessionOpener) *aggregator.Aggregator {
	fetch := a.cfg.Fetch
	disc := discovery.New(discovery.Config{SitemapTimeout: fetch.SitemapTimeout()}, a.http, a.logger)
	return aggregator.New(aggregator.Config{
		HomeTimeout:    fetch.HomeTimeout(),
		SectionTimeout: fetch.SectionTimeout(),
		SectionCap:     a.cfg.Run.SectionCap,
		ExtraPaths:     a.cfg.Run.ExtraPaths,
	}, opener, disc, a.logger,
		aggregator.WithRobots(robots.New(fetch.RespectRobots, fetch.UserAgent, a.logger)),
		aggregator.WithRateLimiter(a.limiter),
	)
}

// Extractor builds the LLM extractor.
func (a *App) Extractor() (*extract.Extractor, error) {
	model, err := extract.NewModel(a.llmConfig())
	if err != nil {
		return nil, err
	}
	return extract.New(model, a.cfg.LLM.MaxInputChars, a.logger), nil
}

// Orchestrator assembles a run. observer may be nil.
func (a *App) Orchestrator(ctx context.Context, observer orchestrator.Observer) (*orchestrator.Orchestrator, error) {
	store, err := a.Checkpoint(ctx)
	if err != nil {
		return nil, err
	}
	records, err := a.Records(ctx)
	if err != nil {
		return nil, err
	}
	opener, err := a.Opener()
	if err != nil {
		return nil, err
	}
	extractor, err := a.Extractor()
	if err != nil {
		return nil, err
	}
	observers := orchestrator.Observers{orchestrator.MetricsObserver{}}
	if observer != nil {
		observers = append(observers, observer)
	}
	targetsFile := a.cfg.Run.TargetsFile
	return orchestrator.New(orchestrator.Config{
		Budget:     a.cfg.Run.Budget(),
		MaxTargets: a.cfg.Run.MaxTargets,
	}, orchestrator.Deps{
		Store:      store,
		Builder:    a.Aggregator(opener),
		Extractor:  extractor,
		Insights:   extractor,
		Records:    records,
		Clock:      clock.NewSystem(),
		Observer:   observers,
		Logger:     a.logger,
		TargetList: func() []string { return targets.Load(targetsFile, a.logger) },
	})
}

// Searchers builds one job board searcher per default board. Board pages are
// plain HTML, so they always go through the HTTP fetcher.
func (a *App) Searchers() []listings.Searcher {
	lc := a.cfg.Listings
	return listings.NewSearchers(listings.DefaultBoards(), listings.Config{
		Location:    lc.Location,
		MaxPages:    lc.MaxPages,
		PageTimeout: lc.Timeout(),
	}, a.http, a.limiter, a.logger)
}

func (a *App) llmConfig() extract.Config {
	llm := a.cfg.LLM
	return extract.Config{
		Provider:       llm.Provider,
		Model:          llm.Model,
		EmbeddingModel: llm.EmbeddingModel,
		BaseURL:        llm.BaseURL,
		APIKey:         llm.APIKey,
		MaxInputChars:  llm.MaxInputChars,
	}
}
