package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ersonp/lei-resolver/internal/application/handlers"
	"github.com/ersonp/lei-resolver/internal/domain/ports"
	"github.com/ersonp/lei-resolver/internal/domain/services"
	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
	"github.com/ersonp/lei-resolver/internal/infrastructure/embedder/ollama"
	"github.com/ersonp/lei-resolver/internal/infrastructure/embedder/openai"
	"github.com/ersonp/lei-resolver/internal/infrastructure/enrichment/wikidata"
	"github.com/ersonp/lei-resolver/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/lei-resolver/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config         *config.Config
	Logger         *slog.Logger
	IndexHandler   *handlers.IndexHandler
	ResolveHandler *handlers.ResolveHandler
	EnrichHandler  *handlers.EnrichHandler
}

// storeDeps holds the dependencies that need only the relational store.
type storeDeps struct {
	Config        *config.Config
	Logger        *slog.Logger
	relationalDB  *sqlite.Repository
	ImportHandler *handlers.ImportHandler
}

// storeMode says whether a command may create the relational schema.
type storeMode int

const (
	// readStore opens an existing database and never runs DDL.
	readStore storeMode = iota
	// writeStore creates missing tables before running the command.
	writeStore
)

// withStore loads config, sets up logging and opens the relational store,
// then calls fn. It handles cleanup automatically.
func withStore(ctx context.Context, mode storeMode, fn func(*storeDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := config.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	if mode == readStore && cfg.SQLite.Path != ":memory:" {
		if _, err := os.Stat(cfg.SQLite.Path); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no database at %s (run 'lei init' or 'lei import' first)", cfg.SQLite.Path)
		}
	}

	relationalDB, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer relationalDB.Close()

	if mode == writeStore {
		if err := relationalDB.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensuring sqlite schema: %w", err)
		}
	}

	return fn(&storeDeps{
		Config:        cfg,
		Logger:        logger,
		relationalDB:  relationalDB,
		ImportHandler: handlers.NewImportHandler(services.NewImportService(relationalDB, logger)),
	})
}

// withDeps builds the full dependency graph on top of withStore and calls fn.
func withDeps(ctx context.Context, mode storeMode, fn func(*Deps) error) error {
	return withStore(ctx, mode, func(s *storeDeps) error {
		cfg, logger := s.Config, s.Logger

		repo, err := qdrant.NewRepository(cfg.Qdrant)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer repo.Close()

		emb, err := newEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		synthesizer, err := newSynthesizer(cfg.Template)
		if err != nil {
			return err
		}

		source, err := wikidata.NewClient(cfg.Wikidata, wikidata.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("creating wikidata client: %w", err)
		}

		index := services.NewVectorIndexClient(repo)
		resolver := services.NewRelationalResolver(s.relationalDB, logger)
		resolution := services.NewResolutionService(resolver, synthesizer, emb, index, logger)
		indexing := services.NewIndexingService(s.relationalDB, synthesizer, emb, index,
			services.WithRateLimit(cfg.Embedder.RequestsPerSecond),
			services.WithIndexLogger(logger),
		)
		enrichment := services.NewEnrichmentService(s.relationalDB, source, logger)

		return fn(&Deps{
			Config:         cfg,
			Logger:         logger,
			IndexHandler:   handlers.NewIndexHandler(indexing, repo),
			ResolveHandler: handlers.NewResolveHandler(resolution),
			EnrichHandler:  handlers.NewEnrichHandler(enrichment, indexing),
		})
	})
}

// newEmbedder picks the embedding backend named by cfg.Provider.
func newEmbedder(cfg config.EmbedderConfig) (ports.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewEmbedder(cfg)
	case config.ProviderOllama:
		return ollama.NewEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}

// newSynthesizer applies the configured template field order, if any.
func newSynthesizer(cfg config.TemplateConfig) (*services.TemplateSynthesizer, error) {
	if len(cfg.Fields) == 0 {
		return services.NewTemplateSynthesizer(), nil
	}
	fields, err := services.TemplateFields(cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("template fields: %w", err)
	}
	return services.NewTemplateSynthesizer(services.WithFields(fields)), nil
}
