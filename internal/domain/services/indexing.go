package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/ports"
)

// Indexing defaults.
const (
	DefaultIndexBatchSize   = 64
	DefaultIndexConcurrency = 4
)

// IndexingService (re-)embeds relational entities into the vector index.
// Upserts are idempotent, so re-running an index is the recovery path after
// a partial failure.
type IndexingService struct {
	db          ports.RelationalDB
	resolver    *RelationalResolver
	synthesizer *TemplateSynthesizer
	embedder    ports.Embedder
	index       *VectorIndexClient
	limiter     *rate.Limiter
	concurrency int
	logger      *slog.Logger
}

// IndexingOption configures an IndexingService.
type IndexingOption func(*IndexingService)

// WithRateLimit caps embedding requests per second. Zero disables the cap.
func WithRateLimit(perSecond float64) IndexingOption {
	return func(s *IndexingService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithConcurrency sets how many batches IndexAll embeds in parallel.
func WithConcurrency(n int) IndexingOption {
	return func(s *IndexingService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithIndexLogger sets the logger.
func WithIndexLogger(logger *slog.Logger) IndexingOption {
	return func(s *IndexingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(
	db ports.RelationalDB,
	synthesizer *TemplateSynthesizer,
	embedder ports.Embedder,
	index *VectorIndexClient,
	opts ...IndexingOption,
) *IndexingService {
	s := &IndexingService{
		db:          db,
		synthesizer: synthesizer,
		embedder:    embedder,
		index:       index,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		concurrency: DefaultIndexConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "indexing")
	s.resolver = NewRelationalResolver(db, s.logger)
	return s
}

// IndexStats summarizes an IndexAll run.
type IndexStats struct {
	Indexed int
	Batches int
}

// IndexLEI re-embeds one entity from its stored record.
func (s *IndexingService) IndexLEI(ctx context.Context, lei string) (*entities.EmbeddingDocument, error) {
	entity, err := s.resolver.ResolveByLEI(ctx, lei)
	if err != nil {
		return nil, err
	}

	docs, err := s.indexEntities(ctx, []*entities.Entity{entity})
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// IndexISIN re-embeds every entity mapped to isin.
func (s *IndexingService) IndexISIN(ctx context.Context, isin string) ([]entities.EmbeddingDocument, error) {
	found, err := s.resolver.ResolveByISIN(ctx, isin)
	if err != nil {
		return nil, err
	}
	return s.indexEntities(ctx, found)
}

// IndexAll pages through every stored LEI and re-embeds it. Batches are
// embedded concurrently; the first error cancels the remaining work.
func (s *IndexingService) IndexAll(ctx context.Context, batchSize int) (IndexStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultIndexBatchSize
	}

	var indexed, batches atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for offset := 0; ; offset += batchSize {
		if gctx.Err() != nil {
			break
		}

		leis, err := s.db.ListLEIs(gctx, batchSize, offset)
		if err != nil {
			g.Go(func() error { return fmt.Errorf("listing leis: %w", err) })
			break
		}
		if len(leis) == 0 {
			break
		}

		g.Go(func() error {
			found, err := s.db.FindByLEIs(gctx, leis)
			if err != nil {
				return fmt.Errorf("loading batch: %w", err)
			}
			batch := make([]*entities.Entity, 0, len(leis))
			for _, lei := range leis {
				if e := found[lei]; e != nil {
					batch = append(batch, e)
				}
			}
			docs, err := s.indexEntities(gctx, batch)
			if err != nil {
				return err
			}
			indexed.Add(int64(len(docs)))
			n := batches.Add(1)
			s.logger.Debug("indexed batch", "batch", n, "size", len(docs))
			return nil
		})

		if len(leis) < batchSize {
			break
		}
	}

	err := g.Wait()
	stats := IndexStats{Indexed: int(indexed.Load()), Batches: int(batches.Load())}
	if err != nil {
		return stats, fmt.Errorf("indexing all entities: %w", err)
	}

	s.logger.Info("indexed entities", "count", stats.Indexed, "batches", stats.Batches)
	return stats, nil
}

// indexEntities renders, embeds and upserts a batch.
func (s *IndexingService) indexEntities(ctx context.Context, batch []*entities.Entity) ([]entities.EmbeddingDocument, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	texts := make([]string, len(batch))
	for i, e := range batch {
		texts[i] = s.synthesizer.Render(e)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for embedder: %w", err)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}
	if len(vectors) != len(batch) {
		return nil, errors.New("embedder returned a different number of vectors than texts")
	}

	docs := make([]entities.EmbeddingDocument, len(batch))
	for i, e := range batch {
		docs[i] = entities.EmbeddingDocument{LEI: e.LEI, Text: texts[i], Vector: vectors[i]}
	}

	if err := s.index.UpsertBatch(ctx, docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		s.logger.Debug("indexed entity", "lei", d.LEI)
	}
	return docs, nil
}
