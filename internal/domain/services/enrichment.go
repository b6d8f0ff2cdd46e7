package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/ports"
)

// DefaultEnrichBatchSize is the number of LEIs looked up per request.
const DefaultEnrichBatchSize = 50

// Raw attribute keys written by enrichment.
const (
	AttrDescription = "description"
	AttrSectors     = "sectors"
	AttrSourceID    = "wikidata_id"
)

// EnrichmentService fills missing industry codes from an external source.
// Each LEI is looked up at most once; lookup failures leave the entity
// untouched.
type EnrichmentService struct {
	db       ports.RelationalDB
	resolver *RelationalResolver
	source   ports.EnrichmentSource
	logger   *slog.Logger
}

// NewEnrichmentService creates a new EnrichmentService.
func NewEnrichmentService(db ports.RelationalDB, source ports.EnrichmentSource, logger *slog.Logger) *EnrichmentService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "enrichment")
	return &EnrichmentService{
		db:       db,
		resolver: NewRelationalResolver(db, logger),
		source:   source,
		logger:   logger,
	}
}

// Enrich returns the entity for lei, enriched when it had no industry code
// and had not been checked before. The returned bool reports whether the
// entity changed.
func (s *EnrichmentService) Enrich(ctx context.Context, lei string) (*entities.Entity, bool, error) {
	entity, err := s.resolver.ResolveByLEI(ctx, lei)
	if err != nil {
		return nil, false, err
	}
	if entity.IndustryCode != "" {
		return entity, false, nil
	}

	checked, err := s.db.IsEnriched(ctx, entity.LEI)
	if err != nil {
		return nil, false, fmt.Errorf("checking enrichment: %w", err)
	}
	if checked {
		return entity, false, nil
	}

	found, err := s.source.LookupIndustry(ctx, entity.LEI)
	if err != nil {
		s.logger.Warn("enrichment lookup failed", "lei", entity.LEI, "error", err)
		return entity, false, nil
	}

	changed, err := s.record(ctx, entity, found)
	if err != nil {
		return nil, false, err
	}
	return entity, changed, nil
}

// record marks entity as checked and applies found when the source knew it.
func (s *EnrichmentService) record(ctx context.Context, entity *entities.Entity, found *entities.Enrichment) (bool, error) {
	enrichment := entities.Enrichment{}
	if found != nil {
		enrichment = *found
	}
	if err := s.db.SaveEnrichment(ctx, entity.LEI, enrichment); err != nil {
		return false, fmt.Errorf("saving enrichment: %w", err)
	}
	if !enrichment.Found() {
		s.logger.Debug("lei unknown to enrichment source", "lei", entity.LEI)
		return false, nil
	}

	ApplyEnrichment(entity, enrichment)
	if err := s.db.SaveEntity(ctx, entity); err != nil {
		return false, fmt.Errorf("saving enriched entity: %w", err)
	}
	s.logger.Info("enriched entity", "lei", entity.LEI, "industry", entity.IndustryCode)
	return true, nil
}

// EnrichStats summarizes an EnrichAll run.
type EnrichStats struct {
	Checked  int
	Enriched []string
}

// EnrichAll pages through every stored LEI and enriches the entities that
// still lack an industry code. Sources that implement
// ports.BatchEnrichmentSource are queried once per page. A failed page is
// logged and skipped.
func (s *EnrichmentService) EnrichAll(ctx context.Context, batchSize int) (EnrichStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultEnrichBatchSize
	}
	batcher, _ := s.source.(ports.BatchEnrichmentSource)

	var stats EnrichStats
	for offset := 0; ; offset += batchSize {
		leis, err := s.db.ListLEIs(ctx, batchSize, offset)
		if err != nil {
			return stats, fmt.Errorf("listing leis: %w", err)
		}
		if len(leis) == 0 {
			break
		}

		pending, err := s.pending(ctx, leis)
		if err != nil {
			return stats, err
		}

		if batcher != nil && len(pending) > 0 {
			found, err := batcher.LookupIndustries(ctx, entityLEIs(pending))
			if err != nil {
				s.logger.Warn("batch enrichment lookup failed", "offset", offset, "size", len(pending), "error", err)
			} else {
				for _, e := range pending {
					var hit *entities.Enrichment
					if r, ok := found[e.LEI]; ok {
						hit = &r
					}
					changed, err := s.record(ctx, e, hit)
					if err != nil {
						return stats, err
					}
					stats.Checked++
					if changed {
						stats.Enriched = append(stats.Enriched, e.LEI)
					}
				}
			}
		} else {
			for _, e := range pending {
				_, changed, err := s.Enrich(ctx, e.LEI)
				if err != nil {
					return stats, err
				}
				stats.Checked++
				if changed {
					stats.Enriched = append(stats.Enriched, e.LEI)
				}
			}
		}

		if len(leis) < batchSize {
			break
		}
	}

	s.logger.Info("enrichment run finished", "checked", stats.Checked, "enriched", len(stats.Enriched))
	return stats, nil
}

// pending returns the entities in leis that have no industry code and were
// never checked, in LEI order.
func (s *EnrichmentService) pending(ctx context.Context, leis []string) ([]*entities.Entity, error) {
	found, err := s.db.FindByLEIs(ctx, leis)
	if err != nil {
		return nil, fmt.Errorf("loading batch: %w", err)
	}
	out := make([]*entities.Entity, 0, len(leis))
	for _, lei := range leis {
		e := found[lei]
		if e == nil || e.IndustryCode != "" {
			continue
		}
		checked, err := s.db.IsEnriched(ctx, lei)
		if err != nil {
			return nil, fmt.Errorf("checking enrichment: %w", err)
		}
		if !checked {
			out = append(out, e)
		}
	}
	return out, nil
}

func entityLEIs(list []*entities.Entity) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.LEI
	}
	return out
}

// EnrichISIN enriches every entity mapped to isin. It returns the entities
// and the LEIs that changed.
func (s *EnrichmentService) EnrichISIN(ctx context.Context, isin string) ([]*entities.Entity, []string, error) {
	found, err := s.resolver.ResolveByISIN(ctx, isin)
	if err != nil {
		return nil, nil, err
	}

	out := make([]*entities.Entity, 0, len(found))
	var changedLEIs []string
	for _, e := range found {
		enriched, changed, err := s.Enrich(ctx, e.LEI)
		if err != nil {
			return nil, nil, fmt.Errorf("enriching %s: %w", e.LEI, err)
		}
		out = append(out, enriched)
		if changed {
			changedLEIs = append(changedLEIs, enriched.LEI)
		}
	}
	return out, changedLEIs, nil
}

// ApplyEnrichment copies enrichment output onto e.
func ApplyEnrichment(e *entities.Entity, enrichment entities.Enrichment) {
	if code := enrichment.IndustryCode(); code != "" && e.IndustryCode == "" {
		e.IndustryCode = code
	}
	if e.RawAttributes == nil {
		e.RawAttributes = entities.NewAttributes()
	}
	if enrichment.SourceID != "" {
		e.RawAttributes.Set(AttrSourceID, enrichment.SourceID)
	}
	if enrichment.Description != "" {
		e.RawAttributes.Set(AttrDescription, enrichment.Description)
	}
	if len(enrichment.Sectors) > 0 {
		e.RawAttributes.Set(AttrSectors, strings.Join(enrichment.Sectors, "; "))
	}
}
