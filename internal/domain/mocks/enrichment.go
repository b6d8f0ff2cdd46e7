package mocks

import (
	"context"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// EnrichmentSource is a mock implementation of ports.EnrichmentSource.
type EnrichmentSource struct {
	Results map[string]entities.Enrichment
	Err     error

	LookupCallCount int
}

// LookupIndustry returns the configured enrichment for lei.
func (m *EnrichmentSource) LookupIndustry(ctx context.Context, lei string) (*entities.Enrichment, error) {
	m.LookupCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.Results[lei]; ok {
		return &r, nil
	}
	return nil, nil
}

// BatchEnrichmentSource adds LookupIndustries to EnrichmentSource.
type BatchEnrichmentSource struct {
	EnrichmentSource

	BatchCallCount int
	LastBatch      []string
}

// LookupIndustries returns the configured enrichments found for leis.
func (m *BatchEnrichmentSource) LookupIndustries(ctx context.Context, leis []string) (map[string]entities.Enrichment, error) {
	m.BatchCallCount++
	m.LastBatch = append([]string(nil), leis...)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]entities.Enrichment)
	for _, lei := range leis {
		if r, ok := m.Results[lei]; ok {
			out[lei] = r
		}
	}
	return out, nil
}
