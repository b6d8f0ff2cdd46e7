package ports

import (
	"context"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// EnrichmentSource looks up industry information for an LEI in an external
// knowledge base. A nil result with a nil error means the LEI is unknown there.
type EnrichmentSource interface {
	LookupIndustry(ctx context.Context, lei string) (*entities.Enrichment, error)
}

// BatchEnrichmentSource resolves several LEIs per request. LEIs unknown to the
// source are absent from the result.
type BatchEnrichmentSource interface {
	EnrichmentSource
	LookupIndustries(ctx context.Context, leis []string) (map[string]entities.Enrichment, error)
}
