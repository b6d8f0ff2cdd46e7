// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// EntityStore is the read side of the relational store. Implementations
// return an empty result rather than an error on a miss and wrap
// infrastructure failures with entities.ErrStoreUnavailable.
type EntityStore interface {
	// FindByISIN returns every entity mapped to isin. More than one result is
	// a data-quality problem the caller surfaces as an ambiguous mapping.
	FindByISIN(ctx context.Context, isin string) ([]*entities.Entity, error)

	// FindByLEI returns the entity with the given LEI, or nil if absent.
	FindByLEI(ctx context.Context, lei string) (*entities.Entity, error)

	// FindByLEIs returns the entities found for leis, keyed by LEI.
	FindByLEIs(ctx context.Context, leis []string) (map[string]*entities.Entity, error)

	// FindByName returns entities whose normalized legal name equals name.
	FindByName(ctx context.Context, name string) ([]*entities.Entity, error)
}

// RelationalDB is the full relational store used by the loader, indexer and
// enrichment collaborators. The resolution core only needs EntityStore.
type RelationalDB interface {
	EntityStore

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// DropSchema removes all tables so the store can be recreated.
	DropSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// SaveEntity inserts or replaces an entity's metadata.
	SaveEntity(ctx context.Context, entity *entities.Entity) error

	// SaveISINMapping records that isin belongs to lei.
	SaveISINMapping(ctx context.Context, isin, lei string) error

	// ListLEIs returns LEIs in ascending order with pagination.
	ListLEIs(ctx context.Context, limit, offset int) ([]string, error)

	// CountEntities returns the number of stored entities.
	CountEntities(ctx context.Context) (int, error)

	// IsEnriched reports whether enrichment already ran for lei.
	IsEnriched(ctx context.Context, lei string) (bool, error)

	// SaveEnrichment stores enrichment output and marks lei as checked.
	SaveEnrichment(ctx context.Context, lei string, enrichment entities.Enrichment) error
}
