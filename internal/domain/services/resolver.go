package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/ports"
)

// RelationalResolver performs exact lookups against the relational store.
// It never retries. Store errors are returned as the store classified them.
type RelationalResolver struct {
	store  ports.EntityStore
	logger *slog.Logger
}

// NewRelationalResolver creates a resolver over store.
func NewRelationalResolver(store ports.EntityStore, logger *slog.Logger) *RelationalResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationalResolver{
		store:  store,
		logger: logger.With("component", "relational-resolver"),
	}
}

// ResolveByISIN returns the entities mapped to isin, ordered by LEI.
// It returns entities.ErrNotFound when nothing matches.
func (r *RelationalResolver) ResolveByISIN(ctx context.Context, isin string) ([]*entities.Entity, error) {
	isin = entities.NormalizeIdentifier(isin)
	if err := entities.ValidateISIN(isin); err != nil {
		return nil, err
	}

	found, err := r.store.FindByISIN(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("finding entity by isin: %w", err)
	}
	if len(found) == 0 {
		r.logger.Debug("isin not mapped", "isin", isin)
		return nil, fmt.Errorf("isin %s: %w", isin, entities.ErrNotFound)
	}

	sortByLEI(found)
	if len(found) > 1 {
		r.logger.Warn("ambiguous isin mapping", "isin", isin, "count", len(found))
	}
	return found, nil
}

// ResolveByLEI returns the entity for lei or entities.ErrNotFound.
func (r *RelationalResolver) ResolveByLEI(ctx context.Context, lei string) (*entities.Entity, error) {
	lei = entities.NormalizeIdentifier(lei)
	if err := entities.ValidateLEI(lei); err != nil {
		return nil, err
	}

	entity, err := r.store.FindByLEI(ctx, lei)
	if err != nil {
		return nil, fmt.Errorf("finding entity by lei: %w", err)
	}
	if entity == nil {
		r.logger.Debug("lei not found", "lei", lei)
		return nil, fmt.Errorf("lei %s: %w", lei, entities.ErrNotFound)
	}
	return entity, nil
}

// ResolveByName returns entities whose legal name matches name exactly after
// normalization, ordered by LEI.
func (r *RelationalResolver) ResolveByName(ctx context.Context, name string) ([]*entities.Entity, error) {
	name = entities.NormalizeName(name)
	if name == "" {
		return nil, entities.NewValidationError("name", "must not be empty")
	}

	found, err := r.store.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("finding entity by name: %w", err)
	}
	if len(found) == 0 {
		r.logger.Debug("name not found", "name", name)
		return nil, fmt.Errorf("name %q: %w", name, entities.ErrNotFound)
	}

	sortByLEI(found)
	return found, nil
}

// LegalNames returns the legal names for leis. LEIs missing from the store
// are absent from the result.
func (r *RelationalResolver) LegalNames(ctx context.Context, leis []string) (map[string]string, error) {
	if len(leis) == 0 {
		return map[string]string{}, nil
	}

	found, err := r.store.FindByLEIs(ctx, leis)
	if err != nil {
		return nil, fmt.Errorf("finding entities by lei: %w", err)
	}

	names := make(map[string]string, len(found))
	for lei, e := range found {
		if e != nil {
			names[lei] = e.LegalName
		}
	}
	return names, nil
}

func sortByLEI(list []*entities.Entity) {
	slices.SortFunc(list, func(a, b *entities.Entity) int {
		return strings.Compare(a.LEI, b.LEI)
	})
}
