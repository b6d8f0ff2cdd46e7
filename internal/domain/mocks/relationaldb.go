package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// Entities are copied on the way in and out so callers cannot alias stored
// state.
type RelationalDB struct {
	Err error

	mu         sync.Mutex
	entities   map[string]*entities.Entity
	isinToLEIs map[string][]string
	enriched   map[string]entities.Enrichment

	// Call tracking
	FindByISINCallCount int
	FindByLEICallCount  int
	FindByLEIsCallCount int
	FindByNameCallCount int
}

// NewRelationalDB creates a store seeded with list.
func NewRelationalDB(list ...*entities.Entity) *RelationalDB {
	m := &RelationalDB{
		entities:   make(map[string]*entities.Entity),
		isinToLEIs: make(map[string][]string),
		enriched:   make(map[string]entities.Enrichment),
	}
	for _, e := range list {
		_ = m.SaveEntity(context.Background(), e)
	}
	return m
}

// EnsureSchema is a no-op.
func (m *RelationalDB) EnsureSchema(ctx context.Context) error { return m.Err }

// DropSchema clears all data.
func (m *RelationalDB) DropSchema(ctx context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = make(map[string]*entities.Entity)
	m.isinToLEIs = make(map[string][]string)
	m.enriched = make(map[string]entities.Enrichment)
	return nil
}

// Close is a no-op.
func (m *RelationalDB) Close() error { return nil }

// SaveEntity stores a copy of entity and registers its ISINs.
func (m *RelationalDB) SaveEntity(ctx context.Context, entity *entities.Entity) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entity.LEI] = cloneEntity(entity)
	for _, isin := range entity.ISINs {
		if !slices.Contains(m.isinToLEIs[isin], entity.LEI) {
			m.isinToLEIs[isin] = append(m.isinToLEIs[isin], entity.LEI)
		}
	}
	return nil
}

// SaveISINMapping records isin → lei.
func (m *RelationalDB) SaveISINMapping(ctx context.Context, isin, lei string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.isinToLEIs[isin], lei) {
		m.isinToLEIs[isin] = append(m.isinToLEIs[isin], lei)
	}
	return nil
}

// FindByISIN returns all entities mapped to isin.
func (m *RelationalDB) FindByISIN(ctx context.Context, isin string) ([]*entities.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByISINCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Entity
	for _, lei := range m.isinToLEIs[isin] {
		if e, ok := m.entities[lei]; ok {
			out = append(out, m.withISINs(e))
		}
	}
	return out, nil
}

// FindByLEI returns the entity for lei or nil.
func (m *RelationalDB) FindByLEI(ctx context.Context, lei string) (*entities.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByLEICallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.entities[lei]
	if !ok {
		return nil, nil
	}
	return m.withISINs(e), nil
}

// FindByLEIs returns the entities found for leis.
func (m *RelationalDB) FindByLEIs(ctx context.Context, leis []string) (map[string]*entities.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByLEIsCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]*entities.Entity, len(leis))
	for _, lei := range leis {
		if e, ok := m.entities[lei]; ok {
			out[lei] = m.withISINs(e)
		}
	}
	return out, nil
}

// FindByName returns entities whose folded legal name equals name's.
func (m *RelationalDB) FindByName(ctx context.Context, name string) ([]*entities.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByNameCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	key := entities.NameKey(name)
	var out []*entities.Entity
	for _, e := range m.entities {
		if entities.NameKey(e.LegalName) == key {
			out = append(out, m.withISINs(e))
		}
	}
	return out, nil
}

// ListLEIs returns LEIs in ascending order.
func (m *RelationalDB) ListLEIs(ctx context.Context, limit, offset int) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	leis := make([]string, 0, len(m.entities))
	for lei := range m.entities {
		leis = append(leis, lei)
	}
	slices.Sort(leis)
	if offset >= len(leis) {
		return []string{}, nil
	}
	end := min(offset+limit, len(leis))
	return leis[offset:end], nil
}

// CountEntities returns the number of stored entities.
func (m *RelationalDB) CountEntities(ctx context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entities), nil
}

// IsEnriched reports whether SaveEnrichment ran for lei.
func (m *RelationalDB) IsEnriched(ctx context.Context, lei string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.enriched[lei]
	return ok, nil
}

// SaveEnrichment stores enrichment and fills an empty industry code.
func (m *RelationalDB) SaveEnrichment(ctx context.Context, lei string, enrichment entities.Enrichment) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enriched[lei] = enrichment
	if e, ok := m.entities[lei]; ok && e.IndustryCode == "" {
		e.IndustryCode = enrichment.IndustryCode()
	}
	return nil
}

// withISINs returns a copy of e with its mapped ISINs filled in.
func (m *RelationalDB) withISINs(e *entities.Entity) *entities.Entity {
	out := cloneEntity(e)
	out.ISINs = nil
	for isin, leis := range m.isinToLEIs {
		if slices.Contains(leis, e.LEI) {
			out.ISINs = append(out.ISINs, isin)
		}
	}
	slices.Sort(out.ISINs)
	return out
}

func cloneEntity(e *entities.Entity) *entities.Entity {
	out := *e
	out.ISINs = slices.Clone(e.ISINs)
	attrs := entities.NewAttributes()
	for _, k := range e.RawAttributes.Keys() {
		v, _ := e.RawAttributes.Get(k)
		attrs.Set(k, v)
	}
	out.RawAttributes = attrs
	return &out
}
