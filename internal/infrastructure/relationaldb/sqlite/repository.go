// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

const entityColumns = `lei, legal_name, entity_status, industry_code, jurisdiction, raw_attributes`

// Repository implements ports.RelationalDB using SQLite.
// Driver errors are reported as entities.ErrStoreUnavailable.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Canonical entity records keyed by LEI
	CREATE TABLE IF NOT EXISTS lei_metadata (
		lei TEXT PRIMARY KEY,
		legal_name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		entity_status TEXT NOT NULL,
		industry_code TEXT NOT NULL DEFAULT '',
		jurisdiction TEXT NOT NULL DEFAULT '',
		raw_attributes TEXT NOT NULL DEFAULT '{}',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_lei_metadata_name_key ON lei_metadata(name_key);

	-- ISIN to LEI mappings (many-to-many; usually one LEI per ISIN)
	CREATE TABLE IF NOT EXISTS isin_lei_map (
		isin TEXT NOT NULL,
		lei TEXT NOT NULL,
		PRIMARY KEY (isin, lei)
	);
	CREATE INDEX IF NOT EXISTS idx_isin_lei_map_lei ON isin_lei_map(lei);

	-- Enrichment lookups, one row per LEI checked
	CREATE TABLE IF NOT EXISTS enrichments (
		lei TEXT PRIMARY KEY,
		source_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		sectors TEXT NOT NULL DEFAULT '[]',
		checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return entities.StoreUnavailable("creating schema", err)
	}
	return nil
}

// DropSchema removes every table created by EnsureSchema.
func (r *Repository) DropSchema(ctx context.Context) error {
	schema := `
	DROP TABLE IF EXISTS enrichments;
	DROP TABLE IF EXISTS isin_lei_map;
	DROP TABLE IF EXISTS lei_metadata;
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return entities.StoreUnavailable("dropping schema", err)
	}
	return nil
}

// SaveEntity inserts or replaces an entity and records its ISIN mappings.
func (r *Repository) SaveEntity(ctx context.Context, entity *entities.Entity) error {
	attrs, err := json.Marshal(entity.RawAttributes)
	if err != nil {
		return fmt.Errorf("encoding raw attributes: %w", err)
	}
	if entity.RawAttributes == nil {
		attrs = []byte("{}")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.StoreUnavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `
		INSERT INTO lei_metadata (lei, legal_name, name_key, entity_status, industry_code, jurisdiction, raw_attributes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(lei) DO UPDATE SET
			legal_name = excluded.legal_name,
			name_key = excluded.name_key,
			entity_status = excluded.entity_status,
			industry_code = excluded.industry_code,
			jurisdiction = excluded.jurisdiction,
			raw_attributes = excluded.raw_attributes,
			updated_at = excluded.updated_at
	`
	_, err = tx.ExecContext(ctx, query,
		entity.LEI,
		entity.LegalName,
		entities.NameKey(entity.LegalName),
		string(entity.Status),
		entity.IndustryCode,
		entity.Jurisdiction,
		string(attrs),
		timeNow(),
	)
	if err != nil {
		return entities.StoreUnavailable("saving entity", err)
	}

	for _, isin := range entity.ISINs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO isin_lei_map (isin, lei) VALUES (?, ?)`, isin, entity.LEI); err != nil {
			return entities.StoreUnavailable("saving isin mapping", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return entities.StoreUnavailable("committing entity", err)
	}
	return nil
}

// SaveISINMapping records that isin refers to lei. Repeated mappings are
// ignored.
func (r *Repository) SaveISINMapping(ctx context.Context, isin, lei string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO isin_lei_map (isin, lei) VALUES (?, ?)`, isin, lei)
	if err != nil {
		return entities.StoreUnavailable("saving isin mapping", err)
	}
	return nil
}

// FindByISIN returns the stored entities mapped to isin, ordered by LEI.
// Mappings to LEIs without a stored entity are skipped.
func (r *Repository) FindByISIN(ctx context.Context, isin string) ([]*entities.Entity, error) {
	query := `
		SELECT m.lei, m.legal_name, m.entity_status, m.industry_code, m.jurisdiction, m.raw_attributes
		FROM isin_lei_map i
		JOIN lei_metadata m ON m.lei = i.lei
		WHERE i.isin = ?
		ORDER BY m.lei ASC
	`
	return r.queryEntities(ctx, query, isin)
}

// FindByLEI returns the entity for lei, or nil when it is not stored.
func (r *Repository) FindByLEI(ctx context.Context, lei string) (*entities.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM lei_metadata WHERE lei = ?`
	found, err := r.queryEntities(ctx, query, lei)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// FindByLEIs finds multiple entities in a single query. Missing LEIs are
// absent from the result.
func (r *Repository) FindByLEIs(ctx context.Context, leis []string) (map[string]*entities.Entity, error) {
	result := make(map[string]*entities.Entity, len(leis))
	if len(leis) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`SELECT `+entityColumns+` FROM lei_metadata WHERE lei IN (%s)`, placeholders(len(leis)))
	found, err := r.queryEntities(ctx, query, toArgs(leis)...)
	if err != nil {
		return nil, err
	}
	for _, e := range found {
		result[e.LEI] = e
	}
	return result, nil
}

// FindByName returns entities whose legal name equals name after case and
// whitespace folding.
func (r *Repository) FindByName(ctx context.Context, name string) ([]*entities.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM lei_metadata WHERE name_key = ? ORDER BY lei ASC`
	return r.queryEntities(ctx, query, entities.NameKey(name))
}

// ListLEIs returns stored LEIs in ascending order with pagination.
func (r *Repository) ListLEIs(ctx context.Context, limit, offset int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT lei FROM lei_metadata ORDER BY lei ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, entities.StoreUnavailable("listing leis", err)
	}
	defer rows.Close()

	result := make([]string, 0, limit)
	for rows.Next() {
		var lei string
		if err := rows.Scan(&lei); err != nil {
			return nil, entities.StoreUnavailable("scanning lei", err)
		}
		result = append(result, lei)
	}
	if err := rows.Err(); err != nil {
		return nil, entities.StoreUnavailable("listing leis", err)
	}
	return result, nil
}

// CountEntities returns the total number of stored entities.
func (r *Repository) CountEntities(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lei_metadata`).Scan(&count); err != nil {
		return 0, entities.StoreUnavailable("counting entities", err)
	}
	return count, nil
}

// IsEnriched reports whether an enrichment lookup was recorded for lei.
func (r *Repository) IsEnriched(ctx context.Context, lei string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM enrichments WHERE lei = ?`, lei).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, entities.StoreUnavailable("checking enrichment", err)
	}
	return true, nil
}

// SaveEnrichment records a lookup result for lei and fills an empty
// industry code from it.
func (r *Repository) SaveEnrichment(ctx context.Context, lei string, enrichment entities.Enrichment) error {
	sectors, err := json.Marshal(enrichment.Sectors)
	if err != nil {
		return fmt.Errorf("encoding sectors: %w", err)
	}
	if enrichment.Sectors == nil {
		sectors = []byte("[]")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.StoreUnavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `
		INSERT INTO enrichments (lei, source_id, description, sectors, checked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(lei) DO UPDATE SET
			source_id = excluded.source_id,
			description = excluded.description,
			sectors = excluded.sectors,
			checked_at = excluded.checked_at
	`
	if _, err := tx.ExecContext(ctx, query, lei, enrichment.SourceID, enrichment.Description, string(sectors), timeNow()); err != nil {
		return entities.StoreUnavailable("saving enrichment", err)
	}

	if code := enrichment.IndustryCode(); code != "" {
		_, err := tx.ExecContext(ctx,
			`UPDATE lei_metadata SET industry_code = ?, updated_at = ? WHERE lei = ? AND industry_code = ''`,
			code, timeNow(), lei)
		if err != nil {
			return entities.StoreUnavailable("filling industry code", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return entities.StoreUnavailable("committing enrichment", err)
	}
	return nil
}

// FindEnrichment returns the recorded lookup for lei, or nil when none was
// recorded.
func (r *Repository) FindEnrichment(ctx context.Context, lei string) (*entities.Enrichment, error) {
	var (
		e       entities.Enrichment
		sectors string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT source_id, description, sectors FROM enrichments WHERE lei = ?`, lei,
	).Scan(&e.SourceID, &e.Description, &sectors)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, entities.StoreUnavailable("finding enrichment", err)
	}
	if err := json.Unmarshal([]byte(sectors), &e.Sectors); err != nil {
		return nil, fmt.Errorf("decoding sectors for %s: %w", lei, err)
	}
	return &e, nil
}

// queryEntities runs an entity query and attaches each entity's ISINs.
func (r *Repository) queryEntities(ctx context.Context, query string, args ...any) ([]*entities.Entity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, entities.StoreUnavailable("querying entities", err)
	}
	defer rows.Close()

	var result []*entities.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, entities.StoreUnavailable("querying entities", err)
	}
	rows.Close()

	if err := r.attachISINs(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) attachISINs(ctx context.Context, list []*entities.Entity) error {
	if len(list) == 0 {
		return nil
	}

	byLEI := make(map[string]*entities.Entity, len(list))
	leis := make([]string, len(list))
	for i, e := range list {
		byLEI[e.LEI] = e
		leis[i] = e.LEI
	}

	query := fmt.Sprintf(`SELECT lei, isin FROM isin_lei_map WHERE lei IN (%s) ORDER BY isin ASC`, placeholders(len(leis)))
	rows, err := r.db.QueryContext(ctx, query, toArgs(leis)...)
	if err != nil {
		return entities.StoreUnavailable("querying isins", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lei, isin string
		if err := rows.Scan(&lei, &isin); err != nil {
			return entities.StoreUnavailable("scanning isin", err)
		}
		if e, ok := byLEI[lei]; ok {
			e.ISINs = append(e.ISINs, isin)
		}
	}
	if err := rows.Err(); err != nil {
		return entities.StoreUnavailable("querying isins", err)
	}
	return nil
}

func scanEntity(rows *sql.Rows) (*entities.Entity, error) {
	var (
		entity entities.Entity
		status string
		attrs  string
	)
	if err := rows.Scan(
		&entity.LEI,
		&entity.LegalName,
		&status,
		&entity.IndustryCode,
		&entity.Jurisdiction,
		&attrs,
	); err != nil {
		return nil, entities.StoreUnavailable("scanning entity", err)
	}

	entity.Status = entities.ParseEntityStatus(status)
	entity.RawAttributes = entities.NewAttributes()
	if attrs != "" {
		if err := json.Unmarshal([]byte(attrs), entity.RawAttributes); err != nil {
			return nil, fmt.Errorf("decoding raw attributes for %s: %w", entity.LEI, err)
		}
	}
	return &entity, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
