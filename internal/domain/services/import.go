package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/ports"
	"github.com/ersonp/lei-resolver/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool // Validate without saving
	// ActiveOnly keeps only ACTIVE entities with an ISSUED registration.
	ActiveOnly bool
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// EntitySource yields parsed entity records to fn in file order.
type EntitySource func(fn func(parsers.RawEntity) error) error

// ISINSource yields parsed ISIN mappings to fn in file order.
type ISINSource func(fn func(parsers.RawISINMapping) error) error

// ImportService loads entities and ISIN mappings into the relational store.
// Invalid rows are reported and skipped; store failures abort the import.
type ImportService struct {
	db     ports.RelationalDB
	logger *slog.Logger
}

// NewImportService creates a new import service.
func NewImportService(db ports.RelationalDB, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		db:     db,
		logger: logger.With("component", "import"),
	}
}

// ImportEntities validates and upserts every record from source.
func (s *ImportService) ImportEntities(ctx context.Context, source EntitySource, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	err := source(func(raw parsers.RawEntity) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.ActiveOnly && !raw.Active() {
			result.Skipped++
			return nil
		}

		entity, err := entities.NewEntity(raw.Params())
		if err != nil {
			result.Errors = append(result.Errors, importError(raw.LineNum, raw.LEI, err))
			return nil
		}
		if entity.LegalName == "" {
			result.Errors = append(result.Errors, ImportError{
				Line: raw.LineNum, Field: "legal_name", Value: raw.LEI, Message: "legal name is required",
			})
			return nil
		}
		for _, isin := range entity.ISINs {
			if err := entities.ValidateISIN(isin); err != nil {
				result.Errors = append(result.Errors, importError(raw.LineNum, isin, err))
				return nil
			}
		}

		if !opts.DryRun {
			if err := s.db.SaveEntity(ctx, entity); err != nil {
				return fmt.Errorf("line %d: %w", raw.LineNum, err)
			}
		}
		result.Imported++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("importing entities: %w", err)
	}

	s.logger.Info("imported entities",
		"imported", result.Imported, "skipped", result.Skipped, "errors", len(result.Errors), "dry_run", opts.DryRun)
	return result, nil
}

// ImportISINs validates and records every mapping from source. Mappings may
// reference LEIs that are imported later.
func (s *ImportService) ImportISINs(ctx context.Context, source ISINSource, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	err := source(func(m parsers.RawISINMapping) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		isin := entities.NormalizeIdentifier(m.ISIN)
		if err := entities.ValidateISIN(isin); err != nil {
			result.Errors = append(result.Errors, importError(m.LineNum, m.ISIN, err))
			return nil
		}
		lei := entities.NormalizeIdentifier(m.LEI)
		if err := entities.ValidateLEI(lei); err != nil {
			result.Errors = append(result.Errors, importError(m.LineNum, m.LEI, err))
			return nil
		}

		if !opts.DryRun {
			if err := s.db.SaveISINMapping(ctx, isin, lei); err != nil {
				return fmt.Errorf("line %d: %w", m.LineNum, err)
			}
		}
		result.Imported++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("importing isin mappings: %w", err)
	}

	s.logger.Info("imported isin mappings",
		"imported", result.Imported, "errors", len(result.Errors), "dry_run", opts.DryRun)
	return result, nil
}

func importError(line int, value string, err error) ImportError {
	ie := ImportError{Line: line, Value: value, Message: err.Error()}
	if ve, ok := err.(*entities.ValidationError); ok {
		ie.Field = ve.Field
	}
	return ie
}
