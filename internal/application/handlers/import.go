package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/lei-resolver/internal/domain/services"
	"github.com/ersonp/lei-resolver/internal/infrastructure/parsers"
)

// Import kinds.
const (
	ImportEntities = "entities"
	ImportISINs    = "isins"
)

// ImportHandler handles importing entities and ISIN mappings from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Kind       string // "entities" or "isins"
	Format     string // "json", "csv", or "auto"; ISIN maps are always CSV
	DryRun     bool   // Validate without saving
	ActiveOnly bool
}

// Handle imports records from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	serviceOpts := services.ImportOptions{
		DryRun:     opts.DryRun,
		ActiveOnly: opts.ActiveOnly,
	}

	switch opts.Kind {
	case "", ImportEntities:
		var parser parsers.Parser
		if opts.Format == "" || opts.Format == "auto" {
			parser = parsers.ForFile(filePath)
		} else {
			parser = parsers.ForFormat(opts.Format)
		}
		if parser == nil {
			return nil, fmt.Errorf("unsupported format for file: %s", filePath)
		}

		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer file.Close()

		return h.service.ImportEntities(ctx, func(fn func(parsers.RawEntity) error) error {
			return parser.Stream(file, fn)
		}, serviceOpts)

	case ImportISINs:
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer file.Close()

		parser := &parsers.ISINMapParser{}
		return h.service.ImportISINs(ctx, func(fn func(parsers.RawISINMapping) error) error {
			return parser.Stream(file, fn)
		}, serviceOpts)

	default:
		return nil, fmt.Errorf("unknown import kind %q (valid: %s, %s)", opts.Kind, ImportEntities, ImportISINs)
	}
}
