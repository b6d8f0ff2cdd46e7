// Package parsers provides parsers for importing entity records and ISIN
// mappings from GLEIF-style CSV and JSON files.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// Attribute keys filled from GLEIF columns.
const (
	AttrCity               = "city"
	AttrCountry            = "country"
	AttrCategory           = "category"
	AttrRegistrationStatus = "registration_status"
)

// RegistrationIssued is the GLEIF registration status of a live LEI.
const RegistrationIssued = "ISSUED"

// RawEntity represents an entity record parsed from an external source
// before validation.
type RawEntity struct {
	LEI                string   `json:"lei"`
	LegalName          string   `json:"legal_name"`
	EntityStatus       string   `json:"entity_status,omitempty"`
	RegistrationStatus string   `json:"registration_status,omitempty"`
	Jurisdiction       string   `json:"jurisdiction,omitempty"`
	City               string   `json:"city,omitempty"`
	Country            string   `json:"country,omitempty"`
	Category           string   `json:"category,omitempty"`
	IndustryCode       string   `json:"industry_code,omitempty"`
	ISINs              []string `json:"isins,omitempty"`
	LineNum            int      `json:"-"` // Line number in source file (set by parser)
}

// Active reports whether the record is an active entity with an issued
// registration. Records without a registration status only need an active
// entity status.
func (r RawEntity) Active() bool {
	if entities.ParseEntityStatus(r.EntityStatus) != entities.StatusActive {
		return false
	}
	reg := strings.ToUpper(strings.TrimSpace(r.RegistrationStatus))
	return reg == "" || reg == RegistrationIssued
}

// Params converts the record into entity construction parameters. A lapsed,
// retired or merged registration overrides an ACTIVE entity status.
func (r RawEntity) Params() entities.EntityParams {
	status := r.EntityStatus
	if reg := entities.ParseEntityStatus(r.RegistrationStatus); reg == entities.StatusInactive || reg == entities.StatusMerged {
		status = string(reg)
	}

	jurisdiction := r.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = r.Country
	}

	attrs := entities.NewAttributes()
	for _, kv := range [][2]string{
		{AttrCity, r.City},
		{AttrCountry, r.Country},
		{AttrCategory, r.Category},
		{AttrRegistrationStatus, r.RegistrationStatus},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			attrs.Set(kv[0], v)
		}
	}

	return entities.EntityParams{
		LEI:           r.LEI,
		LegalName:     r.LegalName,
		IndustryCode:  r.IndustryCode,
		Jurisdiction:  jurisdiction,
		Status:        status,
		ISINs:         r.ISINs,
		RawAttributes: attrs,
	}
}

// RawISINMapping is one ISIN to LEI row.
type RawISINMapping struct {
	ISIN    string
	LEI     string
	LineNum int
}

// Parser defines the interface for parsing entity records.
type Parser interface {
	// Parse reads every record into memory.
	Parse(r io.Reader) ([]RawEntity, error)

	// Stream calls fn for each record in file order and stops at the first
	// error fn returns.
	Stream(r io.Reader, fn func(RawEntity) error) error
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}

func collect(p Parser, r io.Reader) ([]RawEntity, error) {
	out := []RawEntity{}
	err := p.Stream(r, func(e RawEntity) error {
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
