// Package entities contains core domain data structures.
package entities

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Entity is the canonical record for one legal entity, keyed by its LEI.
type Entity struct {
	LEI          string       `json:"lei"`
	LegalName    string       `json:"legal_name"`
	IndustryCode string       `json:"industry_code,omitempty"`
	Jurisdiction string       `json:"jurisdiction,omitempty"`
	Status       EntityStatus `json:"entity_status"`
	ISINs        []string     `json:"isins,omitempty"`

	// RawAttributes carries display-only metadata. It never feeds matching.
	RawAttributes *Attributes `json:"raw_attributes,omitempty"`
}

// EntityParams holds the unvalidated input for NewEntity.
type EntityParams struct {
	LEI           string
	LegalName     string
	IndustryCode  string
	Jurisdiction  string
	Status        string
	ISINs         []string
	RawAttributes *Attributes
}

// NewEntity validates params and builds an Entity.
// The LEI must be 20 alphanumeric characters; an unrecognized status becomes
// StatusUnknown rather than failing.
func NewEntity(p EntityParams) (*Entity, error) {
	lei := NormalizeIdentifier(p.LEI)
	if err := ValidateLEI(lei); err != nil {
		return nil, err
	}

	attrs := p.RawAttributes
	if attrs == nil {
		attrs = NewAttributes()
	}

	return &Entity{
		LEI:           lei,
		LegalName:     NormalizeName(p.LegalName),
		IndustryCode:  strings.TrimSpace(p.IndustryCode),
		Jurisdiction:  strings.ToUpper(strings.TrimSpace(p.Jurisdiction)),
		Status:        ParseEntityStatus(p.Status),
		ISINs:         normalizeISINs(p.ISINs),
		RawAttributes: attrs,
	}, nil
}

// HasISIN reports whether isin is associated with the entity.
func (e *Entity) HasISIN(isin string) bool {
	_, found := slices.BinarySearch(e.ISINs, NormalizeIdentifier(isin))
	return found
}

// NormalizeName trims a legal name and applies NFKC normalization.
// Case is preserved for display.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	return strings.Join(strings.Fields(name), " ")
}

// NameKey folds a legal name to the key used for exact name matching.
func NameKey(name string) string {
	return strings.ToLower(NormalizeName(name))
}

func normalizeISINs(isins []string) []string {
	if len(isins) == 0 {
		return nil
	}
	out := make([]string, 0, len(isins))
	for _, isin := range isins {
		isin = NormalizeIdentifier(isin)
		if isin == "" {
			continue
		}
		out = append(out, isin)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
