package entities

import "strings"

const (
	// LEILength is the length of an ISO 17442 Legal Entity Identifier.
	LEILength = 20
	// ISINLength is the length of an ISO 6166 security identifier.
	ISINLength = 12
)

// NormalizeIdentifier trims and upper-cases an LEI or ISIN.
func NormalizeIdentifier(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidateLEI checks that lei is exactly 20 alphanumeric characters.
func ValidateLEI(lei string) error {
	if len(lei) != LEILength {
		return NewValidationError("lei", "must be %d characters, got %d", LEILength, len(lei))
	}
	for i := 0; i < len(lei); i++ {
		if !isAlnum(lei[i]) {
			return NewValidationError("lei", "invalid character %q at position %d", lei[i], i+1)
		}
	}
	return nil
}

// ValidateISIN checks the ISIN shape: two-letter country prefix, nine
// alphanumeric characters and a trailing check digit. The check digit value
// itself is not verified.
func ValidateISIN(isin string) error {
	if len(isin) != ISINLength {
		return NewValidationError("isin", "must be %d characters, got %d", ISINLength, len(isin))
	}
	if !isUpper(isin[0]) || !isUpper(isin[1]) {
		return NewValidationError("isin", "must start with a two-letter country code")
	}
	for i := 2; i < ISINLength-1; i++ {
		if !isAlnum(isin[i]) {
			return NewValidationError("isin", "invalid character %q at position %d", isin[i], i+1)
		}
	}
	if !isDigit(isin[ISINLength-1]) {
		return NewValidationError("isin", "check digit must be numeric")
	}
	return nil
}

// LooksLikeISIN reports whether raw, once normalized, has the ISIN shape.
func LooksLikeISIN(raw string) bool {
	return ValidateISIN(NormalizeIdentifier(raw)) == nil
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlnum(c byte) bool { return isUpper(c) || isDigit(c) }
