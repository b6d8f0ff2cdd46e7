package entities

import "strings"

// QueryKind distinguishes identifier lookups from free-text lookups.
type QueryKind string

// Supported query kinds.
const (
	QueryISIN QueryKind = "isin"
	QueryName QueryKind = "name"
)

// Query is a single resolution request.
type Query struct {
	Kind  QueryKind
	Value string
}

// ISINQuery builds a query for an ISIN code.
func ISINQuery(isin string) Query {
	return Query{Kind: QueryISIN, Value: NormalizeIdentifier(isin)}
}

// NameQuery builds a query for a free-text company name.
func NameQuery(name string) Query {
	return Query{Kind: QueryName, Value: NormalizeName(name)}
}

// ParseQuery classifies raw input: anything shaped like an ISIN is an ISIN
// query, everything else is a name query.
func ParseQuery(raw string) Query {
	if LooksLikeISIN(raw) {
		return ISINQuery(raw)
	}
	return NameQuery(raw)
}

// Validate checks that the query is well formed.
func (q Query) Validate() error {
	switch q.Kind {
	case QueryISIN:
		return ValidateISIN(q.Value)
	case QueryName:
		if strings.TrimSpace(q.Value) == "" {
			return NewValidationError("name", "must not be empty")
		}
		return nil
	default:
		return NewValidationError("query", "unknown kind %q", q.Kind)
	}
}

func (q Query) String() string {
	return string(q.Kind) + ":" + q.Value
}
