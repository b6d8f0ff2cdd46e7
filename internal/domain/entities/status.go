package entities

import "strings"

// EntityStatus is the lifecycle status of a legal entity.
type EntityStatus string

// Recognized entity statuses.
const (
	StatusActive   EntityStatus = "ACTIVE"
	StatusInactive EntityStatus = "INACTIVE"
	StatusMerged   EntityStatus = "MERGED"
	StatusUnknown  EntityStatus = "UNKNOWN"
)

// statusAliases maps GLEIF entity and registration status vocabulary onto the
// closed status set.
var statusAliases = map[string]EntityStatus{
	"ACTIVE":    StatusActive,
	"INACTIVE":  StatusInactive,
	"RETIRED":   StatusInactive,
	"LAPSED":    StatusInactive,
	"ANNULLED":  StatusInactive,
	"MERGED":    StatusMerged,
	"DUPLICATE": StatusMerged,
	"UNKNOWN":   StatusUnknown,
}

// ParseEntityStatus maps a raw status string to an EntityStatus.
// Upstream data is noisy, so anything unrecognized is StatusUnknown.
func ParseEntityStatus(raw string) EntityStatus {
	if s, ok := statusAliases[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusUnknown
}

// String returns the status value.
func (s EntityStatus) String() string {
	return string(s)
}

// IsKnown reports whether s carries information beyond StatusUnknown.
func (s EntityStatus) IsKnown() bool {
	return s != "" && s != StatusUnknown
}
