package entities

// Enrichment is industry information looked up for an LEI outside the
// relational store.
type Enrichment struct {
	SourceID    string   `json:"source_id,omitempty"`
	Description string   `json:"description,omitempty"`
	Sectors     []string `json:"sectors,omitempty"`
}

// IndustryCode returns the sector used to fill Entity.IndustryCode.
func (e Enrichment) IndustryCode() string {
	if len(e.Sectors) == 0 {
		return ""
	}
	return e.Sectors[0]
}

// Found reports whether the source knew the LEI at all.
func (e Enrichment) Found() bool {
	return e.SourceID != ""
}
