package indexing

// Record kinds
const (
	KindSection = "section" // rule tree node or table/group header
	KindRule    = "rule"    // reference table row
)

// SearchRecord is one uniform, searchable unit of rulebook content
type SearchRecord struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`      // Path-qualified: "Combat > Conditions > Stunned"
	ShortTitle      string   `json:"shortTitle"` // Bare name used for priority matching
	Content         string   `json:"content"`
	Kind            string   `json:"kind"`
	ParentSectionID string   `json:"parentSectionId,omitempty"` // "" means no enclosing section
	ParentPath      []string `json:"parentPath"`
	Depth           int      `json:"depth"`
}

// IsHeader reports whether the record is a synthetic table or group header.
// Headers point at themselves as their own parent section.
func (r SearchRecord) IsHeader() bool {
	return r.Kind == KindSection && r.ParentSectionID != "" && r.ParentSectionID == r.ID
}
