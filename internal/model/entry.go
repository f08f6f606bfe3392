package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MarkingStatus is the marking obligation of a nomenclature code
type MarkingStatus string

const (
	StatusMandatory    MarkingStatus = "mandatory"    // Marking is required
	StatusExperimental MarkingStatus = "experimental" // Covered by a voluntary marking experiment
	StatusNotRequired  MarkingStatus = "not_required" // No marking obligation
)

// Statuses lists every marking status in precedence order
var Statuses = []MarkingStatus{StatusMandatory, StatusExperimental, StatusNotRequired}

// Valid reports whether s is one of the known statuses
func (s MarkingStatus) Valid() bool {
	switch s {
	case StatusMandatory, StatusExperimental, StatusNotRequired:
		return true
	}
	return false
}

// RequiresMarking reports whether the status obliges marking
func (s MarkingStatus) RequiresMarking() bool {
	return s == StatusMandatory
}

// IsExperimental reports whether the status is the experimental bucket
func (s MarkingStatus) IsExperimental() bool {
	return s == StatusExperimental
}

func (s MarkingStatus) String() string {
	return string(s)
}

// ParseMarkingStatus converts a string into a MarkingStatus
func ParseMarkingStatus(raw string) (MarkingStatus, error) {
	s := MarkingStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown marking status %q", raw)
	}
	return s, nil
}

// RawEntry is a (code, description) pair emitted by a catalog parser
type RawEntry struct {
	Code        string // Normalized digits
	Description string // Decoded description
	Line        int    // 0-based line of the code cell in the source document
}

// CatalogEntry is one classified nomenclature record
type CatalogEntry struct {
	Code          string
	FormattedCode string
	Description   string
	Status        MarkingStatus
}

// NewCatalogEntry builds an entry, deriving the display form from the code
func NewCatalogEntry(code, description string, status MarkingStatus) CatalogEntry {
	return CatalogEntry{
		Code:          code,
		FormattedCode: FormatCode(code),
		Description:   description,
		Status:        status,
	}
}

// RequiresMarking is a projection of Status
func (e CatalogEntry) RequiresMarking() bool {
	return e.Status.RequiresMarking()
}

// IsExperimental is a projection of Status
func (e CatalogEntry) IsExperimental() bool {
	return e.Status.IsExperimental()
}

// catalogEntryJSON is the snapshot wire shape. Field names are consumed by
// the lookup endpoints and must not change.
type catalogEntryJSON struct {
	Code            string        `json:"code"`
	CodeFormatted   string        `json:"code_formatted"`
	Name            string        `json:"name"`
	MarkingStatus   MarkingStatus `json:"marking_status"`
	RequiresMarking bool          `json:"requires_marking"`
	IsExperimental  bool          `json:"is_experimental"`
}

// MarshalJSON writes the snapshot shape with the boolean projections.
// json.Marshal re-escapes the result; write through an Encoder with
// SetEscapeHTML(false) to keep &, < and > literal.
func (e CatalogEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(catalogEntryJSON{
		Code:            e.Code,
		CodeFormatted:   e.FormattedCode,
		Name:            e.Description,
		MarkingStatus:   e.Status,
		RequiresMarking: e.RequiresMarking(),
		IsExperimental:  e.IsExperimental(),
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON reads the snapshot shape. The booleans are ignored and
// recomputed from marking_status.
func (e *CatalogEntry) UnmarshalJSON(data []byte) error {
	var raw catalogEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status, err := ParseMarkingStatus(string(raw.MarkingStatus))
	if err != nil {
		return err
	}
	e.Code = raw.Code
	e.FormattedCode = raw.CodeFormatted
	if e.FormattedCode == "" {
		e.FormattedCode = FormatCode(raw.Code)
	}
	e.Description = raw.Name
	e.Status = status
	return nil
}

// ParseStats counts what a parser saw and skipped
type ParseStats struct {
	Lines            int `json:"lines" yaml:"lines"`
	Candidates       int `json:"candidates" yaml:"candidates"`               // Code cells seen
	Rejected         int `json:"rejected" yaml:"rejected"`                   // Digit runs outside the code length range
	NoDescription    int `json:"no_description" yaml:"no_description"`       // No description within the lookahead window
	EmptyDescription int `json:"empty_description" yaml:"empty_description"` // Description empty after cleanup
	Duplicates       int `json:"duplicates" yaml:"duplicates"`               // Later occurrences of an emitted code
	Emitted          int `json:"emitted" yaml:"emitted"`
}

// Add merges other into s
func (s *ParseStats) Add(other ParseStats) {
	s.Lines += other.Lines
	s.Candidates += other.Candidates
	s.Rejected += other.Rejected
	s.NoDescription += other.NoDescription
	s.EmptyDescription += other.EmptyDescription
	s.Duplicates += other.Duplicates
	s.Emitted += other.Emitted
}
