package model

// Summary is the outcome of a catalog build
type Summary struct {
	Total        int         `json:"total"`
	Mandatory    int         `json:"mandatory"`
	Experimental int         `json:"experimental"`
	NotRequired  int         `json:"not_required"`
	Parse        *ParseStats `json:"parse,omitempty"` // Nil when the snapshot came from cache
	Signals      []Signal    `json:"signals"`
}

// Signal is a diagnostic about the build with transparent data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a build signal
type SignalType string

const (
	SignalEmptyPrefixTables SignalType = "empty_prefix_tables" // Everything resolves to not_required
	SignalNoEntries         SignalType = "no_entries"          // Nothing parsed
	SignalDroppedCandidates SignalType = "dropped_candidates"  // Code cells without a description
	SignalDuplicates        SignalType = "duplicates"          // Repeated codes discarded
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
