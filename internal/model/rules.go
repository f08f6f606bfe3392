package model

import "strings"

// PrefixRules holds the curated prefix tables per marking bucket.
// Prefixes are digit strings; only the first four digits take part in
// matching.
type PrefixRules struct {
	Mandatory    []string `json:"mandatory" yaml:"mandatory" mapstructure:"mandatory"`
	Experimental []string `json:"experimental" yaml:"experimental" mapstructure:"experimental"`
}

// Empty reports whether both tables are empty
func (r PrefixRules) Empty() bool {
	return len(r.Mandatory) == 0 && len(r.Experimental) == 0
}

// Source is where the goods come from
type Source string

const (
	SourceProduce Source = "produce" // Domestic production
	SourceBuyRF   Source = "buy_rf"  // Purchased inside the country
	SourceImport  Source = "import"  // Imported
	SourceAny     Source = "any"     // Rule-table wildcard, never a query value
)

// Valid reports whether s is a query value (wildcard excluded)
func (s Source) Valid() bool {
	switch s {
	case SourceProduce, SourceBuyRF, SourceImport:
		return true
	}
	return false
}

// Volume buckets used by the default rule table. The set is open: rule
// tables may use other buckets.
const (
	VolumeSmall  = "<100"
	VolumeMedium = "100-1000"
	VolumeLarge  = ">1000"
	VolumeAny    = "any"
)

// Wildcard normalizes the wildcard spellings accepted in rule tables
// ("any", "*", empty) to "any"
func Wildcard(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" || strings.EqualFold(v, VolumeAny) {
		return VolumeAny
	}
	return v
}

// AssessmentQuery is the user's category selection plus context answers
type AssessmentQuery struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Source      Source `json:"source"`
	Volume      string `json:"volume"`
}

// RuleKey identifies a category requirement
type RuleKey struct {
	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
	Source      Source `json:"source" yaml:"source"`
	Volume      string `json:"volume" yaml:"volume"`
}

func (k RuleKey) String() string {
	return k.Category + "/" + k.Subcategory + "/" + string(k.Source) + "/" + k.Volume
}

// CategoryRequirement is one row of the category rule table
type CategoryRequirement struct {
	RuleKey         `yaml:",inline"`
	RequiresMarking bool     `json:"requires_marking" yaml:"requires_marking"`
	Message         string   `json:"message" yaml:"message"`
	Steps           []string `json:"steps" yaml:"steps"`
}

// Verdict is the answer to an assessment query
type Verdict struct {
	RequiresMarking bool     `json:"requires_marking"`
	Message         string   `json:"message"`
	Steps           []string `json:"steps"`
	Matched         string   `json:"matched,omitempty"` // Rule key or code that produced the verdict
}
