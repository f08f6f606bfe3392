package assess

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/marka/internal/model"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// CodeVerdict is the answer template for code queries with a given status
type CodeVerdict struct {
	Message string   `yaml:"message"`
	Steps   []string `yaml:"steps"`
}

// ruleFile is the YAML layout of a rule table
type ruleFile struct {
	CodeVerdicts map[model.MarkingStatus]CodeVerdict `yaml:"code_verdicts"`
	Rules        []model.CategoryRequirement         `yaml:"rules"`
}

// Category is a (category, subcategory) pair known to a rule table
type Category struct {
	Name        string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// RuleTable maps (category, subcategory, source, volume) to requirements.
// It is read-only after loading.
type RuleTable struct {
	rules        map[model.RuleKey]model.CategoryRequirement
	codeVerdicts map[model.MarkingStatus]CodeVerdict
}

// LoadRules reads a YAML rule table
func LoadRules(r io.Reader) (*RuleTable, error) {
	var file ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return NewRuleTable(file.Rules, file.CodeVerdicts)
}

// LoadRulesFile reads a YAML rule table from path
func LoadRulesFile(path string) (*RuleTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// DefaultRules returns the built-in rule table
func DefaultRules() (*RuleTable, error) {
	return LoadRules(bytes.NewReader(defaultRulesYAML))
}

// NewRuleTable validates requirements and indexes them by key. Keys are
// lowercased and wildcard spellings normalized; a repeated key is an error.
func NewRuleTable(reqs []model.CategoryRequirement, codeVerdicts map[model.MarkingStatus]CodeVerdict) (*RuleTable, error) {
	table := &RuleTable{
		rules:        make(map[model.RuleKey]model.CategoryRequirement, len(reqs)),
		codeVerdicts: make(map[model.MarkingStatus]CodeVerdict, len(codeVerdicts)),
	}

	for i, req := range reqs {
		key := normalizeKey(req.RuleKey)
		if key.Category == "" || key.Subcategory == "" {
			return nil, fmt.Errorf("%w: rule %d: category and subcategory are required", ErrInvalidRules, i)
		}
		if key.Source != model.SourceAny && !key.Source.Valid() {
			return nil, fmt.Errorf("%w: rule %d: unknown source %q", ErrInvalidRules, i, req.Source)
		}
		if _, dup := table.rules[key]; dup {
			return nil, fmt.Errorf("%w: rule %d: duplicate key %s", ErrInvalidRules, i, key)
		}
		req.RuleKey = key
		table.rules[key] = req
	}

	for status, verdict := range codeVerdicts {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: code verdict for unknown status %q", ErrInvalidRules, status)
		}
		table.codeVerdicts[status] = verdict
	}

	return table, nil
}

// Len returns the number of rules
func (t *RuleTable) Len() int {
	return len(t.rules)
}

// Categories returns the known (category, subcategory) pairs, sorted
func (t *RuleTable) Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for key := range t.rules {
		c := Category{Name: key.Category, Subcategory: key.Subcategory}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Subcategory < out[j].Subcategory
	})
	return out
}

func (t *RuleTable) lookup(key model.RuleKey) (model.CategoryRequirement, bool) {
	req, ok := t.rules[key]
	return req, ok
}

func (t *RuleTable) codeVerdict(status model.MarkingStatus) (CodeVerdict, bool) {
	v, ok := t.codeVerdicts[status]
	return v, ok
}

func normalizeKey(key model.RuleKey) model.RuleKey {
	return model.RuleKey{
		Category:    normalizeName(key.Category),
		Subcategory: normalizeName(key.Subcategory),
		Source:      model.Source(strings.ToLower(model.Wildcard(string(key.Source)))),
		Volume:      model.Wildcard(key.Volume),
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
