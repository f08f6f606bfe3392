package classify

import (
	"strings"

	"github.com/ppiankov/marka/internal/model"
)

// matchDigits is how many leading code digits take part in prefix matching
const matchDigits = 4

// Classifier maps codes to marking statuses from curated prefix tables
type Classifier struct {
	mandatory    []string
	experimental []string
}

// New creates a classifier. Prefixes are cut to their first four digits;
// invalid prefixes are ignored (see ValidateRules).
func New(rules model.PrefixRules) *Classifier {
	return &Classifier{
		mandatory:    compile(rules.Mandatory),
		experimental: compile(rules.Experimental),
	}
}

func compile(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	seen := make(map[string]bool)
	for _, p := range prefixes {
		p = model.NormalizeCode(p)
		if p == "" || !model.IsDigits(p) {
			continue
		}
		if len(p) > matchDigits {
			p = p[:matchDigits]
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Classify returns the marking status of code. Mandatory is checked before
// experimental, so a prefix present in both tables yields mandatory.
func (c *Classifier) Classify(code string) model.MarkingStatus {
	code = model.NormalizeCode(code)
	if len(code) < matchDigits || !model.IsDigits(code) {
		return model.StatusNotRequired
	}
	code4 := code[:matchDigits]

	if matchAny(code4, c.mandatory) {
		return model.StatusMandatory
	}
	if matchAny(code4, c.experimental) {
		return model.StatusExperimental
	}
	return model.StatusNotRequired
}

// Entry classifies a parsed pair into a catalog entry
func (c *Classifier) Entry(raw model.RawEntry) model.CatalogEntry {
	return model.NewCatalogEntry(raw.Code, raw.Description, c.Classify(raw.Code))
}

// Empty reports whether both tables are empty, in which case every code
// is not_required
func (c *Classifier) Empty() bool {
	return len(c.mandatory) == 0 && len(c.experimental) == 0
}

func matchAny(code4 string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(code4, p) {
			return true
		}
	}
	return false
}
