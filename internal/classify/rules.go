package classify

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ppiankov/marka/internal/model"
)

// ErrInvalidPrefix is returned for prefixes that are empty or not digits
var ErrInvalidPrefix = errors.New("invalid prefix")

// ValidateRules checks prefix tables before they are used. Malformed
// prefixes are an error; suspicious but usable ones produce warnings.
func ValidateRules(rules model.PrefixRules) ([]string, error) {
	var warnings []string

	if rules.Empty() {
		warnings = append(warnings, "both prefix tables are empty: every code classifies as not_required")
	}

	tables := []struct {
		name     string
		prefixes []string
	}{
		{"mandatory", rules.Mandatory},
		{"experimental", rules.Experimental},
	}

	cut := make(map[string][]string, len(tables))
	for _, table := range tables {
		seen := make(map[string]bool)
		for _, raw := range table.prefixes {
			p := model.NormalizeCode(raw)
			if p == "" || !model.IsDigits(p) {
				return warnings, fmt.Errorf("%s prefix %q: %w", table.name, raw, ErrInvalidPrefix)
			}
			if len(p) > matchDigits {
				warnings = append(warnings, fmt.Sprintf("%s prefix %q is longer than %d digits, only %q is matched", table.name, raw, matchDigits, p[:matchDigits]))
				p = p[:matchDigits]
			}
			if seen[p] {
				warnings = append(warnings, fmt.Sprintf("%s prefix %q is listed more than once", table.name, p))
				continue
			}
			seen[p] = true
			cut[table.name] = append(cut[table.name], p)
		}
	}

	for _, p := range cut["experimental"] {
		if slices.Contains(cut["mandatory"], p) {
			warnings = append(warnings, fmt.Sprintf("prefix %q is in both tables, mandatory takes precedence", p))
		}
	}

	return warnings, nil
}
