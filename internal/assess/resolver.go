package assess

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/marka/internal/model"
)

// CodeIndex finds catalog entries by code
type CodeIndex interface {
	LookupExact(code string) (model.CatalogEntry, bool)
}

// Resolver answers assessment queries from a rule table and, for code
// queries, the catalog index. It performs no mutation and is safe for
// concurrent use.
type Resolver struct {
	rules *RuleTable
	index CodeIndex
}

// NewResolver creates a resolver. index may be nil when only category
// queries are served.
func NewResolver(rules *RuleTable, index CodeIndex) *Resolver {
	return &Resolver{
		rules: rules,
		index: index,
	}
}

// Assess resolves the verdict for a category query. An exact rule wins;
// otherwise volume and then source are relaxed to the wildcard.
func (r *Resolver) Assess(q model.AssessmentQuery) (model.Verdict, error) {
	source := model.Source(strings.ToLower(strings.TrimSpace(string(q.Source))))
	if !source.Valid() {
		return model.Verdict{}, fmt.Errorf("%w: source %q", ErrInvalidQuery, q.Source)
	}

	category := normalizeName(q.Category)
	subcategory := normalizeName(q.Subcategory)
	volume := model.Wildcard(q.Volume)

	candidates := []model.RuleKey{
		{Category: category, Subcategory: subcategory, Source: source, Volume: volume},
		{Category: category, Subcategory: subcategory, Source: source, Volume: model.VolumeAny},
		{Category: category, Subcategory: subcategory, Source: model.SourceAny, Volume: volume},
		{Category: category, Subcategory: subcategory, Source: model.SourceAny, Volume: model.VolumeAny},
	}

	for _, key := range candidates {
		if req, ok := r.rules.lookup(key); ok {
			return model.Verdict{
				RequiresMarking: req.RequiresMarking,
				Message:         req.Message,
				Steps:           steps(req.Steps),
				Matched:         key.String(),
			}, nil
		}
	}

	return model.Verdict{}, &UnknownCategoryError{Query: q}
}

// AssessCode resolves the verdict for a single nomenclature code from its
// catalog status
func (r *Resolver) AssessCode(code string) (model.Verdict, error) {
	if r.index == nil {
		return model.Verdict{}, fmt.Errorf("%w: %s: no catalog loaded", ErrUnknownCode, code)
	}
	entry, ok := r.index.LookupExact(code)
	if !ok {
		return model.Verdict{}, fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}

	cv, ok := r.rules.codeVerdict(entry.Status)
	if !ok {
		cv = CodeVerdict{Message: "marking status: " + entry.Status.String()}
	}

	return model.Verdict{
		RequiresMarking: entry.RequiresMarking(),
		Message:         fmt.Sprintf("%s %s: %s", entry.FormattedCode, entry.Description, cv.Message),
		Steps:           steps(cv.Steps),
		Matched:         entry.Code,
	}, nil
}

// Categories lists the categories the rule table answers for
func (r *Resolver) Categories() []Category {
	return r.rules.Categories()
}

// steps copies rule steps so callers cannot change the table. The result
// is never nil so it encodes as [].
func steps(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
