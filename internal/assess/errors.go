package assess

import (
	"errors"
	"fmt"

	"github.com/ppiankov/marka/internal/model"
)

var (
	// ErrUnknownCategory matches every *UnknownCategoryError via errors.Is
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidQuery is returned for queries with an unknown source
	ErrInvalidQuery = errors.New("invalid assessment query")

	// ErrUnknownCode is returned when a code is not in the catalog
	ErrUnknownCode = errors.New("unknown code")

	// ErrInvalidRules is returned for malformed rule tables
	ErrInvalidRules = errors.New("invalid rule table")
)

// UnknownCategoryError reports a query no rule answers, even with source
// and volume relaxed to wildcards. Callers must not treat it as
// "marking not required".
type UnknownCategoryError struct {
	Query model.AssessmentQuery
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("no marking rule for category %q, subcategory %q (source %s, volume %s)",
		e.Query.Category, e.Query.Subcategory, e.Query.Source, e.Query.Volume)
}

// Is makes errors.Is(err, ErrUnknownCategory) hold
func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}
