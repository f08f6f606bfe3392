package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/ppiankov/marka/internal/model"
)

// Index is an immutable collection of classified entries with exact,
// prefix and text lookups. It is safe for concurrent reads.
type Index struct {
	entries []model.CatalogEntry // Document order
	byCode  map[string]int
	sorted  []int    // Entry positions ordered by code
	folded  []string // Case-folded descriptions, aligned with entries
}

// Build creates an index. When a code repeats, the first entry wins.
func Build(entries []model.CatalogEntry) *Index {
	idx := &Index{
		entries: make([]model.CatalogEntry, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}

	fold := cases.Fold()
	for _, e := range entries {
		if _, dup := idx.byCode[e.Code]; dup {
			continue
		}
		idx.byCode[e.Code] = len(idx.entries)
		idx.entries = append(idx.entries, e)
		idx.folded = append(idx.folded, fold.String(e.Description))
	}

	idx.sorted = make([]int, len(idx.entries))
	for i := range idx.sorted {
		idx.sorted[i] = i
	}
	sort.Slice(idx.sorted, func(a, b int) bool {
		return idx.entries[idx.sorted[a]].Code < idx.entries[idx.sorted[b]].Code
	})

	return idx
}

// Classifier assigns a marking status to a code
type Classifier interface {
	Entry(raw model.RawEntry) model.CatalogEntry
}

// FromRaw classifies parser output and builds the index
func FromRaw(raw []model.RawEntry, classifier Classifier) *Index {
	entries := make([]model.CatalogEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, classifier.Entry(r))
	}
	return Build(entries)
}

// Len returns the number of entries
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns a copy of all entries in document order
func (idx *Index) Entries() []model.CatalogEntry {
	out := make([]model.CatalogEntry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// LookupExact finds the entry for code. Separators in code are ignored.
func (idx *Index) LookupExact(code string) (model.CatalogEntry, bool) {
	i, ok := idx.byCode[model.NormalizeCode(code)]
	if !ok {
		return model.CatalogEntry{}, false
	}
	return idx.entries[i], true
}

// LookupByPrefix returns all entries whose code starts with prefix,
// ordered by code. An empty prefix returns every entry.
func (idx *Index) LookupByPrefix(prefix string) []model.CatalogEntry {
	prefix = model.NormalizeCode(prefix)
	if prefix != "" && !model.IsDigits(prefix) {
		return nil
	}

	first := sort.Search(len(idx.sorted), func(i int) bool {
		return idx.entries[idx.sorted[i]].Code >= prefix
	})

	var out []model.CatalogEntry
	for _, pos := range idx.sorted[first:] {
		e := idx.entries[pos]
		if !strings.HasPrefix(e.Code, prefix) {
			break
		}
		out = append(out, e)
	}
	return out
}

// Search returns entries whose description contains every whitespace
// separated token of text, ignoring case, ordered by code
func (idx *Index) Search(text string) []model.CatalogEntry {
	tokens := strings.Fields(cases.Fold().String(text))
	if len(tokens) == 0 {
		return nil
	}

	var out []model.CatalogEntry
	for _, pos := range idx.sorted {
		if containsAll(idx.folded[pos], tokens) {
			out = append(out, idx.entries[pos])
		}
	}
	return out
}

func containsAll(s string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}

// Counts returns the number of entries per marking status. Every status
// is present in the result.
func (idx *Index) Counts() map[model.MarkingStatus]int {
	counts := make(map[model.MarkingStatus]int, len(model.Statuses))
	for _, s := range model.Statuses {
		counts[s] = 0
	}
	for _, e := range idx.entries {
		counts[e.Status]++
	}
	return counts
}
