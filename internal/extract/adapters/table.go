package adapters

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/marka/internal/model"
)

// tableSeparators are the column separators a table may use. The one
// following the code column of the first data line applies to the whole
// document.
const tableSeparators = "\t;|,"

// TableAdapter parses plain text tables with one "code<sep>description"
// pair per line, as produced by spreadsheet exports of the nomenclature
type TableAdapter struct{}

// NewTableAdapter creates a plain table adapter
func NewTableAdapter() *TableAdapter {
	return &TableAdapter{}
}

// Name returns the adapter name
func (a *TableAdapter) Name() string {
	return "table"
}

// CanHandle matches text table extensions whose head carries no RTF markup
func (a *TableAdapter) CanHandle(path string, head []byte) bool {
	if !hasExt(path, ".tsv", ".csv", ".txt") {
		return false
	}
	head = trimHead(head)
	return !bytes.HasPrefix(head, []byte(`{\rtf`)) && !bytes.Contains(head, []byte(`\cell`))
}

// Parse extracts entries line by line. Lines whose first column is not a
// digit run are skipped; codes outside the length range are rejected.
func (a *TableAdapter) Parse(ctx context.Context, doc string) ([]model.RawEntry, model.ParseStats, error) {
	var (
		entries []model.RawEntry
		stats   model.ParseStats
		seen    = make(map[string]struct{})
		sep     rune
	)

	n := 0
	for line := range strings.Lines(doc) {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		lineNo := n
		n++

		line = strings.TrimRight(line, "\r\n")
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if sep == 0 {
			sep = detectSeparator(line)
		}
		codeCol, desc, ok := splitColumns(line, sep)
		if !ok {
			continue
		}
		code := model.NormalizeCode(codeCol)
		if !model.IsDigits(code) {
			continue
		}
		stats.Candidates++
		if !model.ValidCode(code) {
			stats.Rejected++
			continue
		}

		desc = cleanTableDescription(desc)
		if desc == "" {
			stats.EmptyDescription++
			continue
		}
		if _, dup := seen[code]; dup {
			stats.Duplicates++
			continue
		}
		seen[code] = struct{}{}

		stats.Emitted++
		entries = append(entries, model.RawEntry{Code: code, Description: desc, Line: lineNo})
	}

	stats.Lines = n
	return entries, stats, nil
}

// detectSeparator returns the separator right after the code column of a
// data line, 0 when the line has no code column or no known separator
func detectSeparator(line string) rune {
	rest := strings.TrimLeft(line, "0123456789 .")
	if len(rest) == len(line) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if strings.ContainsRune(tableSeparators, r) {
		return r
	}
	return 0
}

// splitColumns returns the code and description columns. Quoted fields may
// contain the separator. Without a separator the whole line is the code
// column.
func splitColumns(line string, sep rune) (string, string, bool) {
	if sep == 0 {
		return strings.TrimSpace(line), "", true
	}

	r := csv.NewReader(strings.NewReader(line))
	r.Comma = sep
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil || len(fields) == 0 {
		return "", "", false
	}

	desc := ""
	if len(fields) > 1 {
		// Later columns (units, notes) are dropped
		desc = fields[1]
	}
	return strings.TrimSpace(fields[0]), desc, true
}

func cleanTableDescription(desc string) string {
	desc = strings.Trim(strings.TrimSpace(desc), `"`)
	desc = strings.TrimLeft(desc, "-–—•*:;,. \t")
	return strings.Join(strings.Fields(desc), " ")
}
