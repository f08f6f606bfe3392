package extract

import (
	"iter"
	"strings"
	"unicode"

	"github.com/ppiankov/marka/internal/model"
)

// DefaultLookahead is how many lines after a code line are searched for
// its description
const DefaultLookahead = 4

// cellMarker is the RTF table cell boundary
const cellMarker = `\cell`

// CatalogParser extracts (code, description) pairs from an RTF
// nomenclature table
type CatalogParser struct {
	decoder   *Decoder
	lookahead int
}

// NewCatalogParser creates a parser. A negative lookahead uses the default.
func NewCatalogParser(decoder *Decoder, lookahead int) *CatalogParser {
	if decoder == nil {
		decoder = NewDecoder(0)
	}
	if lookahead < 0 {
		lookahead = DefaultLookahead
	}
	return &CatalogParser{
		decoder:   decoder,
		lookahead: lookahead,
	}
}

// Lookahead returns the description search window
func (p *CatalogParser) Lookahead() int {
	return p.lookahead
}

// Entries returns the pairs of doc in document order, deduplicated by code
// with the first occurrence kept
func (p *CatalogParser) Entries(doc string) iter.Seq[model.RawEntry] {
	return func(yield func(model.RawEntry) bool) {
		p.scan(doc, yield)
	}
}

// Parse collects all pairs of doc and reports what was skipped
func (p *CatalogParser) Parse(doc string) ([]model.RawEntry, model.ParseStats) {
	var entries []model.RawEntry
	stats := p.scan(doc, func(e model.RawEntry) bool {
		entries = append(entries, e)
		return true
	})
	return entries, stats
}

func (p *CatalogParser) scan(doc string, yield func(model.RawEntry) bool) model.ParseStats {
	m := p.newMachine(true)
	n := 0
	for line := range strings.Lines(doc) {
		if !m.feed(n, line, true, yield) {
			return m.stats
		}
		n++
	}
	m.finish()
	m.stats.Lines = n
	return m.stats
}

// ParseRange parses code cells that start on lines [start, end), reading
// up to Lookahead lines past end to resolve their descriptions. Codes are
// not deduplicated.
func (p *CatalogParser) ParseRange(lines []string, start, end int) ([]model.RawEntry, model.ParseStats) {
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}

	var entries []model.RawEntry
	emit := func(e model.RawEntry) bool {
		entries = append(entries, e)
		return true
	}

	m := p.newMachine(false)
	limit := min(end+p.lookahead, len(lines))
	for n := start; n < limit; n++ {
		if n >= end && m.state != awaitingDescription {
			break
		}
		m.feed(n, lines[n], n < end, emit)
	}
	m.finish()
	if end > start {
		m.stats.Lines = end - start
	}
	return entries, m.stats
}

// SplitLines splits a document into lines for ParseRange
func SplitLines(doc string) []string {
	var lines []string
	for line := range strings.Lines(doc) {
		lines = append(lines, line)
	}
	return lines
}

type parseState int

const (
	awaitingCode parseState = iota
	awaitingDescription
)

// machine is the line-by-line parser state
type machine struct {
	parser    *CatalogParser
	state     parseState
	code      string
	codeLine  int
	remaining int
	seen      map[string]struct{} // nil disables deduplication
	stats     model.ParseStats
}

func (p *CatalogParser) newMachine(dedup bool) *machine {
	m := &machine{parser: p}
	if dedup {
		m.seen = make(map[string]struct{})
	}
	return m
}

// feed advances the machine by one line. start reports whether a code on
// this line may open a new entry. It returns false when emit asks to stop.
func (m *machine) feed(n int, line string, start bool, emit func(model.RawEntry) bool) bool {
	info := m.parser.analyze(line)

	if info.code != "" {
		if m.state == awaitingDescription {
			m.stats.NoDescription++
			m.reset()
		}
		if !start {
			return true
		}
		m.stats.Candidates++
		m.state = awaitingDescription
		m.code = info.code
		m.codeLine = n
		m.remaining = m.parser.lookahead
		if info.hasDesc {
			return m.resolve(info.desc, emit)
		}
		if m.remaining <= 0 {
			m.stats.NoDescription++
			m.reset()
		}
		return true
	}

	if start && info.rejected {
		m.stats.Rejected++
	}
	if m.state != awaitingDescription {
		return true
	}
	if info.hasDesc {
		return m.resolve(info.desc, emit)
	}

	m.remaining--
	if m.remaining <= 0 {
		m.stats.NoDescription++
		m.reset()
	}
	return true
}

// resolve pairs the pending code with a description cell
func (m *machine) resolve(desc string, emit func(model.RawEntry) bool) bool {
	entry := model.RawEntry{
		Code:        m.code,
		Description: cleanDescription(desc),
		Line:        m.codeLine,
	}
	m.reset()

	if entry.Description == "" {
		m.stats.EmptyDescription++
		return true
	}
	if m.seen != nil {
		if _, dup := m.seen[entry.Code]; dup {
			m.stats.Duplicates++
			return true
		}
		m.seen[entry.Code] = struct{}{}
	}

	m.stats.Emitted++
	return emit(entry)
}

// finish drops a code still waiting at the end of input
func (m *machine) finish() {
	if m.state == awaitingDescription {
		m.stats.NoDescription++
		m.reset()
	}
}

func (m *machine) reset() {
	m.state = awaitingCode
	m.code = ""
	m.remaining = 0
}

// lineInfo is what a single line contributes to the machine
type lineInfo struct {
	code     string // Valid normalized code from a code cell
	rejected bool   // A digit cell outside the code length range
	desc     string // Decoded text of the description cell
	hasDesc  bool
}

// analyze splits a line into cells and finds the code and description
// cells. On a code line only cells after the code cell can describe it.
func (p *CatalogParser) analyze(line string) lineInfo {
	var info lineInfo

	cells := splitCells(line)
	if len(cells) == 0 {
		return info
	}

	decoded := make([]string, len(cells))
	descFrom := 0
	for i, cell := range cells {
		decoded[i] = p.decoder.Decode(cell)
		if info.code != "" || !isDigitCell(decoded[i]) {
			continue
		}
		code := model.NormalizeCode(decoded[i])
		if model.ValidCode(code) {
			info.code = code
			descFrom = i + 1
			continue
		}
		info.rejected = true
	}

	for i := descFrom; i < len(cells); i++ {
		if isDescriptionCell(cells[i], decoded[i]) {
			info.desc = decoded[i]
			info.hasDesc = true
			break
		}
	}
	return info
}

// splitCells returns the raw text of every cell closed by \cell on the
// line. Text after the last marker belongs to no cell. \cellx (a cell
// width definition) is not a boundary.
func splitCells(line string) []string {
	var cells []string
	cellStart, pos := 0, 0
	for {
		idx := strings.Index(line[pos:], cellMarker)
		if idx < 0 {
			return cells
		}
		idx += pos
		after := idx + len(cellMarker)
		if after < len(line) && isASCIILetter(line[after]) {
			pos = after
			continue
		}
		cells = append(cells, line[cellStart:idx])
		cellStart, pos = after, after
	}
}

// isDigitCell reports whether decoded cell text is a digit run with
// optional space grouping
func isDigitCell(text string) bool {
	if text == "" || text[0] < '0' || text[0] > '9' {
		return false
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c < '0' || c > '9') && c != ' ' {
			return false
		}
	}
	return true
}

// isDescriptionCell reports whether a cell carries text: a Latin or
// Cyrillic letter after decoding, or a \u escape in the raw markup
func isDescriptionCell(raw, decoded string) bool {
	for _, r := range decoded {
		if unicode.In(r, unicode.Latin, unicode.Cyrillic) {
			return true
		}
	}
	return hasUnicodeEscape(raw)
}

func hasUnicodeEscape(raw string) bool {
	for i := 0; i+2 < len(raw); i++ {
		if raw[i] != '\\' || raw[i+1] != 'u' {
			continue
		}
		c := raw[i+2]
		if (c >= '0' && c <= '9') || (c == '-' && i+3 < len(raw) && raw[i+3] >= '0' && raw[i+3] <= '9') {
			return true
		}
	}
	return false
}

// cleanDescription strips the leading "- " nesting markers and stray
// punctuation the nomenclature puts before descriptions
func cleanDescription(text string) string {
	text = strings.TrimLeftFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.Is(unicode.Pd, r) || strings.ContainsRune("•·*:;,.", r)
	})
	return strings.TrimSpace(text)
}
