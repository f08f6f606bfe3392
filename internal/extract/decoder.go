package extract

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decoder turns RTF-encoded text into plain Unicode text.
// Malformed escapes are dropped; decoding never fails.
type Decoder struct {
	codePage *charmap.Charmap
}

// NewDecoder creates a decoder that maps \'hh escapes through the given
// ANSI code page. Unknown code pages fall back to Windows-1251.
func NewDecoder(codePage int) *Decoder {
	cm, ok := CodePage(codePage)
	if !ok {
		cm = charmap.Windows1251
	}
	return &Decoder{codePage: cm}
}

// CodePage returns the charmap for a Windows/DOS code page number
func CodePage(n int) (*charmap.Charmap, bool) {
	switch n {
	case 0, 1251:
		return charmap.Windows1251, true
	case 1250:
		return charmap.Windows1250, true
	case 1252:
		return charmap.Windows1252, true
	case 866:
		return charmap.CodePage866, true
	}
	return nil, false
}

// spaceWords are control words that separate text
var spaceWords = map[string]bool{
	"par":  true,
	"line": true,
	"tab":  true,
	"cell": true,
	"row":  true,
	"sect": true,
	"page": true,
}

// Decode decodes \uN and \'hh escapes, strips control words and group
// braces, and collapses whitespace
func (d *Decoder) Decode(raw string) string {
	var buf strings.Builder
	buf.Grow(len(raw))

	for i := 0; i < len(raw); {
		switch c := raw[i]; c {
		case '{', '}':
			i++
		case '\\':
			i = d.escape(raw, i, &buf)
		case '\r', '\n', '\t':
			buf.WriteByte(' ')
			i++
		default:
			buf.WriteByte(c)
			i++
		}
	}

	return strings.Join(strings.Fields(buf.String()), " ")
}

// escape handles the token starting at raw[i] == '\\' and returns the
// index just past it
func (d *Decoder) escape(raw string, i int, buf *strings.Builder) int {
	if i+1 >= len(raw) {
		return len(raw)
	}

	next := raw[i+1]
	switch {
	case isASCIILetter(next):
		return d.controlWord(raw, i+1, buf)
	case next == '\'':
		if i+3 < len(raw) && isHex(raw[i+2]) && isHex(raw[i+3]) {
			b, _ := strconv.ParseUint(raw[i+2:i+4], 16, 8)
			buf.WriteRune(d.codePage.DecodeByte(byte(b)))
			return i + 4
		}
		return i + 2
	case next == '{' || next == '}' || next == '\\':
		buf.WriteByte(next)
	case next == '~':
		buf.WriteByte(' ')
	case next == '_':
		buf.WriteByte('-')
	case next == '\n' || next == '\r':
		buf.WriteByte(' ')
	}
	return i + 2
}

// controlWord reads letters, an optional signed numeric parameter and one
// delimiting space starting at raw[start]
func (d *Decoder) controlWord(raw string, start int, buf *strings.Builder) int {
	j := start
	for j < len(raw) && isASCIILetter(raw[j]) {
		j++
	}
	word := raw[start:j]

	k := j
	if k < len(raw) && raw[k] == '-' {
		k++
	}
	digitsStart := k
	for k < len(raw) && raw[k] >= '0' && raw[k] <= '9' {
		k++
	}
	param := ""
	if k > digitsStart {
		param = raw[j:k]
	} else {
		k = j
	}
	if k < len(raw) && raw[k] == ' ' {
		k++
	}

	switch {
	case word == "u" && param != "":
		if r, ok := codePoint(param); ok {
			buf.WriteRune(r)
		}
		return skipFallback(raw, k)
	case spaceWords[word]:
		buf.WriteByte(' ')
	}
	return k
}

// codePoint converts an RTF \u parameter into a rune. Negative values are
// the signed 16-bit form.
func codePoint(param string) (rune, bool) {
	n, err := strconv.Atoi(param)
	if err != nil {
		return 0, false
	}
	if n < 0 {
		n += 65536
	}
	if n <= 0 || n > unicode.MaxRune || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

// skipFallback skips the ANSI fallback that follows a \u escape
func skipFallback(raw string, k int) int {
	if k >= len(raw) {
		return k
	}
	if raw[k] == '?' {
		return k + 1
	}
	if k+3 < len(raw) && raw[k] == '\\' && raw[k+1] == '\'' && isHex(raw[k+2]) && isHex(raw[k+3]) {
		return k + 4
	}
	return k
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
