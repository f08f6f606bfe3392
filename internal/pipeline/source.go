package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// ErrSourceNotFound is returned when the catalog source document does not exist
var ErrSourceNotFound = errors.New("source document not found")

// headBytes is how much of a document adapters see when sniffing the format
const headBytes = 512

// Loader reads catalog source documents
type Loader struct {
	maxBytes int64
}

// NewLoader creates a loader. maxBytes <= 0 reads documents of any size.
func NewLoader(maxBytes int64) *Loader {
	return &Loader{maxBytes: maxBytes}
}

// Source is a loaded catalog document
type Source struct {
	Path     string
	Data     []byte // Raw bytes, used for cache keys
	Text     string // Data with invalid UTF-8 replaced by U+FFFD
	Replaced bool   // Whether any bytes were replaced
}

// Head returns the leading bytes used for format detection
func (s *Source) Head() []byte {
	if len(s.Data) > headBytes {
		return s.Data[:headBytes]
	}
	return s.Data
}

// Load reads the document at path. Undecodable bytes are replaced, not
// fatal; only a missing or unreadable file is an error.
func (l *Loader) Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}

	var r io.Reader = f
	if l.maxBytes > 0 {
		r = io.LimitReader(f, l.maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	src := &Source{Path: path, Data: data}
	if utf8.Valid(data) {
		src.Text = string(data)
	} else {
		src.Text = strings.ToValidUTF8(string(data), string(utf8.RuneError))
		src.Replaced = true
	}
	return src, nil
}
