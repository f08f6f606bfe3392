package adapters

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/ppiankov/marka/internal/extract"
	"github.com/ppiankov/marka/internal/model"
)

// Adapter parses one catalog source format
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can parse the document at path,
	// given its leading bytes
	CanHandle(path string, head []byte) bool

	// Parse extracts deduplicated raw entries in document order
	Parse(ctx context.Context, doc string) ([]model.RawEntry, model.ParseStats, error)
}

// Options configures the built-in adapters
type Options struct {
	CodePage   int
	Lookahead  int
	Workers    int
	ChunkLines int
	OnChunk    func() // Called after each parallel chunk, may be nil
}

// Registry manages source format adapters
type Registry struct {
	adapters []Adapter
	fallback Adapter
}

// NewRegistry creates a registry with the RTF and plain table adapters.
// RTF is the fallback: legacy exports without the header still carry
// cell markup.
func NewRegistry(opts Options) *Registry {
	decoder := extract.NewDecoder(opts.CodePage)
	rtf := NewRTFAdapter(extract.NewCatalogParser(decoder, opts.Lookahead), opts.Workers, opts.ChunkLines, opts.OnChunk)

	registry := &Registry{
		adapters: make([]Adapter, 0),
		fallback: rtf,
	}
	registry.Register(rtf)
	registry.Register(NewTableAdapter())
	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for the given path and document head
func (r *Registry) FindAdapter(path string, head []byte) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(path, head) {
			return adapter
		}
	}
	return r.fallback
}

// Lookup returns the adapter registered under name
func (r *Registry) Lookup(name string) (Adapter, bool) {
	for _, adapter := range r.adapters {
		if adapter.Name() == name {
			return adapter, true
		}
	}
	return nil, false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// trimHead drops a BOM and leading whitespace before sniffing
func trimHead(head []byte) []byte {
	head = bytes.TrimPrefix(head, utf8BOM)
	return bytes.TrimLeft(head, " \t\r\n")
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
