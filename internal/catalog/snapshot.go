package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/marka/internal/model"
)

// ErrInvalidSnapshot is returned when a snapshot cannot be loaded as an index
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// WriteSnapshot writes the index as a JSON array in document order. The
// output is byte-identical for identical indexes.
func WriteSnapshot(w io.Writer, idx *Index) error {
	entries := idx.entries
	if entries == nil {
		entries = []model.CatalogEntry{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads an index from a snapshot written by WriteSnapshot
func ReadSnapshot(r io.Reader) (*Index, error) {
	var entries []model.CatalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if !model.ValidCode(e.Code) {
			return nil, fmt.Errorf("%w: entry %d: bad code %q", ErrInvalidSnapshot, i, e.Code)
		}
		if seen[e.Code] {
			return nil, fmt.Errorf("%w: entry %d: duplicate code %s", ErrInvalidSnapshot, i, e.Code)
		}
		seen[e.Code] = true
	}

	return Build(entries), nil
}

// LoadSnapshotFile reads a snapshot file
func LoadSnapshotFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	idx, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}
