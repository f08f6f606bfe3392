package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ppiankov/marka/internal/catalog"
	"github.com/ppiankov/marka/internal/model"
)

// Renderer writes build artifacts and the console summary
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer printing summaries to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// WriteSnapshotFile writes snapshot bytes to path. The file is replaced
// atomically, so a failed write leaves any previous snapshot intact.
func (r *Renderer) WriteSnapshotFile(snapshot []byte, path string) error {
	return writeAtomic(path, func(tmp string) error {
		return os.WriteFile(tmp, snapshot, 0644)
	})
}

// WriteXLSX exports the index as a spreadsheet at path
func (r *Renderer) WriteXLSX(idx *catalog.Index, path string) error {
	return writeAtomic(path, func(tmp string) error {
		return catalog.WriteXLSX(idx, tmp)
	})
}

// writeAtomic calls write with a temporary path next to path and renames
// the result into place. The temporary name keeps the extension of path.
func writeAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-*-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	_ = f.Close()
	defer func() { _ = os.Remove(tmp) }()

	if err := write(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints entry counts per status. Signals are listed when
// verbose, or always when they are warnings or worse.
func (r *Renderer) RenderSummary(sum model.Summary, verbose bool) {
	fmt.Fprintf(r.out, "Catalog entries: %d\n", sum.Total)
	fmt.Fprintf(r.out, "  mandatory:    %d\n", sum.Mandatory)
	fmt.Fprintf(r.out, "  experimental: %d\n", sum.Experimental)
	fmt.Fprintf(r.out, "  not_required: %d\n", sum.NotRequired)

	if verbose && sum.Parse != nil {
		p := sum.Parse
		fmt.Fprintf(r.out, "Parsed %d lines: %d code cells, %d rejected, %d without description, %d empty, %d duplicates\n",
			p.Lines, p.Candidates, p.Rejected, p.NoDescription, p.EmptyDescription, p.Duplicates)
	}

	signals := make([]model.Signal, 0, len(sum.Signals))
	for _, s := range sum.Signals {
		if verbose || s.Severity != model.SeverityInfo {
			signals = append(signals, s)
		}
	}
	sort.SliceStable(signals, func(i, j int) bool {
		return severityRank(signals[i].Severity) > severityRank(signals[j].Severity)
	})
	for _, s := range signals {
		fmt.Fprintf(r.out, "[%s] %s\n", s.Severity, s.Description)
	}
}

func severityRank(s model.SignalSeverity) int {
	switch s {
	case model.SeverityCritical:
		return 2
	case model.SeverityWarning:
		return 1
	}
	return 0
}
