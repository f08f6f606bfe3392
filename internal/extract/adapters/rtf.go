package adapters

import (
	"bytes"
	"context"
	"strings"

	"github.com/ppiankov/marka/internal/extract"
	"github.com/ppiankov/marka/internal/model"
	"github.com/ppiankov/marka/internal/worker"
)

// RTFAdapter parses nomenclature tables exported as RTF
type RTFAdapter struct {
	parser     *extract.CatalogParser
	workers    int
	chunkLines int
	onChunk    func()
}

// NewRTFAdapter creates an RTF adapter. With more than one worker the
// document is parsed in parallel chunks.
func NewRTFAdapter(parser *extract.CatalogParser, workers, chunkLines int, onChunk func()) *RTFAdapter {
	return &RTFAdapter{
		parser:     parser,
		workers:    workers,
		chunkLines: chunkLines,
		onChunk:    onChunk,
	}
}

// Name returns the adapter name
func (a *RTFAdapter) Name() string {
	return "rtf"
}

// CanHandle matches the {\rtf header or an .rtf extension
func (a *RTFAdapter) CanHandle(path string, head []byte) bool {
	return bytes.HasPrefix(trimHead(head), []byte(`{\rtf`)) || hasExt(path, ".rtf")
}

// Parse extracts entries, in parallel chunks when configured
func (a *RTFAdapter) Parse(ctx context.Context, doc string) ([]model.RawEntry, model.ParseStats, error) {
	if a.workers <= 1 {
		if err := ctx.Err(); err != nil {
			return nil, model.ParseStats{}, err
		}
		entries, stats := a.parser.Parse(doc)
		return entries, stats, nil
	}

	chunks := worker.NewChunkParser(a.parser, a.workers, a.chunkLines)
	if a.onChunk != nil {
		chunks.OnChunkDone(a.onChunk)
	}
	return chunks.Parse(ctx, extract.SplitLines(doc))
}

// Chunks returns how many parallel chunks doc splits into, 0 when parsing
// sequentially
func (a *RTFAdapter) Chunks(doc string) int {
	if a.workers <= 1 {
		return 0
	}
	return worker.ChunkCount(lineCount(doc), a.chunkLines)
}

func lineCount(doc string) int {
	n := strings.Count(doc, "\n")
	if doc != "" && !strings.HasSuffix(doc, "\n") {
		n++
	}
	return n
}
