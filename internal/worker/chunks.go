package worker

import (
	"context"
	"slices"

	"github.com/ppiankov/marka/internal/model"
)

// DefaultChunkLines is the chunk size used when none is configured
const DefaultChunkLines = 5000

// RangeParser parses the codes that start within a line range
type RangeParser interface {
	ParseRange(lines []string, start, end int) ([]model.RawEntry, model.ParseStats)
}

// chunkResult is the output of one chunk job
type chunkResult struct {
	start   int
	entries []model.RawEntry
	stats   model.ParseStats
}

// ChunkParser splits a document into line ranges and parses them on a
// worker pool. The merged output equals a sequential parse.
type ChunkParser struct {
	parser     RangeParser
	workers    int
	chunkLines int
	progress   func()
}

// NewChunkParser creates a chunk parser
func NewChunkParser(parser RangeParser, workers, chunkLines int) *ChunkParser {
	if chunkLines <= 0 {
		chunkLines = DefaultChunkLines
	}
	return &ChunkParser{
		parser:     parser,
		workers:    workers,
		chunkLines: chunkLines,
	}
}

// OnChunkDone registers a callback run after each chunk is parsed.
// It may be called from several goroutines.
func (c *ChunkParser) OnChunkDone(fn func()) {
	c.progress = fn
}

// ChunkCount returns how many chunks a document of the given line count
// splits into
func ChunkCount(lines, chunkLines int) int {
	if chunkLines <= 0 {
		chunkLines = DefaultChunkLines
	}
	if lines <= 0 {
		return 0
	}
	return (lines + chunkLines - 1) / chunkLines
}

// Parse parses lines in parallel chunks and merges the results in document
// order, keeping the first occurrence of every code
func (c *ChunkParser) Parse(ctx context.Context, lines []string) ([]model.RawEntry, model.ParseStats, error) {
	pool := NewPool[chunkResult](ctx, c.workers)
	if c.progress != nil {
		pool.OnResult(func(chunkResult) { c.progress() })
	}
	pool.Start()

	for start := 0; start < len(lines); start += c.chunkLines {
		end := min(start+c.chunkLines, len(lines))
		job := JobFunc[chunkResult](func(ctx context.Context) chunkResult {
			entries, stats := c.parser.ParseRange(lines, start, end)
			return chunkResult{start: start, entries: entries, stats: stats}
		})
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()
	if err := ctx.Err(); err != nil {
		return nil, model.ParseStats{}, err
	}

	slices.SortFunc(results, func(a, b chunkResult) int {
		return a.start - b.start
	})

	var (
		entries []model.RawEntry
		stats   model.ParseStats
		seen    = make(map[string]struct{})
	)
	for _, r := range results {
		stats.Add(r.stats)
		for _, e := range r.entries {
			if _, dup := seen[e.Code]; dup {
				stats.Duplicates++
				continue
			}
			seen[e.Code] = struct{}{}
			entries = append(entries, e)
		}
	}
	stats.Lines = len(lines)
	stats.Emitted = len(entries)

	return entries, stats, nil
}
