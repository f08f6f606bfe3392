package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/ppiankov/marka/internal/assess"
	"github.com/ppiankov/marka/internal/cache"
	"github.com/ppiankov/marka/internal/catalog"
	"github.com/ppiankov/marka/internal/classify"
	"github.com/ppiankov/marka/internal/extract/adapters"
	"github.com/ppiankov/marka/internal/model"
	"github.com/ppiankov/marka/internal/summary"
)

// memoryTTL bounds how long snapshots stay in process memory
const memoryTTL = 30 * time.Minute

// chunkCounter is implemented by adapters that parse in parallel chunks
type chunkCounter interface {
	Chunks(doc string) int
}

// Pipeline orchestrates the catalog build: load, parse, classify, index
type Pipeline struct {
	loader     *Loader
	registry   *adapters.Registry
	classifier *classify.Classifier
	summarizer *summary.Summarizer
	renderer   *Renderer
	cache      cache.Cache // Nil when caching is disabled
	config     *model.Config
	logger     *zap.Logger
	progress   io.Writer // Nil disables the progress bar
	bar        *progressbar.ProgressBar
}

// NewPipeline creates a new pipeline with the given configuration. Invalid
// prefix tables are an error; questionable ones are logged.
func NewPipeline(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	warnings, err := classify.ValidateRules(cfg.Prefixes)
	if err != nil {
		return nil, fmt.Errorf("prefix tables: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("prefix table", zap.String("warning", w))
	}

	p := &Pipeline{
		loader:     NewLoader(0),
		classifier: classify.New(cfg.Prefixes),
		summarizer: summary.NewSummarizer(),
		renderer:   NewRenderer(os.Stdout),
		config:     cfg,
		logger:     logger,
	}
	p.registry = adapters.NewRegistry(adapters.Options{
		CodePage:   cfg.Source.CodePage,
		Lookahead:  cfg.Parser.Lookahead,
		Workers:    cfg.Parser.Workers,
		ChunkLines: cfg.Parser.ChunkLines,
		OnChunk:    p.chunkDone,
	})

	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		p.cache = cache.NewLayeredCache(memoryTTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}

	return p, nil
}

// SetProgress enables a chunk progress bar on w
func (p *Pipeline) SetProgress(w io.Writer) {
	p.progress = w
}

// SetOutput redirects the console summary
func (p *Pipeline) SetOutput(w io.Writer) {
	p.renderer = NewRenderer(w)
}

// BuildResult is the outcome of a catalog build
type BuildResult struct {
	Source   string
	Adapter  string
	Index    *catalog.Index
	Snapshot []byte // Serialized index, exactly as written to disk
	Summary  model.Summary
	Cached   bool
}

// Build turns the source document at path into a catalog index. Parse
// problems are counted, never fatal; a missing source is.
func (p *Pipeline) Build(ctx context.Context, path string) (*BuildResult, error) {
	src, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}
	if src.Replaced {
		p.logger.Warn("source is not valid UTF-8, invalid bytes replaced", zap.String("path", path))
	}

	adapter := p.registry.FindAdapter(path, src.Head())
	log := p.logger.With(zap.String("path", path), zap.String("adapter", adapter.Name()))

	key := cache.SnapshotKey(src.Data, p.fingerprint(adapter.Name()))
	if result, ok := p.fromCache(key, log); ok {
		result.Source = path
		result.Adapter = adapter.Name()
		return result, nil
	}

	log.Debug("parsing source", zap.Int("bytes", len(src.Data)))
	start := time.Now()

	p.startProgress(adapter, src.Text)
	raw, stats, err := adapter.Parse(ctx, src.Text)
	p.finishProgress()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	idx := catalog.FromRaw(raw, p.classifier)

	var buf bytes.Buffer
	if err := catalog.WriteSnapshot(&buf, idx); err != nil {
		return nil, err
	}

	log.Info("catalog built",
		zap.Int("entries", idx.Len()),
		zap.Int("lines", stats.Lines),
		zap.Int("no_description", stats.NoDescription),
		zap.Int("duplicates", stats.Duplicates),
		zap.Duration("elapsed", time.Since(start)))

	if p.cache != nil {
		if err := p.cache.Set(key, buf.Bytes(), p.config.Cache.TTL); err != nil {
			log.Warn("cache store failed", zap.Error(err))
		}
	}

	return &BuildResult{
		Source:   path,
		Adapter:  adapter.Name(),
		Index:    idx,
		Snapshot: buf.Bytes(),
		Summary:  p.summarizer.Calculate(idx, &stats, p.config.Prefixes),
	}, nil
}

// fromCache loads a previously built snapshot. Unreadable entries are
// dropped and rebuilt.
func (p *Pipeline) fromCache(key string, log *zap.Logger) (*BuildResult, bool) {
	if p.cache == nil {
		return nil, false
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}

	idx, err := catalog.ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		log.Warn("discarding cached snapshot", zap.Error(err))
		_ = p.cache.Delete(key)
		return nil, false
	}

	log.Info("using cached snapshot", zap.Int("entries", idx.Len()))
	return &BuildResult{
		Index:    idx,
		Snapshot: data,
		Summary:  p.summarizer.Calculate(idx, nil, p.config.Prefixes),
		Cached:   true,
	}, true
}

// fingerprint lists every setting that changes the snapshot for the same
// source bytes. Worker and chunk settings do not.
func (p *Pipeline) fingerprint(adapter string) string {
	cfg := p.config
	return fmt.Sprintf("adapter=%s;lookahead=%d;codepage=%d;mandatory=%s;experimental=%s",
		adapter,
		cfg.Parser.Lookahead,
		cfg.Source.CodePage,
		strings.Join(cfg.Prefixes.Mandatory, ","),
		strings.Join(cfg.Prefixes.Experimental, ","))
}

func (p *Pipeline) startProgress(adapter adapters.Adapter, doc string) {
	if p.progress == nil {
		return
	}
	counter, ok := adapter.(chunkCounter)
	if !ok {
		return
	}
	chunks := counter.Chunks(doc)
	if chunks <= 1 {
		return
	}
	p.bar = progressbar.NewOptions(chunks,
		progressbar.OptionSetWriter(p.progress),
		progressbar.OptionSetDescription("Parsing chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
}

// chunkDone advances the progress bar; called from worker goroutines
func (p *Pipeline) chunkDone() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *Pipeline) finishProgress() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// RenderResult writes the snapshot, the optional spreadsheet, and prints
// the summary. Nothing is written unless the build succeeded.
func (p *Pipeline) RenderResult(result *BuildResult, snapshotPath, xlsxPath string, verbose bool) error {
	if snapshotPath != "" {
		if err := p.renderer.WriteSnapshotFile(result.Snapshot, snapshotPath); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		p.logger.Info("wrote snapshot", zap.String("path", snapshotPath), zap.Bool("cached", result.Cached))
	}

	if xlsxPath != "" {
		if err := p.renderer.WriteXLSX(result.Index, xlsxPath); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		p.logger.Info("wrote spreadsheet", zap.String("path", xlsxPath))
	}

	p.renderer.RenderSummary(result.Summary, verbose)
	return nil
}

// LoadResolver opens the snapshot at snapshotPath (optional) and the rule
// table from the configuration for assessment queries
func LoadResolver(cfg *model.Config, snapshotPath string) (*assess.Resolver, error) {
	var (
		rules *assess.RuleTable
		err   error
	)
	if cfg.Assessment.RulesFile != "" {
		rules, err = assess.LoadRulesFile(cfg.Assessment.RulesFile)
	} else {
		rules, err = assess.DefaultRules()
	}
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	if snapshotPath == "" {
		return assess.NewResolver(rules, nil), nil
	}
	idx, err := catalog.LoadSnapshotFile(snapshotPath)
	if err != nil {
		return nil, err
	}
	return assess.NewResolver(rules, idx), nil
}
