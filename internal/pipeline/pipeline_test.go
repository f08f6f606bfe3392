package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ppiankov/marka/internal/model"
)

const sampleRTF = `{\rtf1\ansi\ansicpg1251\deff0
{\fonttbl{\f0\fnil Times New Roman;}}
\trowd\cellx1500\cellx9000
\intbl 0101 21 000 0\cell \'cb\'ee\'f8\'e0\'e4\'e8 \'f7\'e8\'f1\'f2\'ee\'ef\'ee\'f0\'ee\'e4\'ed\'fb\'e5\cell\row
\intbl 8471 30 000 0\cell\cell\row
\intbl \cell - \u1055?\u1077?\u1088?\u1077?\u1085?\u1086?\u1089?\u1085?\u1099?\u1077? \u1082?\u1086?\u1084?\u1087?\u1100?\u1102?\u1090?\u1077?\u1088?\u1099?\cell\row
\intbl 3304 99 000 0\cell Cosmetics\cell\row
\intbl 0101 21 000 0\cell Duplicate\cell\row
\intbl 12\cell Too short\cell\row
}
`

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	cfg.Prefixes = model.PrefixRules{
		Mandatory:    []string{"0101"},
		Experimental: []string{"3304"},
	}
	return cfg
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tnved.rtf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestPipeline_Build(t *testing.T) {
	p, err := NewPipeline(testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	result, err := p.Build(context.Background(), writeSource(t, sampleRTF))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if result.Adapter != "rtf" {
		t.Errorf("Expected rtf adapter, got %s", result.Adapter)
	}
	if result.Index.Len() != 3 {
		t.Fatalf("Expected 3 entries, got %d", result.Index.Len())
	}

	horses, ok := result.Index.LookupExact("0101210000")
	if !ok {
		t.Fatal("Expected 0101210000")
	}
	if horses.Description != "Лошади чистопородные" {
		t.Errorf("Expected decoded cp1251 description, got %q", horses.Description)
	}
	if horses.Status != model.StatusMandatory {
		t.Errorf("Expected mandatory, got %v", horses.Status)
	}

	laptops, ok := result.Index.LookupExact("8471300000")
	if !ok {
		t.Fatal("Expected 8471300000")
	}
	if laptops.Description != "Переносные компьютеры" {
		t.Errorf("Expected description from the next row, got %q", laptops.Description)
	}
	if laptops.FormattedCode != "8471 30 000 0" {
		t.Errorf("Expected 8471 30 000 0, got %q", laptops.FormattedCode)
	}

	sum := result.Summary
	if sum.Mandatory != 1 || sum.Experimental != 1 || sum.NotRequired != 1 {
		t.Errorf("Unexpected counts: %+v", sum)
	}
	if sum.Parse == nil || sum.Parse.Duplicates != 1 || sum.Parse.Rejected != 1 {
		t.Errorf("Expected one duplicate and one rejected code, got %+v", sum.Parse)
	}
	if result.Cached {
		t.Error("Expected a fresh build")
	}
}

func TestPipeline_BuildIdempotentAndCached(t *testing.T) {
	cfg := testConfig(t)
	path := writeSource(t, sampleRTF)

	first, err := mustPipeline(t, cfg).Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// A new pipeline sharing the cache dir reads the snapshot from disk
	second, err := mustPipeline(t, cfg).Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !second.Cached {
		t.Error("Expected second build to hit the cache")
	}
	if !bytes.Equal(first.Snapshot, second.Snapshot) {
		t.Error("Expected identical snapshot bytes from cache")
	}
	if second.Summary.Mandatory != first.Summary.Mandatory {
		t.Errorf("Expected same counts, got %d and %d", first.Summary.Mandatory, second.Summary.Mandatory)
	}

	cfg.Cache.Enabled = false
	third, err := mustPipeline(t, cfg).Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if third.Cached {
		t.Error("Expected no cache use when disabled")
	}
	if !bytes.Equal(first.Snapshot, third.Snapshot) {
		t.Error("Expected identical snapshot bytes across builds")
	}
}

func TestPipeline_PrefixChangeMissesCache(t *testing.T) {
	cfg := testConfig(t)
	path := writeSource(t, sampleRTF)

	if _, err := mustPipeline(t, cfg).Build(context.Background(), path); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cfg.Prefixes.Mandatory = append(cfg.Prefixes.Mandatory, "8471")
	result, err := mustPipeline(t, cfg).Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if result.Cached {
		t.Error("Expected changed prefixes to rebuild")
	}
	if result.Summary.Mandatory != 2 {
		t.Errorf("Expected 2 mandatory entries, got %d", result.Summary.Mandatory)
	}
}

func TestPipeline_ParallelMatchesSequential(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	path := writeSource(t, sampleRTF)

	sequential, err := mustPipeline(t, cfg).Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cfg.Parser.Workers = 3
	cfg.Parser.ChunkLines = 2
	p := mustPipeline(t, cfg)
	var progress bytes.Buffer
	p.SetProgress(&progress)

	parallel, err := p.Build(context.Background(), path)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !bytes.Equal(sequential.Snapshot, parallel.Snapshot) {
		t.Errorf("Expected identical snapshots, got\n%s\nand\n%s", sequential.Snapshot, parallel.Snapshot)
	}
}

func TestPipeline_SourceNotFound(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "catalog.json")

	p := mustPipeline(t, cfg)
	_, err := p.Build(context.Background(), filepath.Join(t.TempDir(), "missing.rtf"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("Expected ErrSourceNotFound, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("Expected nothing written")
	}
}

func TestPipeline_RenderResult(t *testing.T) {
	cfg := testConfig(t)
	p := mustPipeline(t, cfg)

	var out bytes.Buffer
	p.SetOutput(&out)

	result, err := p.Build(context.Background(), writeSource(t, sampleRTF))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	dir := t.TempDir()
	snapshot := filepath.Join(dir, "data", "catalog.json")
	xlsx := filepath.Join(dir, "data", "catalog.xlsx")
	if err := p.RenderResult(result, snapshot, xlsx, false); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}

	written, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !bytes.Equal(written, result.Snapshot) {
		t.Error("Expected snapshot file to match result bytes")
	}
	if _, err := os.Stat(xlsx); err != nil {
		t.Errorf("Expected spreadsheet: %v", err)
	}

	// Only the two artifacts, no leftover temp files
	files, _ := os.ReadDir(filepath.Join(dir, "data"))
	if len(files) != 2 {
		t.Errorf("Expected 2 files, got %d", len(files))
	}

	for _, want := range []string{"mandatory:    1", "experimental: 1", "not_required: 1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestPipeline_InvalidPrefixes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Prefixes.Mandatory = []string{"01x1"}

	if _, err := NewPipeline(cfg, nil); err == nil {
		t.Error("Expected error for invalid prefix")
	}
}

func TestLoadResolver(t *testing.T) {
	cfg := testConfig(t)
	p := mustPipeline(t, cfg)

	result, err := p.Build(context.Background(), writeSource(t, sampleRTF))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	snapshot := filepath.Join(t.TempDir(), "catalog.json")
	if err := p.RenderResult(result, snapshot, "", false); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}

	resolver, err := LoadResolver(cfg, snapshot)
	if err != nil {
		t.Fatalf("LoadResolver failed: %v", err)
	}
	verdict, err := resolver.AssessCode("0101 21 000 0")
	if err != nil {
		t.Fatalf("AssessCode failed: %v", err)
	}
	if !verdict.RequiresMarking {
		t.Error("Expected mandatory code to require marking")
	}
}

func mustPipeline(t *testing.T, cfg *model.Config) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	p.SetOutput(&bytes.Buffer{})
	return p
}
