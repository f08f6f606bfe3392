package adapters

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/marka/internal/model"
)

func TestRegistry_FindAdapter(t *testing.T) {
	registry := NewRegistry(Options{CodePage: 1251, Lookahead: 4})

	tests := []struct {
		path     string
		head     string
		expected string
	}{
		{"tnved.rtf", `{\rtf1\ansi`, "rtf"},
		{"export.doc", `{\rtf1\ansi`, "rtf"},
		{"tnved.txt", "\xEF\xBB\xBF  {\\rtf1", "rtf"},
		{"tnved.tsv", "0101210000\tHorses\n", "table"},
		{"tnved.csv", "0101210000;Horses\n", "table"},
		{"tnved.txt", `\intbl 0101\cell Horses\cell`, "rtf"},
		{"unknown.bin", "garbage", "rtf"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.expected, func(t *testing.T) {
			adapter := registry.FindAdapter(tt.path, []byte(tt.head))
			if adapter.Name() != tt.expected {
				t.Errorf("Expected %s adapter, got %s", tt.expected, adapter.Name())
			}
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	registry := NewRegistry(Options{})

	if _, ok := registry.Lookup("table"); !ok {
		t.Error("Expected table adapter to be registered")
	}
	if _, ok := registry.Lookup("pdf"); ok {
		t.Error("Expected no pdf adapter")
	}
}

func TestTableAdapter_Parse(t *testing.T) {
	doc := "# code\tname\n" +
		"code\tname\n" +
		"0101 21 000 0\tHorses\tpcs\n" +
		"8471300000\t\"- Portable computers\"\n" +
		"12\tToo short\n" +
		"0101210000\tDuplicate\n" +
		"3304990000\t\n" +
		"header without separator\n" +
		"6403\t  Footwear  \n"

	entries, stats, err := NewTableAdapter().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantEntries := []model.RawEntry{
		{Code: "0101210000", Description: "Horses", Line: 2},
		{Code: "8471300000", Description: "Portable computers", Line: 3},
		{Code: "6403", Description: "Footwear", Line: 8},
	}
	if diff := cmp.Diff(wantEntries, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	wantStats := model.ParseStats{
		Lines:            9,
		Candidates:       6,
		Rejected:         1,
		EmptyDescription: 1,
		Duplicates:       1,
		Emitted:          3,
	}
	if diff := cmp.Diff(wantStats, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestTableAdapter_Separators(t *testing.T) {
	tests := []struct {
		doc  string
		want []string
		desc string
	}{
		{
			"0101 21 000 0|Horses; pure-bred\n8471300000|Portable computers\n",
			[]string{"Horses; pure-bred", "Portable computers"},
			"Pipe table keeps other separators in descriptions",
		},
		{
			"code,name\n0101210000,\"Horses, pure-bred\"\n8471300000,Portable computers\n",
			[]string{"Horses, pure-bred", "Portable computers"},
			"Comma CSV with quoted field",
		},
		{
			"0101210000 ; Horses | live\n8471300000;Portable computers\n",
			[]string{"Horses | live", "Portable computers"},
			"Semicolon after spaced code column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			entries, stats, err := NewTableAdapter().Parse(context.Background(), tt.doc)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Description)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("descriptions mismatch (-want +got):\n%s", diff)
			}
			if stats.Candidates != len(tt.want) {
				t.Errorf("Expected %d candidates, got %d", len(tt.want), stats.Candidates)
			}
		})
	}
}

func TestDetectSeparator(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"0101 21 000 0\tHorses", '\t'},
		{"0101210000;Horses", ';'},
		{"6403 | Footwear", '|'},
		{"0101210000,Horses", ','},
		{"code,name", 0},
		{"0101210000 Horses", 0},
	}

	for _, tt := range tests {
		if got := detectSeparator(tt.line); got != tt.want {
			t.Errorf("detectSeparator(%q): expected %q, got %q", tt.line, tt.want, got)
		}
	}
}

func TestTableAdapter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := NewTableAdapter().Parse(ctx, "0101\tHorses\n"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func rtfTable(rows int) string {
	var b strings.Builder
	b.WriteString("{\\rtf1\\ansi\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "\\intbl %04d 10 000 0\\cell Item %d\\cell\\row\n", 1000+i, i)
	}
	b.WriteString("}\n")
	return b.String()
}

func TestRTFAdapter_ParallelMatchesSequential(t *testing.T) {
	doc := rtfTable(120)

	sequential := NewRegistry(Options{Lookahead: 4, Workers: 1})
	want, wantStats, err := sequential.FindAdapter("a.rtf", nil).Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("sequential parse failed: %v", err)
	}
	if len(want) != 120 {
		t.Fatalf("Expected 120 entries, got %d", len(want))
	}

	var chunks int32
	parallel := NewRegistry(Options{
		Lookahead:  4,
		Workers:    4,
		ChunkLines: 10,
		OnChunk:    func() { atomic.AddInt32(&chunks, 1) },
	})
	adapter := parallel.FindAdapter("a.rtf", nil)
	got, gotStats, err := adapter.Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("parallel parse failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-sequential +parallel):\n%s", diff)
	}
	if diff := cmp.Diff(wantStats, gotStats); diff != "" {
		t.Errorf("stats mismatch (-sequential +parallel):\n%s", diff)
	}

	rtf := adapter.(*RTFAdapter)
	if n := int(atomic.LoadInt32(&chunks)); n != rtf.Chunks(doc) {
		t.Errorf("Expected %d chunk callbacks, got %d", rtf.Chunks(doc), n)
	}
}

func TestRTFAdapter_Chunks(t *testing.T) {
	doc := rtfTable(8) // 10 lines

	if n := NewRTFAdapter(nil, 1, 3, nil).Chunks(doc); n != 0 {
		t.Errorf("Expected 0 chunks when sequential, got %d", n)
	}
	if n := NewRTFAdapter(nil, 2, 3, nil).Chunks(doc); n != 4 {
		t.Errorf("Expected 4 chunks, got %d", n)
	}
	if n := lineCount("a\nb"); n != 2 {
		t.Errorf("Expected 2 lines without trailing newline, got %d", n)
	}
}
