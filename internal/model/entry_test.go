package model

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMarkingStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    MarkingStatus
		wantErr bool
	}{
		{"mandatory", StatusMandatory, false},
		{" Experimental ", StatusExperimental, false},
		{"NOT_REQUIRED", StatusNotRequired, false},
		{"required", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMarkingStatus(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMarkingStatus(%q): expected error %v, got %v", tt.raw, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMarkingStatus(%q): expected %q, got %q", tt.raw, tt.want, got)
		}
	}
}

func TestMarkingStatus_Projections(t *testing.T) {
	tests := []struct {
		status       MarkingStatus
		requires     bool
		experimental bool
	}{
		{StatusMandatory, true, false},
		{StatusExperimental, false, true},
		{StatusNotRequired, false, false},
	}

	for _, tt := range tests {
		entry := NewCatalogEntry("0101210000", "Horses", tt.status)
		if entry.RequiresMarking() != tt.requires {
			t.Errorf("%s: expected requires_marking %v", tt.status, tt.requires)
		}
		if entry.IsExperimental() != tt.experimental {
			t.Errorf("%s: expected is_experimental %v", tt.status, tt.experimental)
		}
	}
}

func TestCatalogEntry_MarshalJSON(t *testing.T) {
	entry := NewCatalogEntry("3304990000", "Lotions & creams <50ml>", StatusExperimental)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `{"code":"3304990000","code_formatted":"3304 99 000 0","name":"Lotions & creams <50ml>","marking_status":"experimental","requires_marking":false,"is_experimental":true}` + "\n"
	if buf.String() != want {
		t.Errorf("Expected\n%s\ngot\n%s", want, buf.String())
	}
}

func TestCatalogEntry_UnmarshalJSON(t *testing.T) {
	// Stored booleans disagree with the status and are recomputed
	data := `{"code":"6403990000","name":"Footwear","marking_status":"mandatory","requires_marking":false,"is_experimental":true}`

	var entry CatalogEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := NewCatalogEntry("6403990000", "Footwear", StatusMandatory)
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
	if !entry.RequiresMarking() {
		t.Error("Expected mandatory entry to require marking")
	}
}

func TestCatalogEntry_UnmarshalInvalidStatus(t *testing.T) {
	var entry CatalogEntry
	err := json.Unmarshal([]byte(`{"code":"6403990000","name":"x","marking_status":"maybe"}`), &entry)
	if err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestParseStats_Add(t *testing.T) {
	a := ParseStats{Lines: 10, Candidates: 4, Rejected: 1, NoDescription: 1, Duplicates: 1, Emitted: 2}
	a.Add(ParseStats{Lines: 5, Candidates: 2, EmptyDescription: 1, Emitted: 1})

	want := ParseStats{Lines: 15, Candidates: 6, Rejected: 1, NoDescription: 1, EmptyDescription: 1, Duplicates: 1, Emitted: 3}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestWildcard(t *testing.T) {
	for _, v := range []string{"", "*", "any", " ANY "} {
		if got := Wildcard(v); got != VolumeAny {
			t.Errorf("Wildcard(%q): expected any, got %q", v, got)
		}
	}
	if got := Wildcard(" >1000 "); got != ">1000" {
		t.Errorf("Expected trimmed bucket, got %q", got)
	}
}

func TestDefaultPrefixRules(t *testing.T) {
	rules := DefaultPrefixRules()
	if rules.Empty() {
		t.Fatal("Expected populated default tables")
	}
	for _, p := range append(rules.Mandatory, rules.Experimental...) {
		if len(p) != 4 || !IsDigits(p) {
			t.Errorf("Expected four-digit default prefix, got %q", p)
		}
	}
}
