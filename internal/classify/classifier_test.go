package classify

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/marka/internal/model"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := New(model.PrefixRules{
		Mandatory:    []string{"0101", "6401", "22"},
		Experimental: []string{"3304", "8517"},
	})

	tests := []struct {
		code     string
		expected model.MarkingStatus
		desc     string
	}{
		{"0101210000", model.StatusMandatory, "Mandatory four digit prefix"},
		{"0101 21 000 0", model.StatusMandatory, "Formatted code is normalized"},
		{"6401100000", model.StatusMandatory, "Footwear"},
		{"2201", model.StatusMandatory, "Two digit prefix covers the chapter"},
		{"2299000000", model.StatusMandatory, "Two digit prefix, other heading"},
		{"3304990000", model.StatusExperimental, "Experimental prefix"},
		{"8517620000", model.StatusExperimental, "Experimental prefix, long code"},
		{"0102210000", model.StatusNotRequired, "Unlisted prefix"},
		{"010", model.StatusNotRequired, "Too short"},
		{"", model.StatusNotRequired, "Empty code"},
		{"01a1210000", model.StatusNotRequired, "Non-digit code"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := classifier.Classify(tt.code)
			if result != tt.expected {
				t.Errorf("Expected %v for %s, got %v", tt.expected, tt.code, result)
			}
		})
	}
}

func TestClassifier_MandatoryPrecedence(t *testing.T) {
	classifier := New(model.PrefixRules{
		Mandatory:    []string{"3303"},
		Experimental: []string{"3303", "33"},
	})

	for _, code := range []string{"3303", "3303001000", "3303009000"} {
		if got := classifier.Classify(code); got != model.StatusMandatory {
			t.Errorf("Expected mandatory for %s, got %v", code, got)
		}
	}

	if got := classifier.Classify("3301000000"); got != model.StatusExperimental {
		t.Errorf("Expected experimental for 3301000000, got %v", got)
	}
}

func TestClassifier_LongPrefixMatchesFirstFourDigits(t *testing.T) {
	// Only the first four digits take part in matching
	classifier := New(model.PrefixRules{Mandatory: []string{"640299"}})

	if got := classifier.Classify("6402100000"); got != model.StatusMandatory {
		t.Errorf("Expected mandatory, got %v", got)
	}
}

func TestClassifier_Total(t *testing.T) {
	classifier := New(model.DefaultPrefixRules())

	codes := []string{"0000", "9999999999", "0401", "12", "abcd", "8712000000", "2710124100"}
	for _, code := range codes {
		if status := classifier.Classify(code); !status.Valid() {
			t.Errorf("Expected a valid status for %q, got %q", code, status)
		}
	}
}

func TestClassifier_EmptyTables(t *testing.T) {
	classifier := New(model.PrefixRules{})

	if !classifier.Empty() {
		t.Error("Expected classifier with no prefixes to be empty")
	}
	if got := classifier.Classify("0101210000"); got != model.StatusNotRequired {
		t.Errorf("Expected not_required, got %v", got)
	}
}

func TestClassifier_Entry(t *testing.T) {
	classifier := New(model.PrefixRules{Mandatory: []string{"0101"}})

	entry := classifier.Entry(model.RawEntry{Code: "0101210000", Description: "Horses"})
	if entry.Status != model.StatusMandatory {
		t.Errorf("Expected mandatory, got %v", entry.Status)
	}
	if entry.FormattedCode != "0101 21 000 0" {
		t.Errorf("Expected formatted code 0101 21 000 0, got %q", entry.FormattedCode)
	}
	if !entry.Status.RequiresMarking() {
		t.Error("Expected mandatory entry to require marking")
	}
}

func TestValidateRules(t *testing.T) {
	warnings, err := ValidateRules(model.PrefixRules{
		Mandatory:    []string{"0101", "0101", "640299"},
		Experimental: []string{"0101", "3304"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{"more than once", "longer than 4 digits", "in both tables"}
	if len(warnings) != len(expected) {
		t.Fatalf("Expected %d warnings, got %d: %v", len(expected), len(warnings), warnings)
	}
	for i, want := range expected {
		if !strings.Contains(warnings[i], want) {
			t.Errorf("Expected warning %d to mention %q, got %q", i, want, warnings[i])
		}
	}
}

func TestValidateRules_Invalid(t *testing.T) {
	for _, prefix := range []string{"", "01a1", "  "} {
		_, err := ValidateRules(model.PrefixRules{Mandatory: []string{prefix}})
		if !errors.Is(err, ErrInvalidPrefix) {
			t.Errorf("Expected ErrInvalidPrefix for %q, got %v", prefix, err)
		}
	}
}

func TestValidateRules_Empty(t *testing.T) {
	warnings, err := ValidateRules(model.PrefixRules{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "empty") {
		t.Errorf("Expected one empty-tables warning, got %v", warnings)
	}
}

func TestValidateRules_Defaults(t *testing.T) {
	warnings, err := ValidateRules(model.DefaultPrefixRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Expected default prefixes to be clean, got %v", warnings)
	}
}
