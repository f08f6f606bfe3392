package summary

import (
	"fmt"

	"github.com/ppiankov/marka/internal/model"
)

// droppedWarnRatio is the share of dropped code cells that turns the
// dropped_candidates signal into a warning
const droppedWarnRatio = 0.1

// Counter reports entry counts per marking status
type Counter interface {
	Counts() map[model.MarkingStatus]int
}

// Summarizer builds the build summary and its diagnostic signals
type Summarizer struct{}

// NewSummarizer creates a new summarizer
func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

// Calculate counts entries per status and explains anything suspicious
// about the build. stats is nil when the snapshot came from cache.
func (s *Summarizer) Calculate(index Counter, stats *model.ParseStats, rules model.PrefixRules) model.Summary {
	counts := index.Counts()
	sum := model.Summary{
		Mandatory:    counts[model.StatusMandatory],
		Experimental: counts[model.StatusExperimental],
		NotRequired:  counts[model.StatusNotRequired],
		Parse:        stats,
		Signals:      []model.Signal{},
	}
	sum.Total = sum.Mandatory + sum.Experimental + sum.NotRequired

	if signal, ok := s.checkPrefixTables(rules, sum.Total); ok {
		sum.Signals = append(sum.Signals, signal)
	}
	if signal, ok := s.checkEmpty(sum.Total, stats); ok {
		sum.Signals = append(sum.Signals, signal)
	}
	if stats != nil {
		if signal, ok := s.checkDropped(stats); ok {
			sum.Signals = append(sum.Signals, signal)
		}
		if signal, ok := s.checkDuplicates(stats); ok {
			sum.Signals = append(sum.Signals, signal)
		}
	}

	return sum
}

// checkPrefixTables flags builds where classification cannot mark anything
func (s *Summarizer) checkPrefixTables(rules model.PrefixRules, total int) (model.Signal, bool) {
	if !rules.Empty() {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalEmptyPrefixTables,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Prefix tables are empty: all %d entries are not_required", total),
		Data: map[string]interface{}{
			"mandatory_prefixes":    0,
			"experimental_prefixes": 0,
		},
	}, true
}

func (s *Summarizer) checkEmpty(total int, stats *model.ParseStats) (model.Signal, bool) {
	if total > 0 {
		return model.Signal{}, false
	}
	data := map[string]interface{}{"entries": 0}
	if stats != nil {
		data["lines"] = stats.Lines
		data["candidates"] = stats.Candidates
	}
	return model.Signal{
		Type:        model.SignalNoEntries,
		Severity:    model.SeverityCritical,
		Description: "No entries extracted from the source",
		Data:        data,
	}, true
}

// checkDropped reports code cells that never got a description
func (s *Summarizer) checkDropped(stats *model.ParseStats) (model.Signal, bool) {
	dropped := stats.NoDescription + stats.EmptyDescription
	if stats.Candidates == 0 || dropped == 0 {
		return model.Signal{}, false
	}

	ratio := float64(dropped) / float64(stats.Candidates)
	severity := model.SeverityInfo
	if ratio >= droppedWarnRatio {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalDroppedCandidates,
		Severity:    severity,
		Description: fmt.Sprintf("Dropped %d of %d code cells without a description (%.1f%%)", dropped, stats.Candidates, ratio*100),
		Data: map[string]interface{}{
			"no_description":    stats.NoDescription,
			"empty_description": stats.EmptyDescription,
			"candidates":        stats.Candidates,
			"ratio":             ratio,
			"formula":           "(no_description + empty_description) / candidates",
		},
	}, true
}

func (s *Summarizer) checkDuplicates(stats *model.ParseStats) (model.Signal, bool) {
	if stats.Duplicates == 0 {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalDuplicates,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Discarded %d repeated codes, first occurrence kept", stats.Duplicates),
		Data: map[string]interface{}{
			"duplicates": stats.Duplicates,
		},
	}, true
}
