package matching

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"figfinder/internal/catalog"
	"figfinder/internal/inventory"
)

// Candidate pairs an assembly with its price record, if any.
type Candidate struct {
	Assembly catalog.Assembly
	Price    *catalog.PriceRecord
}

// Summary counts the reports in a Result.
type Summary struct {
	TotalChecked      int `json:"total_checked"`
	CompleteMatches   int `json:"complete_matches"`
	IncompleteMatches int `json:"incomplete_matches"`
	Omitted           int `json:"omitted"`
}

// Omission records an assembly that could not be checked.
type Omission struct {
	ID     string `json:"minifig_id"`
	Reason string `json:"reason"`
}

// Result is the output of one batch run.
type Result struct {
	RunID       string     `json:"run_id,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
	Summary     Summary    `json:"summary"`
	Complete    []Report   `json:"complete"`
	Incomplete  []Report   `json:"incomplete"`
	Omissions   []Omission `json:"omissions"`
}

// MatchAll matches every candidate independently and partitions the reports.
// Complete reports are ordered by descending estimated value with unknown
// values last; incomplete reports by descending match percentage. Ties fall
// back to ascending assembly id.
func (e *Engine) MatchAll(items []Candidate, inv *inventory.Multiset) Result {
	result := Result{
		GeneratedAt: e.now(),
		Complete:    []Report{},
		Incomplete:  []Report{},
		Omissions:   []Omission{},
	}
	for _, item := range items {
		report := e.Match(item.Assembly, inv, item.Price)
		if report.CanBuild {
			result.Complete = append(result.Complete, report)
		} else {
			result.Incomplete = append(result.Incomplete, report)
		}
	}

	sort.SliceStable(result.Complete, func(i, j int) bool {
		return lessByValue(result.Complete[i], result.Complete[j])
	})
	sort.SliceStable(result.Incomplete, func(i, j int) bool {
		a, b := result.Incomplete[i], result.Incomplete[j]
		if a.MatchPercentage != b.MatchPercentage {
			return a.MatchPercentage > b.MatchPercentage
		}
		return a.ID < b.ID
	})

	result.Summary = Summary{
		TotalChecked:      len(items),
		CompleteMatches:   len(result.Complete),
		IncompleteMatches: len(result.Incomplete),
	}
	return result
}

func lessByValue(a, b Report) bool {
	switch {
	case a.EstimatedValue != nil && b.EstimatedValue != nil:
		if cmp := a.EstimatedValue.Cmp(*b.EstimatedValue); cmp != 0 {
			return cmp > 0
		}
	case a.EstimatedValue != nil:
		return true
	case b.EstimatedValue != nil:
		return false
	}
	return a.ID < b.ID
}

// AddOmission records an assembly that was skipped.
func (r *Result) AddOmission(id, reason string) {
	r.Omissions = append(r.Omissions, Omission{ID: id, Reason: reason})
	r.Summary.Omitted = len(r.Omissions)
}

// Filter keeps incomplete reports at or above minPercentage and at most limit
// of them (limit <= 0 keeps all). Summary counts still describe the full run.
func (r Result) Filter(minPercentage float64, limit int) Result {
	kept := make([]Report, 0, len(r.Incomplete))
	for _, report := range r.Incomplete {
		if report.MatchPercentage < minPercentage {
			continue
		}
		kept = append(kept, report)
		if limit > 0 && len(kept) == limit {
			break
		}
	}
	r.Incomplete = kept
	return r
}

// WriteJSON writes the result as an indented JSON document.
func (r Result) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encode match result: %w", err)
	}
	return nil
}
