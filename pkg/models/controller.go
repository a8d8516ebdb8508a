package models

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoControllers is returned when a report is requested for zero records.
// The aggregate average is undefined in that case.
var ErrNoControllers = errors.New("no controllers found")

// Record holds the structural counts of one controller class.
type Record struct {
	Name         string `json:"name" yaml:"name"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	Dependencies int    `json:"dependencies" yaml:"dependencies"`
	Streams      int    `json:"rx_streams" yaml:"rx_streams"`
}

// Complexity returns the floor-adjusted product of streams and dependencies.
func (r Record) Complexity() int {
	return Score(r.Dependencies, r.Streams)
}

// Score combines the two counts: max(streams,1) * max(dependencies,1).
// The result is always at least 1.
func Score(dependencies, streams int) int {
	return max(streams, 1) * max(dependencies, 1)
}

// ScoredRecord is a Record with its complexity materialized for serialization.
type ScoredRecord struct {
	Name         string `json:"name" yaml:"name"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	Dependencies int    `json:"dependencies" yaml:"dependencies"`
	Streams      int    `json:"rx_streams" yaml:"rx_streams"`
	Complexity   int    `json:"complexity" yaml:"complexity"`
}

// ReportSummary holds aggregate statistics over all records.
type ReportSummary struct {
	Controllers       int     `json:"controllers" yaml:"controllers"`
	TotalDependencies int     `json:"total_dependencies" yaml:"total_dependencies"`
	TotalStreams      int     `json:"total_rx_streams" yaml:"total_rx_streams"`
	OverallComplexity float64 `json:"overall_complexity" yaml:"overall_complexity"`
	MedianComplexity  float64 `json:"median_complexity" yaml:"median_complexity"`
	MaxComplexity     int     `json:"max_complexity" yaml:"max_complexity"`
}

// Report is the ordered set of records plus aggregates.
type Report struct {
	Records []ScoredRecord `json:"records" yaml:"records"`
	Summary ReportSummary  `json:"summary" yaml:"summary"`
}

// NewReport sorts records by descending complexity, keeping input order
// among equal scores, and computes the aggregate statistics.
func NewReport(records []Record) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrNoControllers
	}

	scored := make([]ScoredRecord, len(records))
	for i, r := range records {
		scored[i] = ScoredRecord{
			Name:         r.Name,
			Path:         r.Path,
			Dependencies: r.Dependencies,
			Streams:      r.Streams,
			Complexity:   r.Complexity(),
		}
	}
	slices.SortStableFunc(scored, func(a, b ScoredRecord) int {
		return b.Complexity - a.Complexity
	})

	values := make([]float64, len(scored))
	summary := ReportSummary{Controllers: len(scored)}
	for i, r := range scored {
		values[i] = float64(r.Complexity)
		summary.TotalDependencies += r.Dependencies
		summary.TotalStreams += r.Streams
	}

	summary.OverallComplexity = stat.Mean(values, nil)
	summary.MaxComplexity = int(floats.Max(values))

	// stat.Quantile needs ascending input.
	slices.Reverse(values)
	summary.MedianComplexity = stat.Quantile(0.5, stat.Empirical, values, nil)

	return &Report{Records: scored, Summary: summary}, nil
}

// OverallComplexity returns sum(complexity)/count.
func (r *Report) OverallComplexity() float64 {
	return r.Summary.OverallComplexity
}
