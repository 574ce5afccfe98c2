package testrunner

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/goccy/go-yaml"
)

// FailingExample identifies one failure within a category.
type FailingExample struct {
	Index  int    `json:"index" yaml:"index"`
	Title  string `json:"title" yaml:"title"`
	Reason string `json:"reason" yaml:"reason"`
}

// CategorySummary aggregates one category over the whole run. Skipped checks
// are not part of Total.
type CategorySummary struct {
	Category Category         `json:"category" yaml:"category"`
	Total    int              `json:"total" yaml:"total"`
	Passed   int              `json:"passed" yaml:"passed"`
	Skipped  int              `json:"skipped" yaml:"skipped"`
	Failing  []FailingExample `json:"failing" yaml:"failing"`
	// Rate is the success percentage rounded to one decimal place.
	Rate float64 `json:"rate" yaml:"rate"`
}

// FailingIndices returns the 1-based indices of failing examples in order.
func (s *CategorySummary) FailingIndices() []int {
	indices := make([]int, len(s.Failing))
	for i, f := range s.Failing {
		indices[i] = f.Index
	}

	return indices
}

// Report is the result of one harness run. Name is left for the caller, usually
// the corpus name.
type Report struct {
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Total      int               `json:"total" yaml:"total"`
	Categories []CategorySummary `json:"categories" yaml:"categories"`
	Examples   []ExampleResult   `json:"examples" yaml:"examples"`
	Duration   time.Duration     `json:"duration" yaml:"duration"`
}

func newReport(results []ExampleResult) *Report {
	report := &Report{
		Total:    len(results),
		Examples: results,
	}

	for _, category := range Categories {
		summary, present := summarize(category, results)
		if !present && category == Semantic {
			continue
		}

		report.Categories = append(report.Categories, summary)
	}

	return report
}

func summarize(category Category, results []ExampleResult) (CategorySummary, bool) {
	summary := CategorySummary{Category: category, Failing: []FailingExample{}}
	present := false

	for _, result := range results {
		check, ok := result.Checks[category]
		if !ok {
			continue
		}

		present = true

		if check.Skipped {
			summary.Skipped++
			continue
		}

		summary.Total++

		if check.Passed {
			summary.Passed++
		} else {
			summary.Failing = append(summary.Failing, FailingExample{
				Index:  result.Index,
				Title:  result.Title,
				Reason: check.Reason,
			})
		}
	}

	summary.Rate = Rate(summary.Passed, summary.Total)

	return summary, present
}

// Rate returns passed/total as a percentage rounded to one decimal place, 0
// for an empty total.
func Rate(passed, total int) float64 {
	if total == 0 {
		return 0
	}

	return math.Round(float64(passed)/float64(total)*1000) / 10
}

// Summary returns the aggregate of one category.
func (r *Report) Summary(category Category) (CategorySummary, bool) {
	for _, summary := range r.Categories {
		if summary.Category == category {
			return summary, true
		}
	}

	return CategorySummary{}, false
}

// FailedExamples counts examples with at least one failing check.
func (r *Report) FailedExamples() int {
	count := 0

	for i := range r.Examples {
		if r.Examples[i].Failed() {
			count++
		}
	}

	return count
}

// Passed reports whether every check passed or was skipped.
func (r *Report) Passed() bool {
	return r.FailedExamples() == 0
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return nil
}

// WriteYAML writes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = w.Write(data)

	return err
}
