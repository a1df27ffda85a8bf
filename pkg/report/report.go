// Package report models analyzer results and turns them into process exit
// codes.
//
// The analyzer returns one [Result] per batch. [Merge] folds several into
// one so multi-batch runs are reported (and gated) like single-batch runs,
// and [ExitCode] applies the CI exit policy.
package report

import (
	"encoding/json"
	"math"
)

// Severity of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location points into a file of the analyzed payload.
type Location struct {
	File  string    `json:"file"`
	Start Position  `json:"start"`
	End   *Position `json:"end,omitempty"`
}

// Issue is one finding reported by the analyzer.
type Issue struct {
	Code             string     `json:"code"`
	Severity         Severity   `json:"severity"`
	Message          string     `json:"message"`
	Location         Location   `json:"location"`
	Suggestion       string     `json:"suggestion,omitempty"`
	RelatedLocations []Location `json:"relatedLocations,omitempty"`
}

// Result is the analyzer's response.
type Result struct {
	Issues           []Issue            `json:"issues"`
	ErrorCount       int                `json:"errorCount"`
	WarningCount     int                `json:"warningCount"`
	InfoCount        int                `json:"infoCount"`
	OverallScore     float64            `json:"overallScore"`
	CategoryScores   map[string]float64 `json:"categoryScores"`
	MaxPossibleScore float64            `json:"maxPossibleScore"`
	TreesAnalyzed    int                `json:"treesAnalyzed"`
	FilesAnalyzed    int                `json:"filesAnalyzed"`
	SuccessCount     int                `json:"successCount"`
	FailureCount     int                `json:"failureCount"`
	JobFailed        bool               `json:"jobFailed"`
	HasThreshold     bool               `json:"hasThreshold"`

	// Raw is the response exactly as received, including fields this
	// package does not model. It is nil for merged results.
	Raw map[string]any `json:"-"`
}

// Parse decodes an analyzer response body.
func Parse(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &r.Raw); err != nil {
		return nil, err
	}
	return &r, nil
}

// JSON returns the result indented for display: the raw response when
// available, otherwise the modeled fields.
func (r *Result) JSON() ([]byte, error) {
	if r.Raw != nil {
		return json.MarshalIndent(r.Raw, "", "  ")
	}
	return json.MarshalIndent(r, "", "  ")
}

// Merge combines per-batch results. Counts and issues add up, threshold
// flags are OR-ed, scores take the worst batch and the maximum possible
// score the largest. A single result is returned unchanged.
func Merge(results ...*Result) *Result {
	var in []*Result
	for _, r := range results {
		if r != nil {
			in = append(in, r)
		}
	}
	switch len(in) {
	case 0:
		return &Result{}
	case 1:
		return in[0]
	}

	out := &Result{OverallScore: math.Inf(1)}
	for _, r := range in {
		out.Issues = append(out.Issues, r.Issues...)
		out.ErrorCount += r.ErrorCount
		out.WarningCount += r.WarningCount
		out.InfoCount += r.InfoCount
		out.TreesAnalyzed += r.TreesAnalyzed
		out.FilesAnalyzed += r.FilesAnalyzed
		out.SuccessCount += r.SuccessCount
		out.FailureCount += r.FailureCount
		out.JobFailed = out.JobFailed || r.JobFailed
		out.HasThreshold = out.HasThreshold || r.HasThreshold
		out.OverallScore = math.Min(out.OverallScore, r.OverallScore)
		out.MaxPossibleScore = math.Max(out.MaxPossibleScore, r.MaxPossibleScore)
		for cat, score := range r.CategoryScores {
			if out.CategoryScores == nil {
				out.CategoryScores = make(map[string]float64)
			}
			if cur, ok := out.CategoryScores[cat]; !ok || score < cur {
				out.CategoryScores[cat] = score
			}
		}
	}
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	return out
}
