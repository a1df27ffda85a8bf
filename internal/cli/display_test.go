package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nginly/nginx-analyze-ci/pkg/report"
)

func TestScoreBar(t *testing.T) {
	tests := []struct {
		score  float64
		filled int
	}{
		{0, 0},
		{100, 20},
		{50, 10},
		{72, 14},
		{73, 15},
		{120, 20},
		{-5, 0},
	}
	for _, tt := range tests {
		bar := scoreBar(tt.score)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("scoreBar(%v) filled = %d, want %d", tt.score, got, tt.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != scoreBarWidth {
			t.Errorf("scoreBar(%v) width = %d", tt.score, got)
		}
	}
}

func TestRenderText(t *testing.T) {
	r := &report.Result{
		Issues: []report.Issue{
			{
				Severity:   report.SeverityError,
				Message:    "ssl_protocols allows TLSv1",
				Location:   report.Location{File: "nginx.conf", Start: report.Position{Line: 4, Column: 5}},
				Suggestion: "use TLSv1.2 and TLSv1.3 only",
				RelatedLocations: []report.Location{
					{File: "conf.d/a.conf", Start: report.Position{Line: 1, Column: 1}},
				},
			},
			{Severity: "notice", Message: "odd"},
		},
		ErrorCount:       1,
		OverallScore:     55.5,
		MaxPossibleScore: 100,
		CategoryScores:   map[string]float64{"security": 40, "performance": 90},
		TreesAnalyzed:    1,
		FilesAnalyzed:    2,
		SuccessCount:     1,
		FailureCount:     1,
	}

	var buf bytes.Buffer
	renderText(&buf, r)
	got := buf.String()

	for _, want := range []string{
		"CI Analysis Summary:",
		"  Trees: 1",
		"  Files: 2",
		"  Successful: 1",
		"  Failed: 1",
		"📋 Issues Found:",
		"✗ [ERROR] ssl_protocols allows TLSv1",
		"   nginx.conf:4:5",
		"   💡 use TLSv1.2 and TLSv1.3 only",
		"   Related locations:",
		"   - conf.d/a.conf:1:1",
		"• [NOTICE] odd",
		"   unknown:0:0",
		"📊 Summary:",
		"  ✗ 1 error",
		"📈 Scores:",
		"  Overall Score: 55.5/100 ",
		"  Category Scores:",
		"    performance           90/100 ",
		"    security              40/100 ",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "performance") > strings.Index(got, "security") {
		t.Error("categories should be sorted")
	}
}

func TestRenderTextNoIssues(t *testing.T) {
	var buf bytes.Buffer
	renderText(&buf, &report.Result{OverallScore: 100, MaxPossibleScore: 100})
	got := buf.String()
	if strings.Contains(got, "Issues Found") {
		t.Error("no issues section expected")
	}
	if !strings.Contains(got, "✓ No issues found") {
		t.Errorf("output = %s", got)
	}
	if strings.Contains(got, "Failed:") {
		t.Error("Failed line is only shown for failures")
	}
}

func TestRenderCountsPlural(t *testing.T) {
	var buf bytes.Buffer
	renderCounts(&buf, &report.Result{ErrorCount: 2, WarningCount: 1, InfoCount: 3})
	for _, want := range []string{"✗ 2 errors", "⚠ 1 warning", "ℹ 3 info"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
