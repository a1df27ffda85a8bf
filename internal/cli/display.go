package cli

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nginly/nginx-analyze-ci/pkg/report"
)

// scoreBarWidth is the number of cells in a score bar.
const scoreBarWidth = 20

// renderJSON writes the analyzer result as indented JSON.
func renderJSON(w io.Writer, r *report.Result) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderText writes the human-readable result: run summary, issues, counts
// and scores.
func renderText(w io.Writer, r *report.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render("CI Analysis Summary:"))
	fmt.Fprintln(w, styleGray.Render(fmt.Sprintf("  Trees: %d", r.TreesAnalyzed)))
	fmt.Fprintln(w, styleGray.Render(fmt.Sprintf("  Files: %d", r.FilesAnalyzed)))
	fmt.Fprintln(w, styleGray.Render(fmt.Sprintf("  Successful: %d", r.SuccessCount)))
	if r.FailureCount > 0 {
		fmt.Fprintln(w, StyleError.Render(fmt.Sprintf("  Failed: %d", r.FailureCount)))
	}

	renderIssues(w, r.Issues)
	renderCounts(w, r)
	renderScores(w, r)
}

func renderIssues(w io.Writer, issues []report.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleBold.Render("📋 Issues Found:"))
	fmt.Fprintln(w)
	for _, issue := range issues {
		style := severityStyle(issue.Severity)
		fmt.Fprintln(w, style.Render(fmt.Sprintf("%s [%s] %s",
			severityIcon(issue.Severity), strings.ToUpper(string(issue.Severity)), issue.Message)))
		fmt.Fprintln(w, styleGray.Render("   "+formatLocation(issue.Location)))
		if issue.Suggestion != "" {
			fmt.Fprintln(w, StyleHighlight.Render("   💡 "+issue.Suggestion))
		}
		if len(issue.RelatedLocations) > 0 {
			fmt.Fprintln(w, styleGray.Render("   Related locations:"))
			for _, loc := range issue.RelatedLocations {
				fmt.Fprintln(w, styleGray.Render("   - "+formatLocation(loc)))
			}
		}
		fmt.Fprintln(w)
	}
}

func renderCounts(w io.Writer, r *report.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleBold.Render("📊 Summary:"))
	if r.ErrorCount > 0 {
		fmt.Fprintln(w, StyleError.Render(fmt.Sprintf("  ✗ %d %s", r.ErrorCount, plural(r.ErrorCount, "error"))))
	}
	if r.WarningCount > 0 {
		fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("  ⚠ %d %s", r.WarningCount, plural(r.WarningCount, "warning"))))
	}
	if r.InfoCount > 0 {
		fmt.Fprintln(w, styleHeading.Render(fmt.Sprintf("  ℹ %d info", r.InfoCount)))
	}
	if r.ErrorCount == 0 && r.WarningCount == 0 && r.InfoCount == 0 {
		fmt.Fprintln(w, StyleSuccess.Render("  ✓ No issues found"))
	}
}

func renderScores(w io.Writer, r *report.Result) {
	maxScore := formatScore(r.MaxPossibleScore)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleBold.Render("📈 Scores:"))
	fmt.Fprintln(w, scoreStyle(r.OverallScore).Render(fmt.Sprintf("  Overall Score: %s/%s %s",
		formatScore(r.OverallScore), maxScore, scoreBar(r.OverallScore))))

	fmt.Fprintln(w)
	fmt.Fprintln(w, styleGray.Render("  Category Scores:"))
	for _, cat := range slices.Sorted(maps.Keys(r.CategoryScores)) {
		score := r.CategoryScores[cat]
		fmt.Fprintln(w, scoreStyle(score).Render(fmt.Sprintf("    %-20s %3s/%s %s",
			cat, formatScore(score), maxScore, scoreBar(score))))
	}
}

// scoreBar draws score (0-100) as a bar of filled and empty cells.
func scoreBar(score float64) string {
	filled := int(math.Round(score / 100 * scoreBarWidth))
	filled = max(0, min(scoreBarWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", scoreBarWidth-filled)
}

func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 80:
		return StyleSuccess
	case score >= 60:
		return StyleWarning
	case score >= 40:
		return lipgloss.NewStyle().Foreground(colorOrange)
	default:
		return StyleError
	}
}

func severityIcon(s report.Severity) string {
	switch s {
	case report.SeverityError:
		return iconError
	case report.SeverityWarning:
		return iconWarning
	case report.SeverityInfo:
		return "ℹ"
	default:
		return "•"
	}
}

func severityStyle(s report.Severity) lipgloss.Style {
	switch s {
	case report.SeverityError:
		return StyleError
	case report.SeverityWarning:
		return StyleWarning
	case report.SeverityInfo:
		return styleHeading
	default:
		return styleGray
	}
}

func formatLocation(loc report.Location) string {
	file := loc.File
	if file == "" {
		file = "unknown"
	}
	return fmt.Sprintf("%s:%d:%d", file, loc.Start.Line, loc.Start.Column)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
