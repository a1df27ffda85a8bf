package report

import "fmt"

// Process exit codes.
const (
	ExitSuccess         = 0
	ExitWarning         = 1
	ExitErrorsFound     = 2
	ExitFailure         = 3
	ExitLicenseError    = 4
	ExitThresholdFailed = 5
)

// ExitCode applies the CI policy to r and returns the exit code with a
// one-line verdict. Checks run in order: a failed score threshold, an
// explicitly passed threshold, errors, then warnings.
func ExitCode(r *Result, strict bool) (int, string) {
	switch {
	case r.JobFailed:
		return ExitThresholdFailed, "✗ Analysis failed: score is below configured threshold"
	case r.HasThreshold:
		return ExitSuccess, "✓ Analysis passed: score meets configured threshold"
	case r.ErrorCount > 0:
		return ExitErrorsFound, fmt.Sprintf("✗ Analysis failed with %d error(s)", r.ErrorCount)
	case r.WarningCount > 0 && strict:
		return ExitWarning, fmt.Sprintf("⚠ Analysis completed with %d warning(s) (strict mode)", r.WarningCount)
	case r.WarningCount > 0:
		return ExitWarning, fmt.Sprintf("⚠ Analysis completed with %d warning(s)", r.WarningCount)
	default:
		return ExitSuccess, "✓ All configurations analyzed successfully"
	}
}

// ExitError carries a process exit code up to main.
// Err may be nil when the code is the whole story.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
