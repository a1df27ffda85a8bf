package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nginly/nginx-analyze-ci/pkg/analyzer"
	"github.com/nginly/nginx-analyze-ci/pkg/config"
	"github.com/nginly/nginx-analyze-ci/pkg/errors"
	"github.com/nginly/nginx-analyze-ci/pkg/pipeline"
	"github.com/nginly/nginx-analyze-ci/pkg/report"
)

// User-facing messages of the analyze command.
const (
	msgMissingKey   = "Missing API key. Set --key or " + config.EnvToken
	msgQuotaSkipped = "Analysis skipped. Job passed with --allow-quota-exceeded."
	msgNoConfigs    = "No nginx configuration files found"
	msgFailed       = "✗ CI analysis failed"
)

// resultOut receives the analysis result; status lines use out.
var resultOut io.Writer = os.Stdout

// analyzeFlags holds the command-line flags of the analyze (root) command.
// Flags override the config file and environment only when set.
type analyzeFlags struct {
	strict        bool
	format        string
	pattern       string
	exclude       []string
	key           string
	environment   string
	allowQuota    bool
	maxBatchBytes int
	timeout       time.Duration
	cache         bool
	noCompress    bool
	dryRun        bool
}

// analyzeCommand creates the root command, which runs the CI analysis.
func (c *CLI) analyzeCommand() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   appName + " [directory]",
		Short: "CI client: discover nginx configs and send them to the analysis server",
		Long: `Discover nginx configuration files under a directory, group them into
independent configuration trees by following include directives, and send
the trees to the analysis server.

The exit code reflects the result: 0 success, 1 warnings, 2 errors,
3 unexpected failure, 4 key, quota or server problem, 5 score threshold failed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, dirArg(args), &flags)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&flags.strict, "strict", "s", false, "fail on warnings")
	f.StringVar(&flags.format, "format", config.FormatText, "output format: text, json")
	f.StringVar(&flags.pattern, "pattern", "", "custom search pattern for nginx files")
	f.StringSliceVar(&flags.exclude, "exclude", nil, "additional exclude pattern (repeatable)")
	f.StringVar(&flags.key, "key", "", "API key (or "+config.EnvToken+")")
	f.StringVar(&flags.environment, "environment", "", "environment name e.g. production, dev, pre (or "+config.EnvEnvironment+")")
	f.BoolVar(&flags.allowQuota, "allow-quota-exceeded", false, "pass with a warning when the usage limit is exceeded (402)")
	f.IntVar(&flags.maxBatchBytes, "max-batch-bytes", 0, "maximum request size per batch (default 1536000)")
	f.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout (default 2m0s)")
	f.BoolVar(&flags.cache, "cache", false, "reuse cached analyzer responses")
	f.BoolVar(&flags.noCompress, "no-compress", false, "send uncompressed request bodies")
	f.BoolVar(&flags.dryRun, "dry-run", false, "discover and batch, but send nothing")

	return cmd
}

// apply overrides cfg with the flags the user set.
func (f *analyzeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("strict") {
		cfg.Strict = f.strict
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if f.pattern != "" {
		cfg.Pattern = f.pattern
	}
	cfg.Exclude = append(cfg.Exclude, f.exclude...)
	if f.key != "" {
		cfg.Key = f.key
	}
	if f.environment != "" {
		cfg.Environment = f.environment
	}
	if changed("allow-quota-exceeded") {
		cfg.AllowQuotaExceeded = f.allowQuota
	}
	if changed("max-batch-bytes") {
		cfg.MaxBatchBytes = f.maxBatchBytes
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("cache") {
		cfg.Cache.Enabled = f.cache
	}
	if f.noCompress {
		cfg.Compress = false
	}
}

func (c *CLI) runAnalyze(cmd *cobra.Command, dir string, flags *analyzeFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig(dir)
	if err != nil {
		return failure(err)
	}
	flags.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return failure(err)
	}
	if cfg.Format == config.FormatJSON {
		defer redirectStatus(errOut)()
	}

	if !flags.dryRun && strings.TrimSpace(cfg.Key) == "" {
		printError(msgMissingKey)
		return &report.ExitError{Code: report.ExitLicenseError}
	}

	c.logDiscoveryStart(dir, cfg)

	runner, err := c.newRunner(ctx, cfg, cfg.Key)
	if err != nil {
		return failure(err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Dir:           dir,
		Pattern:       cfg.Pattern,
		Exclude:       cfg.Exclude,
		Workers:       cfg.Workers,
		MaxBatchBytes: cfg.MaxBatchBytes,
		ServerURL:     cfg.AnalyzeURL(),
		Key:           cfg.Key,
		Environment:   cfg.Environment,
		Strict:        cfg.Strict,
		Timeout:       cfg.Timeout,
		Compress:      cfg.Compress,
		CacheTTL:      cfg.Cache.TTL,
		DryRun:        flags.dryRun,
		Logger:        logger,
	}

	prog := newProgress(logger)
	d, err := runner.Discover(ctx, opts)
	if err != nil {
		return failure(err)
	}
	if len(d.Trees) == 0 {
		printNewline()
		printWarning(msgNoConfigs)
		return nil
	}
	c.logTreesFound(d)

	plan := runner.Plan(ctx, d, opts)
	c.logSending(plan)

	if flags.dryRun {
		return printDryRun(plan, cfg.Format)
	}

	spin := c.startSpinner(ctx, cfg, len(plan.Batches))
	res, err := runner.Analyze(ctx, plan, opts)
	spin.Stop()
	if err != nil {
		return analyzerFailure(err, cfg.AllowQuotaExceeded)
	}
	prog.done("Analysis finished")

	if cfg.Format == config.FormatJSON {
		if err := renderJSON(resultOut, res); err != nil {
			return failure(err)
		}
	} else {
		renderText(resultOut, res)
	}

	code, msg := report.ExitCode(res, cfg.Strict)
	printNewline()
	printVerdict(code, msg)
	if code != report.ExitSuccess {
		return &report.ExitError{Code: code}
	}
	return nil
}

// =============================================================================
// Status Lines
// =============================================================================

func (c *CLI) logDiscoveryStart(dir string, cfg config.Config) {
	printHeading("CI client: discovering nginx configurations...")
	printDetail("Directory: %s", dir)
	if c.verbose {
		printDetail("Server: %s", cfg.AnalyzeURL())
	}
	if cfg.Strict {
		printDetail("Mode: strict")
	}
	if cfg.AllowQuotaExceeded {
		printDetail("Mode: allow-quota-exceeded")
	}
}

func (c *CLI) logTreesFound(d *pipeline.Discovery) {
	printNewline()
	printSuccess("Found %d file(s) in %d tree(s)", d.FileCount(), len(d.Trees))
	if !c.verbose {
		return
	}
	for i, t := range d.Trees {
		fmt.Fprintln(out, StyleHighlight.Render(fmt.Sprintf("  Tree %d: %d file(s)", i+1, len(t.AllFiles))))
	}
}

func (c *CLI) logSending(plan pipeline.Plan) {
	if !c.verbose {
		return
	}
	printDetail("Sending %d tree(s), %d file(s) to server", len(plan.Payload.Trees), len(plan.Payload.Files))
	if n := len(plan.Payload.SSLFiles); n > 0 {
		printDetail("Found %d SSL certificate reference(s)", n)
	}
	if n := len(plan.Batches); n > 1 {
		printDetail("Split into %d batches", n)
	}
}

func printVerdict(code int, msg string) {
	switch code {
	case report.ExitSuccess:
		fmt.Fprintln(out, StyleSuccess.Render(msg))
	case report.ExitWarning:
		fmt.Fprintln(out, StyleWarning.Render(msg))
	default:
		fmt.Fprintln(out, StyleError.Render(msg))
	}
}

func printDryRun(plan pipeline.Plan, format string) error {
	if format == config.FormatJSON {
		data, err := json.MarshalIndent(plan.Batches, "", "  ")
		if err != nil {
			return failure(err)
		}
		fmt.Fprintln(resultOut, string(data))
		return nil
	}
	printNewline()
	printInfo("Dry run: %d batch(es) planned, nothing sent", len(plan.Batches))
	for i, b := range plan.Batches {
		printKeyValue(fmt.Sprintf("Batch %d", i+1),
			fmt.Sprintf("%d tree(s), %d file(s), %d SSL reference(s)", len(b.Trees), len(b.Files), len(b.SSLFiles)))
	}
	return nil
}

// startSpinner shows progress on interactive terminals. The returned
// spinner is always safe to Stop.
func (c *CLI) startSpinner(ctx context.Context, cfg config.Config, batches int) *Spinner {
	msg := "Analyzing..."
	if batches > 1 {
		msg = fmt.Sprintf("Analyzing %d batches...", batches)
	}
	s := newSpinnerWithContext(ctx, msg)
	if c.verbose || cfg.Format != config.FormatText || !isatty.IsTerminal(os.Stderr.Fd()) {
		return s
	}
	s.Start()
	return s
}

// =============================================================================
// Failures
// =============================================================================

// failure reports an unexpected error and maps it to ExitFailure.
func failure(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(errOut)
	printError(msgFailed)
	fmt.Fprintln(errOut, StyleDim.Render(errors.UserMessage(err)))
	return &report.ExitError{Code: report.ExitFailure, Err: err}
}

// analyzerFailure maps an analyzer error to its exit code. A quota error is
// downgraded to a warning when allowQuota is set.
func analyzerFailure(err error, allowQuota bool) error {
	var quota *analyzer.QuotaExceededError
	if stderrors.As(err, &quota) && allowQuota {
		printNewline()
		printWarning("%s %s %s", iconWarning, quota.Error(), msgQuotaSkipped)
		return nil
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeUnauthorized, errors.ErrCodeQuotaExceeded, errors.ErrCodeServer,
		errors.ErrCodeInvalidResponse, errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		printError("%s", errors.UserMessage(err))
		return &report.ExitError{Code: report.ExitLicenseError, Err: err}
	}
	return failure(err)
}

// =============================================================================
// Helpers
// =============================================================================

// redirectStatus sends status lines to w until the returned func is called.
func redirectStatus(w io.Writer) (restore func()) {
	prev := out
	out = w
	return func() { out = prev }
}

func dirArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
