package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// settings file merge. Keeping these as constants helps avoid drift between
// Cobra flag wiring and config.File.Merge, which needs to know whether a flag
// was given explicitly.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().BoolVar(&cfg.Breaker.Skip, flags.FlagSkip, false, "...")
//	arg := "--" + flags.FlagSkip
const (
	// Evaluation
	FlagSkip     = "skip"
	FlagMeasures = "measures"
	FlagConfig   = "config"

	// Output
	FlagConsoleFormat      = "console-format"
	FlagConsoleFilterLevel = "console-filter-level"
	FlagReport             = "report"
	FlagOut                = "out"
	FlagOutFormat          = "out-format"
	FlagEmit               = "emit"
	FlagNoConsole          = "no-console"
	FlagMetricsOut         = "metrics-out"

	// GitHub
	FlagGitHubStatus  = "github-status"
	FlagGitHubContext = "github-context"
	FlagGitHubAPIURL  = "github-api-url"

	// Runtime
	FlagTimeout = "timeout"
	FlagVerbose = "verbose"
)
