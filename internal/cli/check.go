package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mjdetullio/sonar-build-breaker/internal/config"
	"github.com/mjdetullio/sonar-build-breaker/internal/engine"
	"github.com/mjdetullio/sonar-build-breaker/internal/flags"

	"github.com/spf13/cobra"
)

var cfg = config.New()

const checkHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  BUILDBREAKER_SKIP
    Disables the evaluation when set to a true value (1, t, true).
    An explicit --skip flag takes precedence; the environment takes
    precedence over the --config file.

  GITHUB_TOKEN, GH_TOKEN
    Only needed with --github-status. Sources (in order):
    1) GITHUB_TOKEN environment variable
    2) GH_TOKEN environment variable
    3) GitHub CLI (gh) authentication via gh auth token
    The token needs permission to write commit statuses
    (repo:status for classic PATs, Commit statuses: Read and write for
    fine-grained PATs).

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

const checkLong = `Evaluate quality gate alerts and break the build on ERROR.

Every measure in the --measures files is examined in order:
	- ERROR alerts are logged with the [BUILD BREAKER] tag and fail the build
	- WARN alerts are logged and never fail the build
	- the aggregate "alert_status" measure is ignored

Measures files are YAML or JSON: either a list of measures or a mapping with a
"measures" key. Each measure has a "metric", an optional "alert" level
(OK, WARN, ERROR) and an optional "text" message.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON summary or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown report
	- --metrics-out: write a Prometheus textfile with the outcome
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line with a "type" field
	(run.started, alert, run.finished).

Exit codes:
	0 = gate passed (warnings allowed) or evaluation skipped
	1 = gate violated (at least one ERROR alert)
	2 = partial failure (gate passed but status, metrics or output failed)
	3 = fatal error (evaluation did not run)

Examples:
	buildbreaker check --measures measures.yaml

	# Read measures from stdin and publish a commit status
	fetch-measures | buildbreaker check --measures - --github-status acme/widgets@$GIT_SHA

	# Disable the check for one pipeline run
	BUILDBREAKER_SKIP=true buildbreaker check --measures measures.yaml
`

// checkOptions holds inputs of the check command that are not part of Config.
type checkOptions struct {
	configPath string
	lookupEnv  func(string) (string, bool)
}

var checkOpts = checkOptions{lookupEnv: os.LookupEnv}

var checkCmd = newCheckCmd(cfg, &checkOpts)

func newCheckCmd(c *config.Config, opts *checkOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate quality gate alerts from measures files",
		Long:  checkLong,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runCheck(cmd, c, *opts))
		},
	}
	cmd.SetHelpTemplate(checkHelpTemplate)

	// MAINTAINER NOTE: If you add/change/remove flags here, keep
	// config.File and config.File.Merge in sync.

	// Evaluation
	cmd.Flags().BoolVar(&c.Breaker.Skip, flags.FlagSkip, false, "Disable the evaluation entirely (also BUILDBREAKER_SKIP)")
	cmd.Flags().StringSliceVar(&c.Input.Measures, flags.FlagMeasures, nil, "Measures file(s) to evaluate; \"-\" reads stdin (repeatable; comma-separated accepted)")
	cmd.Flags().StringVar(&opts.configPath, flags.FlagConfig, "", "YAML settings file; explicit flags take precedence")

	// Output
	cmd.Flags().StringVar(&c.Output.ConsoleFormat, flags.FlagConsoleFormat, c.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	cmd.Flags().StringSliceVar(&c.Output.ConsoleFilterLevel, flags.FlagConsoleFilterLevel, nil, "Filter console alerts by level (WARN, ERROR). Comma-separated.")
	cmd.Flags().StringVar(&c.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().StringVar(&c.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	cmd.Flags().StringVar(&c.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().StringSliceVar(&c.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	cmd.Flags().BoolVar(&c.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
	cmd.Flags().StringVar(&c.Output.MetricsOut, flags.FlagMetricsOut, "", "Write a Prometheus textfile with the outcome to this path")

	// GitHub
	cmd.Flags().StringVar(&c.GitHub.Status, flags.FlagGitHubStatus, "", "Publish the verdict as a commit status on OWNER/REPO@SHA")
	cmd.Flags().StringVar(&c.GitHub.Context, flags.FlagGitHubContext, c.GitHub.Context, "Commit status context for --github-status")
	cmd.Flags().StringVar(&c.GitHub.APIURL, flags.FlagGitHubAPIURL, "", "GitHub Enterprise Server API URL, e.g. https://ghe.example.com/api/v3/")

	// Runtime
	cmd.Flags().DurationVar(&c.Runtime.Timeout, flags.FlagTimeout, c.Runtime.Timeout, "Timeout for loading measures and publishing status")

	return cmd
}

// resolveConfig layers the settings file, the environment and explicit flags
// (lowest to highest precedence) into c and validates the result.
func resolveConfig(cmd *cobra.Command, c *config.Config, opts checkOptions) error {
	if opts.configPath != "" {
		f, err := config.LoadFile(opts.configPath)
		if err != nil {
			return err
		}
		f.Merge(c, cmd.Flags().Changed)
	}
	if !cmd.Flags().Changed(flags.FlagSkip) {
		if err := c.ApplyEnv(opts.lookupEnv); err != nil {
			return err
		}
	}
	return c.Validate()
}

func runCheck(cmd *cobra.Command, c *config.Config, opts checkOptions) int {
	stderr := cmd.ErrOrStderr()
	if err := resolveConfig(cmd, c, opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return engine.ExitFatal
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng := engine.NewEngine(newLogger(stderr, c.Runtime.Verbose))
	eng.Stdin = cmd.InOrStdin()
	eng.Stdout = cmd.OutOrStdout()
	eng.Stderr = stderr
	return eng.Run(ctx, c)
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
