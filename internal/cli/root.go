package cli

import (
	"fmt"
	"os"

	"github.com/mjdetullio/sonar-build-breaker/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "buildbreaker",
	Short: "Fail a build when quality gate alerts reach ERROR",
	Long: `buildbreaker evaluates the alert levels of a project's quality measures and
breaks the build when any measure is in the ERROR state.

WARN alerts are reported but never fail the build. The aggregate
"alert_status" measure is always ignored; only individual measures count.

Examples:
	# Show available commands and global flags
	buildbreaker --help

	# Evaluate a measures file
	buildbreaker check --measures measures.yaml

	# Summarize a metrics textfile written by --metrics-out
	buildbreaker metrics buildbreaker.prom

	# Print build info
	buildbreaker version`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (debug messages and every GitHub API call)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
