package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mjdetullio/sonar-build-breaker/internal/promfile"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics FILE",
	Short: "Summarize a metrics textfile written by check --metrics-out",
	Long: `Summarize a Prometheus textfile written by check --metrics-out.

FILE may be "-" to read standard input.

Examples:
	buildbreaker metrics /var/lib/node_exporter/buildbreaker.prom`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome, err := readOutcome(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		return writeOutcome(cmd.OutOrStdout(), outcome)
	},
}

func readOutcome(path string, stdin io.Reader) (promfile.Outcome, error) {
	if path == "-" {
		return promfile.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return promfile.Outcome{}, fmt.Errorf("open metrics file: %w", err)
	}
	defer f.Close()

	outcome, err := promfile.Decode(f)
	if err != nil {
		return promfile.Outcome{}, fmt.Errorf("%s: %w", path, err)
	}
	return outcome, nil
}

func writeOutcome(w io.Writer, o promfile.Outcome) error {
	var status string
	var c *color.Color
	switch {
	case o.Skipped:
		status, c = "SKIPPED", color.New(color.Faint)
	case o.Passed:
		status, c = "PASSED", color.New(color.FgGreen, color.Bold)
	default:
		status, c = "FAILED", color.New(color.FgRed, color.Bold)
	}

	if _, err := fmt.Fprint(w, "status:    "); err != nil {
		return err
	}
	if _, err := c.Fprintln(w, status); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "errors:    %d\nwarnings:  %d\nexit code: %d\n", o.Errors, o.Warnings, o.ExitCode)
	return err
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
