package output

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ReportSink writes a Markdown summary of the run on Close.
type ReportSink struct {
	path    string
	file    *os.File
	mu      sync.Mutex
	summary *Summary
	done    bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := createFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path:    path,
		file:    f,
		summary: newSummary(),
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := v.(Event); ok && e.Type == EventRunFinished {
		s.done = true
	}
	s.summary.observe(v)
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.file.WriteString(renderReport(s.summary, s.done))
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func renderReport(sum *Summary, done bool) string {
	var b strings.Builder
	b.WriteString("# Build Breaker Report\n\n")

	status := sum.Status
	if !done || status == "" {
		status = "INCOMPLETE"
	}
	warnings, errs := sum.Counts()

	fmt.Fprintf(&b, "**Status:** %s  \n", status)
	if done {
		fmt.Fprintf(&b, "**Exit code:** %d\n\n", sum.ExitCode)
	} else {
		b.WriteString("\n")
	}

	if status == "SKIPPED" {
		b.WriteString("Alert evaluation was disabled for this run.\n")
		return b.String()
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Measures | Warnings | Errors |\n")
	b.WriteString("|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d |\n\n", sum.Measures, warnings, errs)

	b.WriteString("## Alerts\n\n")
	if len(sum.Alerts) == 0 {
		b.WriteString("_No alerts._\n")
		return b.String()
	}
	b.WriteString("| Level | Metric | Message |\n")
	b.WriteString("|---|---|---|\n")
	for _, a := range sum.Alerts {
		fmt.Fprintf(&b, "| %s | `%s` | %s |\n", a.Level, a.Metric, escapeCell(a.Message))
	}

	if len(sum.Messages) > 0 {
		b.WriteString("\n## Failure\n\n")
		for _, m := range sum.Messages {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
