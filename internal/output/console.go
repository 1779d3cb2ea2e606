package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type ConsoleSink struct {
	writer        io.Writer
	format        string // "text", "json", "ndjson"
	mu            sync.Mutex
	summary       *Summary // For JSON output
	allowedLevels map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterLevels []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer:  w,
		format:  format,
		summary: newSummary(),
	}

	if len(filterLevels) > 0 {
		s.allowedLevels = make(map[string]bool)
		for _, lvl := range filterLevels {
			s.allowedLevels[strings.ToUpper(lvl)] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) filtered(v any) bool {
	if len(s.allowedLevels) == 0 {
		return false
	}
	switch t := v.(type) {
	case Alert:
		return !s.allowedLevels[t.Level]
	case Event:
		return t.Alert != nil && !s.allowedLevels[t.Alert.Level]
	}
	return false
}

func (s *ConsoleSink) writeLocked(v any) error {
	if s.filtered(v) {
		return nil
	}

	switch s.format {
	case "json":
		s.summary.observe(v)
		return nil
	case "ndjson":
		return writeNDJSON(s.writer, v)
	case "text":
		switch t := v.(type) {
		case Alert:
			if err := writeAlertLine(s.writer, t); err != nil {
				return err
			}
		case Event:
			if t.Type == EventAlert && t.Alert != nil {
				if err := writeAlertLine(s.writer, *t.Alert); err != nil {
					return err
				}
			} else if t.Type == EventRunFinished {
				if err := writeVerdictLine(s.writer, t); err != nil {
					return err
				}
			}
		default:
			return nil
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func levelColor(level string) *color.Color {
	switch level {
	case "ERROR":
		return color.New(color.FgRed, color.Bold)
	case "WARN":
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}

func writeAlertLine(w io.Writer, a Alert) error {
	if _, err := levelColor(a.Level).Fprintf(w, "[%s]", a.Level); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, " %s", a.Metric); err != nil {
		return err
	}
	if a.Message != "" {
		if _, err := fmt.Fprintf(w, " - %s", a.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeVerdictLine(w io.Writer, e Event) error {
	var c *color.Color
	switch e.Status {
	case "FAILED":
		c = color.New(color.FgRed, color.Bold)
	case "PASSED":
		c = color.New(color.FgGreen, color.Bold)
	default:
		c = color.New(color.Faint)
	}
	if _, err := c.Fprintf(w, "BUILD BREAKER: %s", e.Status); err != nil {
		return err
	}
	var detail string
	if e.Status == "SKIPPED" {
		detail = " (evaluation disabled)"
	} else {
		detail = fmt.Sprintf(" (%s, %s)", plural(e.Errors, "error"), plural(e.Warnings, "warning"))
	}
	_, err := fmt.Fprintln(w, detail)
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		return writeSummary(s.writer, s.summary)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
