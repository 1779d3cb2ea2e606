package measures

import (
	"fmt"
	"strings"
)

// Metric is the key of a computed project metric (e.g. "coverage").
type Metric string

// Core metric keys produced by the analysis platform.
const (
	// MetricAlertStatus is the aggregate quality gate status computed from all
	// other measures. Checks that look at individual alerts must ignore it.
	MetricAlertStatus Metric = "alert_status"

	MetricLines           Metric = "lines"
	MetricCoverage        Metric = "coverage"
	MetricClassComplexity Metric = "class_complexity"
)

// Level is the alert severity attached to a measure by the quality gate.
type Level int

const (
	LevelNone Level = iota
	LevelOK
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "OK"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return ""
	}
}

// ParseLevel parses an alert level. Matching is case-insensitive and the empty
// string (or "none") means no alert.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NONE":
		return LevelNone, nil
	case "OK":
		return LevelOK, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelNone, fmt.Errorf("unknown alert level %q (must be one of: OK, WARN, ERROR)", raw)
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Measure is a computed metric value, optionally annotated with a quality gate
// alert. Measures are produced upstream and are read-only here.
type Measure struct {
	Metric Metric `yaml:"metric" json:"metric"`
	Alert  Level  `yaml:"alert,omitempty" json:"alert,omitempty"`
	// Text is the human-readable alert message. Producers are not required to
	// set it, so an empty Text is valid at any level.
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

func New(metric Metric, alert Level, text string) Measure {
	return Measure{Metric: metric, Alert: alert, Text: text}
}

// IsAggregate reports whether m is the aggregate alert status measure.
func (m Measure) IsAggregate() bool {
	return m.Metric == MetricAlertStatus
}
