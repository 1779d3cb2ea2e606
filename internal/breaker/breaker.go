package breaker

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mjdetullio/sonar-build-breaker/internal/measures"
)

// Tag prefixes every error-level alert so a failed build can be attributed to
// this check.
const Tag = "[BUILD BREAKER]"

// Settings controls the evaluator.
type Settings struct {
	// Skip disables evaluation entirely: Evaluate passes without looking at
	// any measure and without logging.
	Skip bool
}

type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Result is the outcome of one evaluation.
type Result struct {
	Status Status
	// Errors holds the tagged message of every ERROR alert, in encounter order.
	Errors []string
}

func (r Result) Passed() bool {
	return r.Status != StatusFailed
}

// Err returns a *ViolationError when the evaluation failed, nil otherwise.
func (r Result) Err() error {
	if r.Status != StatusFailed {
		return nil
	}
	return &ViolationError{Messages: append([]string(nil), r.Errors...)}
}

// ViolationError reports that one or more measures carried an ERROR alert.
type ViolationError struct {
	Messages []string
}

func (e *ViolationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alert thresholds have been hit (%d times).", len(e.Messages))
	for _, m := range e.Messages {
		b.WriteString("\n")
		b.WriteString(m)
	}
	return b.String()
}

// AlertHook is called for every WARN and ERROR alert the evaluator acts on.
type AlertHook func(m measures.Measure)

type Option func(*AlertBreaker)

// WithAlertHook registers fn to observe acted-on alerts, e.g. to feed output sinks.
func WithAlertHook(fn AlertHook) Option {
	return func(b *AlertBreaker) {
		b.hook = fn
	}
}

// AlertBreaker fails a run when any measure carries an ERROR alert.
type AlertBreaker struct {
	settings Settings
	logger   *slog.Logger
	hook     AlertHook
}

// New returns an AlertBreaker logging through logger. A nil logger discards.
func New(settings Settings, logger *slog.Logger, opts ...Option) *AlertBreaker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &AlertBreaker{settings: settings, logger: logger}
	for _, apply := range opts {
		if apply != nil {
			apply(b)
		}
	}
	return b
}

// Evaluate inspects ms in order. WARN alerts are logged as warnings; ERROR
// alerts are logged as errors and collected. The aggregate alert status
// measure is never considered.
func (b *AlertBreaker) Evaluate(ms []measures.Measure) Result {
	if b.settings.Skip {
		return Result{Status: StatusSkipped}
	}

	var errs []string
	for _, m := range ms {
		if m.IsAggregate() {
			continue
		}
		switch m.Alert {
		case measures.LevelWarn:
			b.logger.Warn(m.Text, "metric", string(m.Metric))
		case measures.LevelError:
			msg := Tag + " " + m.Text
			b.logger.Error(msg, "metric", string(m.Metric))
			errs = append(errs, msg)
		default:
			continue
		}
		if b.hook != nil {
			b.hook(m)
		}
	}

	if len(errs) > 0 {
		return Result{Status: StatusFailed, Errors: errs}
	}
	return Result{Status: StatusPassed}
}

// Evaluate is a convenience wrapper around New(settings, logger).Evaluate(ms).
func Evaluate(ms []measures.Measure, settings Settings, logger *slog.Logger) Result {
	return New(settings, logger).Evaluate(ms)
}
