package output

import (
	"encoding/json"

	"github.com/mjdetullio/sonar-build-breaker/internal/measures"
)

// Lifecycle event types.
const (
	EventRunStarted  = "run.started"
	EventAlert       = "alert"
	EventRunFinished = "run.finished"
)

// Alert is a single WARN or ERROR alert the breaker acted on.
type Alert struct {
	Metric  string `json:"metric"`
	Level   string `json:"level"`
	Message string `json:"message,omitempty"`
}

func AlertFromMeasure(m measures.Measure) Alert {
	return Alert{Metric: string(m.Metric), Level: m.Alert.String(), Message: m.Text}
}

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - alert
// - run.finished
//
// JSON mode remains a single aggregate Summary written on Close.
type Event struct {
	Type string `json:"type"`
	*Alert
	Measures int    `json:"measures,omitempty"`
	Status   string `json:"status,omitempty"`
	Warnings int    `json:"warnings,omitempty"`
	Errors   int    `json:"errors,omitempty"`
	// Messages carries the tagged failure messages on run.finished.
	Messages []string `json:"messages,omitempty"`
	ExitCode int      `json:"exit_code,omitempty"`
}

// MarshalJSON always includes the counts and exit code on run.finished, where
// zero values are meaningful.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	if e.Type != EventRunFinished {
		return json.Marshal(plain(e))
	}
	return json.Marshal(struct {
		plain
		Warnings int `json:"warnings"`
		Errors   int `json:"errors"`
		ExitCode int `json:"exit_code"`
	}{plain: plain(e), Warnings: e.Warnings, Errors: e.Errors, ExitCode: e.ExitCode})
}

func eventFromAlert(a Alert) Event {
	return Event{Type: EventAlert, Alert: &a}
}
