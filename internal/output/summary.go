package output

// Summary is the aggregate written by sinks in JSON mode.
type Summary struct {
	Status   string   `json:"status"`
	Measures int      `json:"measures"`
	Alerts   []Alert  `json:"alerts"`
	Messages []string `json:"messages,omitempty"`
	ExitCode int      `json:"exit_code"`
}

func newSummary() *Summary {
	return &Summary{Alerts: []Alert{}}
}

// observe folds v into the summary. Unknown values are ignored.
func (s *Summary) observe(v any) {
	switch t := v.(type) {
	case Alert:
		s.Alerts = append(s.Alerts, t)
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.Measures = t.Measures
		case EventAlert:
			if t.Alert != nil {
				s.Alerts = append(s.Alerts, *t.Alert)
			}
		case EventRunFinished:
			s.Status = t.Status
			s.Messages = t.Messages
			s.ExitCode = t.ExitCode
		}
	}
}

// Counts returns the number of WARN and ERROR alerts seen.
func (s *Summary) Counts() (warnings, errors int) {
	for _, a := range s.Alerts {
		switch a.Level {
		case "WARN":
			warnings++
		case "ERROR":
			errors++
		}
	}
	return warnings, errors
}
