package promfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric family names written to the textfile.
const (
	metricAlerts  = "buildbreaker_alerts"
	metricPassed  = "buildbreaker_passed"
	metricSkipped = "buildbreaker_skipped"
	metricExit    = "buildbreaker_exit_code"
)

// Outcome is the evaluation outcome exported for node_exporter's textfile collector.
type Outcome struct {
	Passed   bool
	Skipped  bool
	Warnings int
	Errors   int
	ExitCode int
}

func gauge(name, help string, v float64, labels ...*dto.LabelPair) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Label: labels,
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		}},
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Families returns the metric families describing o, sorted by name.
func Families(o Outcome) []*dto.MetricFamily {
	alerts := &dto.MetricFamily{
		Name: proto.String(metricAlerts),
		Help: proto.String("Number of quality gate alerts by level in the last evaluation."),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{
				Label: []*dto.LabelPair{{Name: proto.String("level"), Value: proto.String("error")}},
				Gauge: &dto.Gauge{Value: proto.Float64(float64(o.Errors))},
			},
			{
				Label: []*dto.LabelPair{{Name: proto.String("level"), Value: proto.String("warn")}},
				Gauge: &dto.Gauge{Value: proto.Float64(float64(o.Warnings))},
			},
		},
	}

	mfs := []*dto.MetricFamily{
		alerts,
		gauge(metricExit, "Exit code of the last build breaker run.", float64(o.ExitCode)),
		gauge(metricPassed, "Whether the last evaluation passed (1) or failed (0).", boolValue(o.Passed)),
		gauge(metricSkipped, "Whether the last evaluation was skipped by configuration.", boolValue(o.Skipped)),
	}
	sort.Slice(mfs, func(i, j int) bool { return mfs[i].GetName() < mfs[j].GetName() })
	return mfs
}

// Encode writes o in the Prometheus text exposition format.
func Encode(w io.Writer, o Outcome) error {
	for _, mf := range Families(o) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes o to path atomically (write to a temp file, then rename),
// so the textfile collector never reads a partial file.
func WriteFile(path string, o Outcome) error {
	var buf bytes.Buffer
	if err := Encode(&buf, o); err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("metrics file: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics file: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics file: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("metrics file: rename: %w", err)
	}
	return nil
}

// Decode parses a textfile previously written by Encode.
func Decode(r io.Reader) (Outcome, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse prometheus text: %w", err)
	}

	passed, ok := mfs[metricPassed]
	if !ok {
		return Outcome{}, fmt.Errorf("parse prometheus text: missing %s", metricPassed)
	}

	var o Outcome
	o.Passed = firstValue(passed) == 1
	o.Skipped = firstValue(mfs[metricSkipped]) == 1
	o.ExitCode = int(firstValue(mfs[metricExit]))
	if mf := mfs[metricAlerts]; mf != nil {
		for _, m := range mf.GetMetric() {
			v := int(metricValue(m))
			for _, lp := range m.GetLabel() {
				if lp.GetName() != "level" {
					continue
				}
				switch lp.GetValue() {
				case "error":
					o.Errors = v
				case "warn":
					o.Warnings = v
				}
			}
		}
	}
	return o, nil
}

func firstValue(mf *dto.MetricFamily) float64 {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0
	}
	return metricValue(mf.GetMetric()[0])
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}
