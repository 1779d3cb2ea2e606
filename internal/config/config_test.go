package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestValidate_NormalizesCommaDelimitedMeasures(t *testing.T) {
	cfg := New()
	cfg.Input.Measures = []string{"a.yaml, b.yaml", "c.json", ",,"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	want := []string{"a.yaml", "b.yaml", "c.json"}
	if !reflect.DeepEqual(cfg.Input.Measures, want) {
		t.Fatalf("Measures normalized mismatch: got %v want %v", cfg.Input.Measures, want)
	}
}

func TestValidate_RequiresMeasures(t *testing.T) {
	cfg := New()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "--measures") {
		t.Fatalf("expected --measures error, got %v", err)
	}
}

func TestValidate_SkipDoesNotRequireMeasures(t *testing.T) {
	cfg := New()
	cfg.Breaker.Skip = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
}

func TestValidate_StdinOnlyOnce(t *testing.T) {
	cfg := New()
	cfg.Input.Measures = []string{"-", "a.yaml", "-"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for repeated stdin")
	}
}

func TestValidate_NormalizesEnums(t *testing.T) {
	cfg := New()
	cfg.Input.Measures = []string{"m.yaml"}
	cfg.Output.ConsoleFormat = " JSON "
	cfg.Output.ConsoleFilterLevel = []string{"warn, Error"}
	cfg.Output.Emit = []string{"NDJSON"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.Output.ConsoleFormat != "json" {
		t.Fatalf("ConsoleFormat = %q, want json", cfg.Output.ConsoleFormat)
	}
	if !reflect.DeepEqual(cfg.Output.ConsoleFilterLevel, []string{"WARN", "ERROR"}) {
		t.Fatalf("ConsoleFilterLevel = %v", cfg.Output.ConsoleFilterLevel)
	}
	if !reflect.DeepEqual(cfg.Output.Emit, []string{"ndjson"}) {
		t.Fatalf("Emit = %v", cfg.Output.Emit)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "console format", mutate: func(c *Config) { c.Output.ConsoleFormat = "xml" }, want: "--console-format"},
		{name: "filter level", mutate: func(c *Config) { c.Output.ConsoleFilterLevel = []string{"OK"} }, want: "--console-filter-level"},
		{name: "emit", mutate: func(c *Config) { c.Output.Emit = []string{"text"} }, want: "--emit"},
		{name: "out ext", mutate: func(c *Config) { c.Output.Out = "result.txt" }, want: "cannot infer output format"},
		{name: "out no ext", mutate: func(c *Config) { c.Output.Out = "result" }, want: "missing extension"},
		{name: "out format", mutate: func(c *Config) { c.Output.Out = "r.json"; c.Output.OutFormat = "xml" }, want: "unsupported output format"},
		{name: "github status", mutate: func(c *Config) { c.GitHub.Status = "acme/repo" }, want: "--github-status"},
		{name: "timeout", mutate: func(c *Config) { c.Runtime.Timeout = 0 }, want: "--timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.Input.Measures = []string{"m.yaml"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidate_InfersOutFormat(t *testing.T) {
	for ext, want := range map[string]string{".json": "json", ".ndjson": "ndjson", ".jsonl": "ndjson"} {
		cfg := New()
		cfg.Input.Measures = []string{"m.yaml"}
		cfg.Output.Out = "out/result" + ext
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() returned error: %v", err)
		}
		if cfg.Output.OutFormat != want {
			t.Fatalf("OutFormat for %s = %q, want %q", ext, cfg.Output.OutFormat, want)
		}
	}
}

func TestValidate_ParsesGitHubStatus(t *testing.T) {
	cfg := New()
	cfg.Input.Measures = []string{"m.yaml"}
	cfg.GitHub.Status = "acme/widgets@0123abcd"
	cfg.GitHub.Context = "  "

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.GitHub.Owner != "acme" || cfg.GitHub.Repo != "widgets" || cfg.GitHub.SHA != "0123abcd" {
		t.Fatalf("unexpected parse: %+v", cfg.GitHub)
	}
	if cfg.GitHub.Context != DefaultStatusContext {
		t.Fatalf("Context = %q, want default", cfg.GitHub.Context)
	}
}

func TestParseStatusTarget_Invalid(t *testing.T) {
	for _, raw := range []string{"", "acme@sha", "acme/@sha", "/repo@sha", "acme/repo@", "acme/repo/x@sha"} {
		if _, _, _, err := ParseStatusTarget(raw); err == nil {
			t.Fatalf("ParseStatusTarget(%q) expected error", raw)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	lookup := func(v string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			if key == SkipEnvVar {
				return v, true
			}
			return "", false
		}
	}

	cfg := New()
	if err := cfg.ApplyEnv(lookup("true")); err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if !cfg.Breaker.Skip {
		t.Fatalf("expected Skip=true from env")
	}

	if err := cfg.ApplyEnv(lookup("0")); err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if cfg.Breaker.Skip {
		t.Fatalf("expected Skip=false from env")
	}

	if err := cfg.ApplyEnv(lookup("maybe")); err == nil {
		t.Fatalf("expected error for invalid bool")
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Breaker.Skip {
		t.Fatalf("evaluation must be enabled by default")
	}
	if cfg.Output.ConsoleFormat != "text" {
		t.Fatalf("ConsoleFormat = %q", cfg.Output.ConsoleFormat)
	}
	if cfg.Runtime.Timeout != 2*time.Minute {
		t.Fatalf("Timeout = %s", cfg.Runtime.Timeout)
	}
}
