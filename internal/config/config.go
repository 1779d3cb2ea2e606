package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SkipEnvVar disables evaluation when set to a true value.
const SkipEnvVar = "BUILDBREAKER_SKIP"

// DefaultStatusContext is the commit status context used by --github-status.
const DefaultStatusContext = "quality/build-breaker"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/check.go
	// - YAML keys in internal/config/file.go
	Breaker Breaker
	Input   Input
	Output  Output
	GitHub  GitHub
	Runtime Runtime
}

type Breaker struct {
	// Skip disables the alert evaluation entirely (see --skip).
	Skip bool
}

type Input struct {
	// Measures lists the measure files to evaluate, in order (see --measures).
	// "-" reads standard input. Values may be repeated and/or comma-separated.
	Measures []string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterLevel filters console output by alert level (see --console-filter-level).
	// Allowed values: WARN, ERROR.
	ConsoleFilterLevel []string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// MetricsOut writes a Prometheus textfile with the evaluation outcome (see --metrics-out).
	MetricsOut string
}

type GitHub struct {
	// Status publishes a commit status to OWNER/REPO@SHA (see --github-status).
	Status string

	// Context is the commit status context (see --github-context).
	Context string

	// APIURL targets a GitHub Enterprise Server API (see --github-api-url).
	// Empty means api.github.com.
	APIURL string

	// Token overrides token resolution (GITHUB_TOKEN, then gh auth token).
	Token string

	// parsed from Status by Validate.
	Owner string
	Repo  string
	SHA   string
}

type Runtime struct {
	// Timeout bounds loading measures and publishing status (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// Verbose enables debug logging and GitHub API request logging.
	Verbose bool
}

func New() *Config {
	return &Config{
		Output: Output{
			ConsoleFormat: "text",
		},
		GitHub: GitHub{
			Context: DefaultStatusContext,
		},
		Runtime: Runtime{
			Timeout: 2 * time.Minute,
		},
	}
}

// ApplyEnv applies environment overrides. lookup is typically os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if raw, ok := lookup(SkipEnvVar); ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", SkipEnvVar, raw, err)
		}
		c.Breaker.Skip = v
	}
	return nil
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Input.Measures = splitCommaList(c.Input.Measures)
	c.Output.ConsoleFilterLevel = splitCommaList(c.Output.ConsoleFilterLevel)
	c.Output.Emit = splitCommaList(c.Output.Emit)

	// Input validation. A skipped run never reads measures.
	if len(c.Input.Measures) == 0 && !c.Breaker.Skip {
		return errors.New("at least one --measures file must be provided")
	}
	stdinCount := 0
	for _, p := range c.Input.Measures {
		if p == "-" {
			stdinCount++
		}
	}
	if stdinCount > 1 {
		return errors.New("--measures may read stdin (\"-\") only once")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, lvl := range c.Output.ConsoleFilterLevel {
		v := strings.ToUpper(strings.TrimSpace(lvl))
		if v != "WARN" && v != "ERROR" {
			return fmt.Errorf("unsupported --console-filter-level: %s (must be one of: WARN, ERROR)", lvl)
		}
		c.Output.ConsoleFilterLevel[i] = v
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// GitHub validation
	if c.GitHub.Status != "" {
		owner, repo, sha, err := ParseStatusTarget(c.GitHub.Status)
		if err != nil {
			return fmt.Errorf("invalid --github-status value: %w", err)
		}
		c.GitHub.Owner, c.GitHub.Repo, c.GitHub.SHA = owner, repo, sha
		c.GitHub.Context = strings.TrimSpace(c.GitHub.Context)
		if c.GitHub.Context == "" {
			c.GitHub.Context = DefaultStatusContext
		}
	}

	// Runtime validation
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	return nil
}

// ParseStatusTarget parses "OWNER/REPO@SHA".
func ParseStatusTarget(raw string) (owner, repo, sha string, err error) {
	raw = strings.TrimSpace(raw)
	slug, sha, ok := strings.Cut(raw, "@")
	if !ok {
		return "", "", "", fmt.Errorf("%q: expected OWNER/REPO@SHA", raw)
	}
	owner, repo, ok = strings.Cut(slug, "/")
	owner, repo, sha = strings.TrimSpace(owner), strings.TrimSpace(repo), strings.TrimSpace(sha)
	if !ok || owner == "" || repo == "" || sha == "" || strings.Contains(repo, "/") {
		return "", "", "", fmt.Errorf("%q: expected OWNER/REPO@SHA", raw)
	}
	return owner, repo, sha, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
