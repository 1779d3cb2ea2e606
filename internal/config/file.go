package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mjdetullio/sonar-build-breaker/internal/flags"

	"gopkg.in/yaml.v3"
)

// LegacySkipKey is the flat settings key older pipelines use to disable the check.
const LegacySkipKey = "sonar.buildbreaker.skip"

// File is the YAML settings file form of Config (see --config).
// Pointer fields distinguish "unset" from zero values so command-line flags
// can take precedence over the file.
type File struct {
	Breaker struct {
		Skip *bool `yaml:"skip"`
	} `yaml:"breaker"`

	// LegacySkip mirrors LegacySkipKey. Breaker.Skip wins when both are set.
	LegacySkip *bool `yaml:"sonar.buildbreaker.skip"`

	Measures []string `yaml:"measures"`

	Output struct {
		ConsoleFormat      *string  `yaml:"console_format"`
		ConsoleFilterLevel []string `yaml:"console_filter_level"`
		Report             *string  `yaml:"report"`
		Out                *string  `yaml:"out"`
		OutFormat          *string  `yaml:"out_format"`
		Emit               []string `yaml:"emit"`
		NoConsole          *bool    `yaml:"no_console"`
		MetricsOut         *string  `yaml:"metrics_out"`
	} `yaml:"output"`

	GitHub struct {
		Status  *string `yaml:"status"`
		Context *string `yaml:"context"`
		APIURL  *string `yaml:"api_url"`
	} `yaml:"github"`

	Runtime struct {
		Timeout *time.Duration `yaml:"timeout"`
		Verbose *bool          `yaml:"verbose"`
	} `yaml:"runtime"`
}

// SkipSetting returns the skip value from the file and whether it was set.
func (f *File) SkipSetting() (bool, bool) {
	if f.Breaker.Skip != nil {
		return *f.Breaker.Skip, true
	}
	if f.LegacySkip != nil {
		return *f.LegacySkip, true
	}
	return false, false
}

// LoadFile reads and parses the settings file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return &f, nil
}

// Merge copies every value set in f into c, except for settings whose
// command-line flag was given explicitly. changed reports that for a flag name.
func (f *File) Merge(c *Config, changed func(flag string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	setStr := func(flag string, dst *string, v *string) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}
	setBool := func(flag string, dst *bool, v *bool) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}
	setList := func(flag string, dst *[]string, v []string) {
		if len(v) > 0 && !changed(flag) {
			*dst = append([]string(nil), v...)
		}
	}

	if skip, ok := f.SkipSetting(); ok && !changed(flags.FlagSkip) {
		c.Breaker.Skip = skip
	}
	setList(flags.FlagMeasures, &c.Input.Measures, f.Measures)

	setStr(flags.FlagConsoleFormat, &c.Output.ConsoleFormat, f.Output.ConsoleFormat)
	setList(flags.FlagConsoleFilterLevel, &c.Output.ConsoleFilterLevel, f.Output.ConsoleFilterLevel)
	setStr(flags.FlagReport, &c.Output.Report, f.Output.Report)
	setStr(flags.FlagOut, &c.Output.Out, f.Output.Out)
	setStr(flags.FlagOutFormat, &c.Output.OutFormat, f.Output.OutFormat)
	setList(flags.FlagEmit, &c.Output.Emit, f.Output.Emit)
	setBool(flags.FlagNoConsole, &c.Output.NoConsole, f.Output.NoConsole)
	setStr(flags.FlagMetricsOut, &c.Output.MetricsOut, f.Output.MetricsOut)

	setStr(flags.FlagGitHubStatus, &c.GitHub.Status, f.GitHub.Status)
	setStr(flags.FlagGitHubContext, &c.GitHub.Context, f.GitHub.Context)
	setStr(flags.FlagGitHubAPIURL, &c.GitHub.APIURL, f.GitHub.APIURL)

	if f.Runtime.Timeout != nil && !changed(flags.FlagTimeout) {
		c.Runtime.Timeout = *f.Runtime.Timeout
	}
	setBool(flags.FlagVerbose, &c.Runtime.Verbose, f.Runtime.Verbose)
}
