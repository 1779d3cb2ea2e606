package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mjdetullio/sonar-build-breaker/internal/breaker"
	"github.com/mjdetullio/sonar-build-breaker/internal/config"
	gh "github.com/mjdetullio/sonar-build-breaker/internal/github"
	"github.com/mjdetullio/sonar-build-breaker/internal/measures"
	"github.com/mjdetullio/sonar-build-breaker/internal/output"
	"github.com/mjdetullio/sonar-build-breaker/internal/promfile"
)

// Exit codes returned by Run.
const (
	ExitPassed   = 0
	ExitViolated = 1
	ExitPartial  = 2
	ExitFatal    = 3
)

func exitCodeForRun(fatal, violated, partial bool) int {
	// Exit code contract:
	// 0 = gate passed (warnings allowed) or evaluation skipped
	// 1 = gate violated (at least one ERROR alert)
	// 2 = partial failure (gate passed but status/metrics/sink output failed)
	// 3 = fatal error (evaluation did not run)
	if fatal {
		return ExitFatal
	}
	if violated {
		return ExitViolated
	}
	if partial {
		return ExitPartial
	}
	return ExitPassed
}

// StatusPublisher publishes the gate verdict as a commit status.
type StatusPublisher interface {
	CreateStatus(ctx context.Context, owner, repo, sha string, st gh.CommitStatus) error
}

type Engine struct {
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// newPublisher is a test seam. If nil, Engine resolves a token and uses
	// the real GitHub client.
	newPublisher func(ctx context.Context, cfg *config.Config) (StatusPublisher, error)
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		Logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (e *Engine) progress(cfg *config.Config, format string, args ...any) {
	if cfg.Output.NoConsole || e.Stderr == nil {
		return
	}
	fmt.Fprintf(e.Stderr, format+"\n", args...)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterLevel)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// tally counts the alerts the breaker acted on and forwards them to the sinks.
type tally struct {
	out      *output.Manager
	logger   *slog.Logger
	warnings int
	errors   int
	sinkErr  bool
}

func (t *tally) observe(m measures.Measure) {
	switch m.Alert {
	case measures.LevelWarn:
		t.warnings++
	case measures.LevelError:
		t.errors++
	}
	if err := t.out.WriteAlert(m); err != nil {
		t.logger.Error("failed to write alert", "metric", string(m.Metric), "err", err)
		t.sinkErr = true
	}
}

func (e *Engine) loadMeasures(ctx context.Context, cfg *config.Config) ([]measures.Measure, bool) {
	if cfg.Breaker.Skip {
		return nil, true
	}
	e.progress(cfg, "Loading measures...")
	ms, err := measures.LoadFiles(ctx, cfg.Input.Measures, e.Stdin)
	if err != nil {
		e.Logger.Error("failed to load measures", "err", err)
		return nil, false
	}
	e.progress(cfg, "Loaded %s.", plural(len(ms), "measure"))
	return ms, true
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	ctx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	ms, ok := e.loadMeasures(ctx, cfg)
	if !ok {
		return exitCodeForRun(true, false, false)
	}

	outMgr, err := setupOutputManager(cfg, e.Stdout)
	if err != nil {
		e.Logger.Error("failed to create output sinks", "err", err)
		return exitCodeForRun(true, false, false)
	}

	partial := false
	if err := outMgr.Write(output.Event{Type: output.EventRunStarted, Measures: len(ms)}); err != nil {
		e.Logger.Error("failed to write event", "err", err)
		partial = true
	}

	t := &tally{out: outMgr, logger: e.Logger}
	b := breaker.New(breaker.Settings{Skip: cfg.Breaker.Skip}, e.Logger, breaker.WithAlertHook(t.observe))
	res := b.Evaluate(ms)
	if t.sinkErr {
		partial = true
	}

	if cfg.GitHub.Status != "" && res.Status != breaker.StatusSkipped {
		if err := e.publishStatus(ctx, cfg, res, t.warnings); err != nil {
			e.Logger.Error("failed to publish commit status", "err", err)
			partial = true
		}
	}

	code := exitCodeForRun(false, !res.Passed(), partial)

	finished := output.Event{
		Type:     output.EventRunFinished,
		Status:   string(res.Status),
		Warnings: t.warnings,
		Errors:   t.errors,
		Messages: res.Errors,
		ExitCode: code,
	}
	if err := outMgr.Write(finished); err != nil {
		e.Logger.Error("failed to write event", "err", err)
		code = exitCodeForRun(false, !res.Passed(), true)
	}
	if err := outMgr.Close(); err != nil {
		e.Logger.Error("failed to close output sinks", "err", err)
		code = exitCodeForRun(false, !res.Passed(), true)
	}

	// Written last: buildbreaker_exit_code must equal the returned code.
	if cfg.Output.MetricsOut != "" {
		outcome := promfile.Outcome{
			Passed:   res.Passed(),
			Skipped:  res.Status == breaker.StatusSkipped,
			Warnings: t.warnings,
			Errors:   t.errors,
			ExitCode: code,
		}
		if err := promfile.WriteFile(cfg.Output.MetricsOut, outcome); err != nil {
			e.Logger.Error("failed to write metrics file", "path", cfg.Output.MetricsOut, "err", err)
			code = exitCodeForRun(false, !res.Passed(), true)
		}
	}
	return code
}
