package engine

import (
	"context"
	"fmt"

	"github.com/mjdetullio/sonar-build-breaker/internal/breaker"
	"github.com/mjdetullio/sonar-build-breaker/internal/config"
	gh "github.com/mjdetullio/sonar-build-breaker/internal/github"
)

// commitStatusFor maps an evaluation result to a commit status.
func commitStatusFor(res breaker.Result, warnings int, statusContext string) gh.CommitStatus {
	st := gh.CommitStatus{Context: statusContext}
	switch {
	case res.Status == breaker.StatusFailed:
		st.State = gh.StateFailure
		st.Description = fmt.Sprintf("%d alert(s) failed", len(res.Errors))
		if len(res.Errors) > 0 {
			st.Description += ": " + res.Errors[0]
		}
	case warnings > 0:
		st.State = gh.StateSuccess
		st.Description = fmt.Sprintf("Quality gate passed with %d warning(s)", warnings)
	default:
		st.State = gh.StateSuccess
		st.Description = "Quality gate passed"
	}
	return st
}

func (e *Engine) publisher(ctx context.Context, cfg *config.Config) (StatusPublisher, error) {
	if e.newPublisher != nil {
		return e.newPublisher(ctx, cfg)
	}

	token, source, err := gh.ResolveAuthToken(ctx, cfg.GitHub.Token)
	if err != nil {
		return nil, fmt.Errorf("resolve GitHub auth token: %w", err)
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub auth token is required for --github-status (set GITHUB_TOKEN or run 'gh auth login')")
	}
	e.Logger.Debug("resolved GitHub token", "source", string(source))

	opts := []gh.Option{gh.WithVerbose(cfg.Runtime.Verbose, e.Logger)}
	if cfg.GitHub.APIURL != "" {
		opts = append(opts, gh.WithBaseURL(cfg.GitHub.APIURL))
	}
	return gh.NewClient(ctx, token, opts...)
}

func (e *Engine) publishStatus(ctx context.Context, cfg *config.Config, res breaker.Result, warnings int) error {
	pub, err := e.publisher(ctx, cfg)
	if err != nil {
		return err
	}
	st := commitStatusFor(res, warnings, cfg.GitHub.Context)
	if err := pub.CreateStatus(ctx, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.SHA, st); err != nil {
		return err
	}
	e.Logger.Info("published commit status", "repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo, "sha", cfg.GitHub.SHA, "state", st.State)
	return nil
}
