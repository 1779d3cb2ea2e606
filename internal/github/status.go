package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// Commit status states accepted by the GitHub API.
const (
	StateSuccess = "success"
	StateFailure = "failure"
	StateError   = "error"
	StatePending = "pending"
)

// maxDescriptionLen is the GitHub limit for commit status descriptions.
const maxDescriptionLen = 140

// CommitStatus is the status reported for one commit.
type CommitStatus struct {
	State       string
	Description string
	Context     string
	TargetURL   string
}

// CreateStatus publishes st on owner/repo@sha.
func (c *Client) CreateStatus(ctx context.Context, owner, repo, sha string, st CommitStatus) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("create status: client is nil")
	}
	switch st.State {
	case StateSuccess, StateFailure, StateError, StatePending:
	default:
		return fmt.Errorf("create status: unknown state %q", st.State)
	}

	body := github.RepoStatus{
		State:       github.Ptr(st.State),
		Description: github.Ptr(truncate(st.Description, maxDescriptionLen)),
		Context:     github.Ptr(st.Context),
	}
	if st.TargetURL != "" {
		body.TargetURL = github.Ptr(st.TargetURL)
	}

	if _, _, err := c.Client.Repositories.CreateStatus(ctx, owner, repo, sha, &body); err != nil {
		return fmt.Errorf("create status %s/%s@%s: %w", owner, repo, sha, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
