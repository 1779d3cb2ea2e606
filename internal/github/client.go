package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	// logger receives one debug record per API request when non-nil. It must
	// not write to stdout so structured output (e.g. NDJSON) stays clean.
	logger  *slog.Logger
	baseURL string
}

type Option func(*options)

// WithVerbose logs every API request and response through logger.
func WithVerbose(enabled bool, logger *slog.Logger) Option {
	return func(o *options) {
		if !enabled {
			o.logger = nil
			return
		}
		o.logger = logger
	}
}

// WithBaseURL targets a GitHub Enterprise Server API, e.g. https://ghe.example.com/api/v3/.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// loggingRoundTripper wraps an underlying transport and emits one record per
// request and response (including latency).
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", "method", req.Method, "duration", dur, "err", err)
	} else {
		t.logger.Debug("github api response", "method", req.Method, "status", resp.StatusCode, "duration", dur)
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	transport := http.DefaultTransport
	if o.logger != nil {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport, Timeout: 30 * time.Second}

	gc := github.NewClient(tc)
	if o.baseURL != "" {
		var err error
		gc, err = gc.WithEnterpriseURLs(o.baseURL, o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github client: base url: %w", err)
		}
	}

	return &Client{
		Client: gc,
		HTTP:   tc,
	}, nil
}
