// Package refresh asks the upstream data source to refresh funnel data by
// calling a set of webhook endpoints.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/funnel/backend/internal/domain/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRequestTimeout bounds each POST or GET attempt
	DefaultRequestTimeout = 10 * time.Second

	maxDrainBytes = 64 << 10
)

// Config configures the webhook fan-out
type Config struct {
	URLs           []string
	RequestTimeout time.Duration
	// MaxConcurrency caps in-flight endpoints; zero or less means unbounded
	MaxConcurrency int
}

// EndpointResult is the outcome of one webhook endpoint
type EndpointResult struct {
	URL        string `json:"url"`
	Method     string `json:"method,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Result aggregates all endpoint outcomes. Success is true only when every
// endpoint succeeded.
type Result struct {
	Success   bool             `json:"success"`
	Endpoints []EndpointResult `json:"endpoints"`
}

// FailedURLs returns the URLs of the endpoints that failed
func (r *Result) FailedURLs() []string {
	failed := make([]string, 0)
	for _, e := range r.Endpoints {
		if !e.Success {
			failed = append(failed, e.URL)
		}
	}
	return failed
}

// Trigger fires the refresh webhooks
type Trigger struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewTrigger creates a Trigger. A nil client uses an http.Client whose
// transport records a client span per webhook request.
func NewTrigger(cfg Config, client *http.Client, logger *zap.Logger) *Trigger {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		cfg:    cfg,
		client: client,
		logger: logger.Named("refresh"),
	}
}

// URLs returns the configured endpoints
func (t *Trigger) URLs() []string {
	return append([]string(nil), t.cfg.URLs...)
}

// Trigger calls every endpoint concurrently and waits for all of them.
// Each endpoint is tried with POST and then GET. One failing endpoint fails
// the whole operation; the Result still lists every endpoint's outcome.
func (t *Trigger) Trigger(ctx context.Context) (*Result, error) {
	result := &Result{
		Success:   true,
		Endpoints: make([]EndpointResult, len(t.cfg.URLs)),
	}
	if len(t.cfg.URLs) == 0 {
		return result, nil
	}

	var g errgroup.Group
	if t.cfg.MaxConcurrency > 0 {
		g.SetLimit(t.cfg.MaxConcurrency)
	}
	for i, url := range t.cfg.URLs {
		g.Go(func() error {
			result.Endpoints[i] = t.fire(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, e := range result.Endpoints {
		if !e.Success {
			result.Success = false
			errs = append(errs, fmt.Errorf("%s: %s", e.URL, e.Error))
		}
	}
	if len(errs) > 0 {
		t.logger.Warn("Refresh trigger failed",
			zap.Int("endpoints", len(result.Endpoints)),
			zap.Strings("failed", result.FailedURLs()),
		)
		return result, shared.ErrRefreshTrigger.
			WithMessage(fmt.Sprintf("%d of %d refresh endpoints failed", len(errs), len(result.Endpoints))).
			Wrap(errors.Join(errs...))
	}

	t.logger.Info("Refresh trigger completed", zap.Int("endpoints", len(result.Endpoints)))
	return result, nil
}

func (t *Trigger) fire(ctx context.Context, url string) EndpointResult {
	res := EndpointResult{URL: url, Method: http.MethodPost}

	status, postErr := t.do(ctx, http.MethodPost, url)
	res.StatusCode = status
	if postErr == nil {
		res.Success = true
		return res
	}

	t.logger.Debug("POST refresh failed, retrying with GET",
		zap.String("url", url),
		zap.Error(postErr),
	)

	res.Method = http.MethodGet
	status, getErr := t.do(ctx, http.MethodGet, url)
	res.StatusCode = status
	if getErr != nil {
		res.Error = fmt.Sprintf("POST: %v; GET: %v", postErr, getErr)
		return res
	}
	res.Success = true
	return res
}

func (t *Trigger) do(ctx context.Context, method, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("status %d %s", resp.StatusCode, strings.TrimSpace(http.StatusText(resp.StatusCode)))
	}
	return resp.StatusCode, nil
}
