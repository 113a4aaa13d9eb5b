package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/backoff"
	"github.com/osvaldoandrade/imagegenie/internal/metrics"
	"github.com/osvaldoandrade/imagegenie/internal/ratelimit"
	"github.com/osvaldoandrade/imagegenie/internal/tracing"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/tidwall/gjson"
)

// Client runs a hosted model to completion.
type Client interface {
	Run(ctx context.Context, modelID string, input map[string]any) (Output, error)
}

// TokenSource returns the current API token. It is consulted per call so a
// token saved mid-session takes effect immediately.
type TokenSource func() string

type Options struct {
	BaseURL    string
	Token      TokenSource
	HTTPClient *http.Client
	PollPolicy string
	PollBase   time.Duration
	PollMax    time.Duration
	Limiter    ratelimit.Limiter
	Bucket     ratelimit.Bucket
	Logger     *slog.Logger
}

type replicateClient struct {
	opts   Options
	rngMu  sync.Mutex
	rng    *rand.Rand
	logger *slog.Logger
}

func NewReplicateClient(opts Options) Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.replicate.com/v1"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}
	if opts.PollBase <= 0 {
		opts.PollBase = 500 * time.Millisecond
	}
	if opts.PollMax <= 0 {
		opts.PollMax = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &replicateClient{
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("replicate: http %d", e.Status)
	}
	return fmt.Sprintf("replicate: http %d: %s", e.Status, e.Detail)
}

func (c *replicateClient) Run(ctx context.Context, modelID string, input map[string]any) (Output, error) {
	token := strings.TrimSpace(c.opts.Token())
	if token == "" {
		return Output{}, domain.ErrMissingToken
	}
	if err := ratelimit.Wait(ctx, c.opts.Limiter, "backend", token, c.opts.Bucket); err != nil {
		if ctx.Err() != nil {
			return Output{}, err
		}
		c.logger.Warn("backend rate limit check failed", "err", err)
	}

	url, body, err := c.createRequest(modelID, input)
	if err != nil {
		return Output{}, err
	}
	start := time.Now()
	pred, err := c.do(ctx, http.MethodPost, url, token, body)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		return Output{}, err
	}

	for attempt := 0; ; attempt++ {
		switch status := pred.Get("status").String(); status {
		case "succeeded":
			metrics.BackendRequestsTotal.WithLabelValues(status).Inc()
			metrics.BackendLatencySeconds.Observe(time.Since(start).Seconds())
			return Output{raw: pred.Get("output")}, nil
		case "failed", "canceled":
			metrics.BackendRequestsTotal.WithLabelValues(status).Inc()
			msg := pred.Get("error").String()
			if msg == "" {
				msg = status
			}
			return Output{}, fmt.Errorf("prediction %s %s: %s", pred.Get("id").String(), status, msg)
		}

		next := pred.Get("urls.get").String()
		if next == "" {
			return Output{}, fmt.Errorf("prediction %s: missing poll url", pred.Get("id").String())
		}
		if err := c.sleep(ctx, attempt); err != nil {
			return Output{}, err
		}
		pred, err = c.do(ctx, http.MethodGet, next, token, nil)
		if err != nil {
			metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
			return Output{}, err
		}
	}
}

// createRequest picks the versioned or model-scoped prediction endpoint.
func (c *replicateClient) createRequest(modelID string, input map[string]any) (string, []byte, error) {
	modelID = strings.TrimSpace(modelID)
	payload := map[string]any{"input": input}
	var url string
	if name, version, ok := strings.Cut(modelID, ":"); ok {
		if version == "" || !strings.Contains(name, "/") {
			return "", nil, fmt.Errorf("invalid model id %q", modelID)
		}
		payload["version"] = version
		url = c.opts.BaseURL + "/predictions"
	} else {
		owner, name, ok := strings.Cut(modelID, "/")
		if !ok || owner == "" || name == "" {
			return "", nil, fmt.Errorf("invalid model id %q", modelID)
		}
		url = c.opts.BaseURL + "/models/" + owner + "/" + name + "/predictions"
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}
	return url, b, nil
}

func (c *replicateClient) do(ctx context.Context, method, url, token string, body []byte) (gjson.Result, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	tracing.InjectHeaders(ctx, req.Header)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "wait")
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, &apiError{Status: resp.StatusCode, Detail: gjson.GetBytes(data, "detail").String()}
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("replicate: invalid json from %s", url)
	}
	return gjson.ParseBytes(data), nil
}

func (c *replicateClient) sleep(ctx context.Context, attempt int) error {
	c.rngMu.Lock()
	d := backoff.Delay(c.opts.PollPolicy, c.opts.PollBase, c.opts.PollMax, attempt, c.rng)
	c.rngMu.Unlock()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
