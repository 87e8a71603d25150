package benchmark

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bankbench/pkg/bodies"
	"github.com/bankbench/pkg/config"
	"github.com/bankbench/pkg/progress"
	"go.uber.org/zap"
)

// Runner sends the measured requests of one endpoint at a time
type Runner struct {
	cfg       *config.Config
	client    *Client
	gen       *bodies.Generator
	logger    *zap.Logger
	limiter   *RateLimiter
	trigger   *http.Client
	quietMode bool
}

// Option customizes a Runner
type Option func(*Runner)

// WithClient replaces the HTTP client built from the configuration
func WithClient(c *Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithGenerator replaces the body generator built from the configuration
func WithGenerator(g *bodies.Generator) Option {
	return func(r *Runner) { r.gen = g }
}

// WithQuiet suppresses the progress bar
func WithQuiet(quiet bool) Option {
	return func(r *Runner) { r.quietMode = quiet }
}

// NewRunner creates a runner for cfg. Call Close when done.
func NewRunner(cfg *config.Config, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  logger,
		trigger: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = NewClient(cfg)
	}
	if r.gen == nil {
		r.gen = bodies.NewGenerator(cfg.Requests, cfg.Settings.Seed)
	}
	r.limiter = NewRateLimiter(cfg.Settings.RateLimit)
	return r
}

// Generator returns the body generator whose pools the plan resets
func (r *Runner) Generator() *bodies.Generator {
	return r.gen
}

// Close releases the rate limiter
func (r *Runner) Close() {
	r.limiter.Stop()
}

// Measure sends the configured number of requests for endpoint to target
func (r *Runner) Measure(ctx context.Context, endpoint, target string) (*EndpointResult, error) {
	return r.measure(ctx, endpoint, func() string { return target })
}

// MeasureMixed splits the requests for endpoint evenly between invalidURL and
// validURL in random order
func (r *Runner) MeasureMixed(ctx context.Context, endpoint, invalidURL, validURL string) (*EndpointResult, error) {
	urls := [2]string{Invalid: invalidURL, Valid: validURL}
	picker := NewValidityPicker(r.cfg.Requests, r.gen.Intn)
	return r.measure(ctx, endpoint, func() string { return urls[picker.Next()] })
}

func (r *Runner) measure(ctx context.Context, endpoint string, next func() string) (*EndpointResult, error) {
	total := r.cfg.Requests
	stats := NewStats(total)

	bar := progress.NewBar(total, r.quietMode || !r.cfg.Settings.ShowProgress)
	defer bar.Close()

	started := time.Now()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !r.limiter.Wait(ctx) {
			return nil, ctx.Err()
		}

		target := next()
		body, err := r.gen.Body(endpoint)
		if err != nil {
			return nil, err
		}

		d, outcome, err := r.client.Post(ctx, target, body)
		if err != nil {
			return nil, &RequestError{URL: target, Body: body, Err: err}
		}
		stats.Add(d, outcome)
		bar.Report(i)

		if every := r.cfg.Settings.ProgressEvery; every > 0 && i%every == 0 {
			r.logger.Info(fmt.Sprintf("Reached %d requests...", i))
		}
		if at := r.cfg.Monitor.TriggerAt; at > 0 && i == at {
			r.triggerMonitor(ctx, endpoint)
		}
	}
	elapsed := time.Since(started)
	bar.Finish(elapsed)

	return NewEndpointResult(stats, r.cfg.AppVersion, r.cfg.Auth, endpoint, started, elapsed, r.cfg.Settings.Percentiles), nil
}

// FillAccounts creates n accounts through target. Every failure is fatal,
// an access denied response included.
func (r *Runner) FillAccounts(ctx context.Context, n int, target string) error {
	r.logger.Info("Filling accounts", zap.Int("count", n))
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := r.gen.Body(config.CreateAccount)
		if err != nil {
			return err
		}
		if err := r.client.PostJSON(ctx, target, body); err != nil {
			return &RequestError{URL: target, Body: body, Err: err}
		}
	}
	return nil
}

// triggerMonitor asks the resource monitor to start a capture. Failures
// only warn: the load run continues without resource data.
func (r *Runner) triggerMonitor(ctx context.Context, endpoint string) {
	if r.cfg.Monitor.URL == "" {
		return
	}
	target := fmt.Sprintf("%s/start/%s/%s", r.cfg.Monitor.URL, url.PathEscape(r.cfg.AppVersion), url.PathEscape(endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		r.logger.Warn("Failed to build monitor trigger", zap.String("url", target), zap.Error(err))
		return
	}
	resp, err := r.trigger.Do(req)
	if err != nil {
		r.logger.Warn("Failed to trigger resource monitor", zap.String("url", target), zap.Error(err))
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("Resource monitor refused capture", zap.String("url", target), zap.Int("status", resp.StatusCode))
		return
	}
	r.logger.Debug("Resource monitor triggered", zap.String("url", target))
}
