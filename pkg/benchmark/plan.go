package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/bankbench/pkg/config"
	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// ResultSink receives every finished endpoint result. An error stops the plan.
type ResultSink func(ctx context.Context, result *EndpointResult) error

// Plan measures the configured endpoints in order, keeping the ID pools in
// step with what earlier endpoints created or deleted on the gateway
type Plan struct {
	cfg    *config.Config
	runner *Runner
	logger *zap.Logger
	sinks  []ResultSink
}

// NewPlan creates a plan over runner. Sinks are called in order for each result.
func NewPlan(cfg *config.Config, runner *Runner, logger *zap.Logger, sinks ...ResultSink) *Plan {
	return &Plan{cfg: cfg, runner: runner, logger: logger, sinks: sinks}
}

// Run measures every endpoint and returns the results gathered so far.
// The first fatal error stops the run.
func (p *Plan) Run(ctx context.Context) ([]*EndpointResult, error) {
	results := make([]*EndpointResult, 0, len(p.cfg.Endpoints))

	for _, endpoint := range p.cfg.Endpoints {
		if err := p.before(ctx, endpoint); err != nil {
			return results, err
		}

		p.logger.Info(fmt.Sprintf("Measuring for %s with %s version started at %s",
			endpoint, p.cfg.AppVersion, time.Now().Format(timestampLayout)))

		result, err := p.measure(ctx, endpoint)
		if err != nil {
			return results, fmt.Errorf("measuring %s: %w", endpoint, err)
		}
		results = append(results, result)

		for _, sink := range p.sinks {
			if err := sink(ctx, result); err != nil {
				return results, err
			}
		}

		p.logger.Info(fmt.Sprintf("Measuring for %s with %s version finished at %s",
			endpoint, p.cfg.AppVersion, time.Now().Format(timestampLayout)))

		p.after(endpoint)
	}

	return results, nil
}

func (p *Plan) measure(ctx context.Context, endpoint string) (*EndpointResult, error) {
	if p.isMixed() {
		return p.runner.MeasureMixed(ctx, endpoint, p.cfg.InvalidURLFor(endpoint), p.cfg.URLFor(endpoint))
	}
	return p.runner.Measure(ctx, endpoint, p.cfg.URLFor(endpoint))
}

// before resets the ID pools for endpoints that depend on fresh data
func (p *Plan) before(ctx context.Context, endpoint string) error {
	n := p.cfg.Requests
	gen := p.runner.Generator()

	if p.isMixed() {
		// Half the calls are rejected, so only half the IDs were created
		switch endpoint {
		case config.GetCustomer:
			gen.Customers.Reset(1, n/2)
		case config.CreateAccount:
			gen.Customers.Reset(1, n)
		case config.GetAccount:
			gen.Accounts.Reset(1, n/2)
		}
	}

	switch endpoint {
	case config.DeleteAccount:
		if err := p.fill(ctx, endpoint); err != nil {
			return err
		}
		gen.Accounts.Reset(n+1, 2*n)
	case config.DeleteAccountsByCustomer:
		if err := p.fill(ctx, endpoint); err != nil {
			return err
		}
		gen.Customers.Reset(1, n)
		gen.Accounts.Reset(2*n+1, 3*n)
	}
	return nil
}

// fill recreates accounts the delete endpoints will remove. Invalid
// credentials cannot create anything, so that mode skips it.
func (p *Plan) fill(ctx context.Context, endpoint string) error {
	if !p.cfg.IsNoAuth() && p.cfg.Auth == config.AuthInvalid {
		return nil
	}
	p.logger.Info(fmt.Sprintf("Filling DB before running %s...", endpoint))
	if err := p.runner.FillAccounts(ctx, p.cfg.Requests, p.cfg.FillURL()); err != nil {
		return fmt.Errorf("filling accounts before %s: %w", endpoint, err)
	}
	return nil
}

func (p *Plan) after(endpoint string) {
	if config.RestoresCustomers(endpoint) {
		p.logger.Info(fmt.Sprintf("Restoring customer IDs after running %s...", endpoint))
		p.runner.Generator().Customers.Reset(1, p.cfg.Requests)
	}
}

func (p *Plan) isMixed() bool {
	return !p.cfg.IsNoAuth() && p.cfg.Auth == config.AuthMixed
}

// ExportSink POSTs each result to url. Failures are logged and do not stop the run.
func ExportSink(client *Client, url string, logger *zap.Logger) ResultSink {
	return func(ctx context.Context, result *EndpointResult) error {
		if err := client.PostJSON(ctx, url, result); err != nil {
			logger.Warn("Failed to export result",
				zap.String("endpoint", result.Endpoint),
				zap.String("url", url),
				zap.Error(err))
		}
		return nil
	}
}
