package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandRunner produces one stats snapshot
type CommandRunner interface {
	Run(ctx context.Context) ([]byte, error)
}

// ExecRunner runs an external command, `docker stats --no-stream` by default
type ExecRunner struct {
	Args []string
}

// Run executes the command and returns its standard output
func (e ExecRunner) Run(ctx context.Context) ([]byte, error) {
	if len(e.Args) == 0 {
		return nil, errors.New("no stats command configured")
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Args[0], e.Args[1:]...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", strings.Join(e.Args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s: %w", strings.Join(e.Args, " "), err)
	}
	return out, nil
}

// Sampler runs the stats command and parses its output
type Sampler struct {
	runner CommandRunner
	logger *zap.Logger
}

// NewSampler creates a sampler over runner
func NewSampler(runner CommandRunner, logger *zap.Logger) *Sampler {
	return &Sampler{runner: runner, logger: logger}
}

// Snapshot runs the command once and returns the parsed samples
func (s *Sampler) Snapshot(ctx context.Context) ([]Sample, error) {
	out, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	samples, skipped := ParseStats(out)
	if skipped > 0 {
		s.logger.Warn("Skipped unparsable stats lines", zap.Int("count", skipped))
	}
	return samples, nil
}

// Capture takes iterations snapshots, interval apart, and aggregates them.
// observe, if set, sees every snapshot. The first command failure aborts
// the capture.
func (s *Sampler) Capture(ctx context.Context, iterations int, interval time.Duration, observe func([]Sample)) (*Aggregator, error) {
	agg := NewAggregator()
	for i := iterations; i > 0; i-- {
		s.logger.Info(fmt.Sprintf("Iteration %d", i))

		samples, err := s.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iterations-i+1, err)
		}
		agg.Add(samples)
		if observe != nil {
			observe(samples)
		}

		if i > 1 && interval > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return agg, nil
}
