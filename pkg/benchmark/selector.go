package benchmark

import (
	"context"
	"time"
)

// RateLimiter controls the rate of requests using a token bucket algorithm
type RateLimiter struct {
	tokens chan struct{}
	done   chan struct{}
	ticker *time.Ticker
}

// NewRateLimiter creates a new rate limiter, or nil when the rate is unlimited
func NewRateLimiter(ratePerSecond int) *RateLimiter {
	if ratePerSecond <= 0 {
		return nil
	}

	rl := &RateLimiter{
		tokens: make(chan struct{}, ratePerSecond), // one second of burst
		done:   make(chan struct{}),
	}

	// Start with a single token so the first second is not a burst
	rl.tokens <- struct{}{}

	interval := time.Second / time.Duration(ratePerSecond)
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	rl.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-rl.done:
				return
			case <-rl.ticker.C:
				select {
				case rl.tokens <- struct{}{}:
				default:
				}
			}
		}
	}()

	return rl
}

// Wait blocks until a token is available. It returns false if ctx ends first.
func (rl *RateLimiter) Wait(ctx context.Context) bool {
	if rl == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-rl.tokens:
		return true
	}
}

// Stop stops the rate limiter
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	close(rl.done)
	rl.ticker.Stop()
}

// Validity indexes the two URLs of a mixed run
const (
	Invalid = 0
	Valid   = 1
)

// ValidityPicker splits a mixed run evenly between invalid and valid calls,
// in random order
type ValidityPicker struct {
	intn   func(int) int
	target int
	counts [2]int
}

// NewValidityPicker creates a picker for n requests. intn is the random source.
func NewValidityPicker(n int, intn func(int) int) *ValidityPicker {
	return &ValidityPicker{intn: intn, target: n / 2}
}

// Next returns Invalid or Valid. Once one side reaches n/2 the other is used,
// so an odd n gives the extra request to whichever side filled last.
func (p *ValidityPicker) Next() int {
	r := p.intn(2)
	choice := r
	if p.counts[r] >= p.target {
		choice = 1 - r
	}
	p.counts[choice]++
	return choice
}

// Counts returns how many invalid and valid calls were handed out
func (p *ValidityPicker) Counts() (invalid, valid int) {
	return p.counts[Invalid], p.counts[Valid]
}
