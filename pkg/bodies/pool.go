// Package bodies builds randomized request bodies for the gateway endpoints
package bodies

import (
	"errors"
	"math/rand"
)

// ErrPoolExhausted is returned when an ID is requested from an empty pool
var ErrPoolExhausted = errors.New("id pool exhausted")

// IDPool is an unordered set of IDs that hands out random members
type IDPool struct {
	name string
	ids  []int
	rng  *rand.Rand
}

// NewIDPool creates an empty pool drawing from rng
func NewIDPool(name string, rng *rand.Rand) *IDPool {
	return &IDPool{name: name, rng: rng}
}

// Reset replaces the pool contents with the inclusive range [from, to]
func (p *IDPool) Reset(from, to int) {
	p.ids = p.ids[:0]
	for id := from; id <= to; id++ {
		p.ids = append(p.ids, id)
	}
}

// Pick returns a random ID and leaves it in the pool
func (p *IDPool) Pick() (int, error) {
	if len(p.ids) == 0 {
		return 0, p.exhausted()
	}
	return p.ids[p.rng.Intn(len(p.ids))], nil
}

// Take returns a random ID and removes it from the pool
func (p *IDPool) Take() (int, error) {
	if len(p.ids) == 0 {
		return 0, p.exhausted()
	}
	i := p.rng.Intn(len(p.ids))
	id := p.ids[i]
	last := len(p.ids) - 1
	p.ids[i] = p.ids[last]
	p.ids = p.ids[:last]
	return id, nil
}

// Len returns the number of IDs left
func (p *IDPool) Len() int {
	return len(p.ids)
}

// Name returns the pool name
func (p *IDPool) Name() string {
	return p.name
}

func (p *IDPool) exhausted() error {
	return &PoolError{Pool: p.name, Err: ErrPoolExhausted}
}

// PoolError names the pool that ran dry
type PoolError struct {
	Pool string
	Err  error
}

func (e *PoolError) Error() string {
	return e.Pool + ": " + e.Err.Error()
}

func (e *PoolError) Unwrap() error {
	return e.Err
}
