package service

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultAvailabilityRate matches the roughly nine in ten successful bank
// network checks the gateway has always simulated.
const DefaultAvailabilityRate = 0.9

// RandomAvailability reports the bank network as available with probability rate.
type RandomAvailability struct {
	rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomAvailability clamps rate to [0, 1].
func NewRandomAvailability(rate float64) *RandomAvailability {
	return NewRandomAvailabilityWithSource(rate, rand.NewSource(time.Now().UnixNano()))
}

func NewRandomAvailabilityWithSource(rate float64, src rand.Source) *RandomAvailability {
	switch {
	case rate < 0:
		rate = 0
	case rate > 1:
		rate = 1
	}
	return &RandomAvailability{rate: rate, rng: rand.New(src)}
}

func (a *RandomAvailability) Available(_ context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64() < a.rate
}

// FixedAvailability always gives the same answer.
type FixedAvailability bool

func (f FixedAvailability) Available(_ context.Context) bool {
	return bool(f)
}
