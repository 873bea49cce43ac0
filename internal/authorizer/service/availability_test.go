package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("always available at rate one", func(t *testing.T) {
		a := NewRandomAvailabilityWithSource(1, rand.NewSource(1))
		for i := 0; i < 100; i++ {
			assert.True(t, a.Available(ctx))
		}
	})

	t.Run("never available at rate zero", func(t *testing.T) {
		a := NewRandomAvailabilityWithSource(0, rand.NewSource(1))
		for i := 0; i < 100; i++ {
			assert.False(t, a.Available(ctx))
		}
	})

	t.Run("rate is clamped", func(t *testing.T) {
		assert.Equal(t, 1.0, NewRandomAvailability(7).rate)
		assert.Equal(t, 0.0, NewRandomAvailability(-3).rate)
	})

	t.Run("default rate is roughly honored", func(t *testing.T) {
		a := NewRandomAvailabilityWithSource(DefaultAvailabilityRate, rand.NewSource(42))
		available := 0
		const draws = 10000
		for i := 0; i < draws; i++ {
			if a.Available(ctx) {
				available++
			}
		}
		assert.InDelta(t, DefaultAvailabilityRate, float64(available)/draws, 0.03)
	})
}

func TestFixedAvailability(t *testing.T) {
	assert.True(t, FixedAvailability(true).Available(context.Background()))
	assert.False(t, FixedAvailability(false).Available(context.Background()))
}
