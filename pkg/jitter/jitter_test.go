package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Duration(time.Second, DefaultJitter)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestSpreadRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Spread(time.Minute, 0.1)
		assert.GreaterOrEqual(t, d, 54*time.Second)
		assert.LessOrEqual(t, d, 66*time.Second)
	}
	assert.Equal(t, time.Minute, Spread(time.Minute, 0))
}

func TestExponentialBackoffCapped(t *testing.T) {
	d := ExponentialBackoff(time.Second, 4*time.Second, 10, 0)
	assert.Equal(t, 4*time.Second, d)

	d = ExponentialBackoff(time.Second, time.Minute, 2, 0)
	assert.Equal(t, 4*time.Second, d)
}
