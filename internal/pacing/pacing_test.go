package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowUnlimitedByDefault(t *testing.T) {
	p := New(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, p.Allow())
	}
}

func TestAllowEnforcesBudget(t *testing.T) {
	p := New(0, 2)

	assert.True(t, p.Allow())
	assert.True(t, p.Allow())
	assert.False(t, p.Allow())
	assert.False(t, p.Allow())

	stats := p.Stats()
	assert.Equal(t, 2, stats["requests_used"])
	assert.Equal(t, 2, stats["requests_denied"])
}

func TestWaitFirstCallDoesNotBlock(t *testing.T) {
	p := New(time.Minute, 0)

	start := time.Now()
	assert.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitSpacesConsecutiveCalls(t *testing.T) {
	p := New(50*time.Millisecond, 0)

	assert.NoError(t, p.Wait(context.Background()))
	start := time.Now()
	assert.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitHonorsCancellation(t *testing.T) {
	p := New(time.Hour, 0)
	assert.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}
