// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNew(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		l := New(Config{})
		defer l.Close()

		assert.Equal(t, DefaultBurstCapacity, l.burstCapacity)
		assert.Equal(t, DefaultSustainedRate, l.sustainedRate)
	})

	t.Run("keeps custom values", func(t *testing.T) {
		l := New(Config{BurstCapacity: 3, SustainedRate: 0.001})
		defer l.Close()

		assert.Equal(t, 3, l.burstCapacity)
		assert.Equal(t, 0.001, l.sustainedRate)
	})

	t.Run("negative values fall back to defaults", func(t *testing.T) {
		l := New(Config{BurstCapacity: -5, SustainedRate: -1.0})
		defer l.Close()

		assert.Equal(t, DefaultBurstCapacity, l.burstCapacity)
		assert.Equal(t, DefaultSustainedRate, l.sustainedRate)
	})
}

func TestLimiterAllow(t *testing.T) {
	t.Run("allows up to burst capacity", func(t *testing.T) {
		l := New(Config{BurstCapacity: 3, SustainedRate: 1.0})
		defer l.Close()

		for i := range 3 {
			allowed, cooldown := l.Allow("conn-1")
			assert.True(t, allowed, "call %d", i)
			assert.Equal(t, int64(0), cooldown)
		}

		allowed, cooldown := l.Allow("conn-1")
		assert.False(t, allowed)
		assert.Greater(t, cooldown, int64(0))
	})

	t.Run("reports cooldown until next token", func(t *testing.T) {
		l := New(Config{BurstCapacity: 1, SustainedRate: 2.0})
		defer l.Close()

		allowed, _ := l.Allow("conn-1")
		require.True(t, allowed)

		allowed, cooldownMs := l.Allow("conn-1")
		assert.False(t, allowed)
		assert.InDelta(t, 500, cooldownMs, 50)
	})

	t.Run("subjects have independent budgets", func(t *testing.T) {
		l := New(Config{BurstCapacity: 1, SustainedRate: 1.0})
		defer l.Close()

		allowed, _ := l.Allow("10.0.0.1")
		require.True(t, allowed)

		allowed, _ = l.Allow("10.0.0.1")
		assert.False(t, allowed)

		allowed, _ = l.Allow("10.0.0.2")
		assert.True(t, allowed)
	})

	t.Run("tokens refill over time", func(t *testing.T) {
		l := New(Config{BurstCapacity: 1, SustainedRate: 50.0})
		defer l.Close()

		allowed, _ := l.Allow("conn-1")
		require.True(t, allowed)
		allowed, _ = l.Allow("conn-1")
		require.False(t, allowed)

		time.Sleep(50 * time.Millisecond)

		allowed, _ = l.Allow("conn-1")
		assert.True(t, allowed)
	})

	t.Run("supports sub-hourly policies", func(t *testing.T) {
		// 3 per hour: burst 3, refill 3/3600 tokens per second.
		l := New(Config{BurstCapacity: 3, SustainedRate: 3.0 / 3600})
		defer l.Close()

		for range 3 {
			allowed, _ := l.Allow("203.0.113.9")
			require.True(t, allowed)
		}
		allowed, cooldownMs := l.Allow("203.0.113.9")
		assert.False(t, allowed)
		// Next token is most of 20 minutes away.
		assert.Greater(t, cooldownMs, int64(10*60*1000))
	})
}

func TestLimiterCleanup(t *testing.T) {
	l := New(Config{BurstCapacity: 1, SustainedRate: 1.0})
	defer l.Close()

	l.Allow("conn-1")
	l.Allow("conn-2")
	require.Equal(t, 2, l.SubjectCount())

	// Nothing is older than an hour yet.
	l.Cleanup(time.Hour)
	assert.Equal(t, 2, l.SubjectCount())

	l.Cleanup(0)
	assert.Equal(t, 0, l.SubjectCount())
}

func TestLimiterClose_StopsCleanupGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := New(Config{BurstCapacity: 1, SustainedRate: 1.0, CleanupInterval: time.Millisecond})
	l.Allow("conn-1")
	l.Close()
}
