// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package ratelimit provides a token-bucket rate limiter keyed by an
// arbitrary subject string (connection id, client address).
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Defaults applied when a Config field is zero or negative.
const (
	DefaultBurstCapacity = 10

	DefaultSustainedRate = 2.0 // tokens per second

	// DefaultCleanupInterval is the interval at which the background
	// goroutine removes stale subjects.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultSubjectMaxAge is how long an idle subject is tracked before
	// cleanup drops it.
	DefaultSubjectMaxAge = time.Hour
)

// Config configures a Limiter.
type Config struct {
	// BurstCapacity is the maximum number of operations allowed in a burst.
	BurstCapacity int

	// SustainedRate is the token refill rate in tokens per second.
	SustainedRate float64

	// CleanupInterval is the interval at which background cleanup runs.
	CleanupInterval time.Duration

	// SubjectMaxAge is the maximum idle age before a subject is dropped.
	SubjectMaxAge time.Duration
}

// bucket tracks token-bucket state for a single subject.
type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter implements per-subject rate limiting using a token bucket.
// It is safe for concurrent use.
//
// The Limiter runs a background goroutine to drop idle subjects.
// Call Close to stop it.
type Limiter struct {
	mu            sync.Mutex
	subjects      map[string]*bucket
	burstCapacity int
	sustainedRate float64
	subjectMaxAge time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup

	// nil unless a Prometheus registry was provided
	subjectGauge prometheus.Gauge
}

// New creates a Limiter with the given configuration and starts its cleanup
// goroutine. Call Close to stop it.
func New(cfg Config) *Limiter {
	return newLimiter(cfg, nil)
}

// NewWithRegistry creates a Limiter and registers a tracked-subject gauge
// with the provided Prometheus registry.
func NewWithRegistry(cfg Config, reg prometheus.Registerer) *Limiter {
	return newLimiter(cfg, reg)
}

func newLimiter(cfg Config, reg prometheus.Registerer) *Limiter {
	burstCapacity := cfg.BurstCapacity
	if burstCapacity <= 0 {
		burstCapacity = DefaultBurstCapacity
	}

	sustainedRate := cfg.SustainedRate
	if sustainedRate <= 0 {
		sustainedRate = DefaultSustainedRate
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	subjectMaxAge := cfg.SubjectMaxAge
	if subjectMaxAge <= 0 {
		subjectMaxAge = DefaultSubjectMaxAge
	}

	l := &Limiter{
		subjects:      make(map[string]*bucket),
		burstCapacity: burstCapacity,
		sustainedRate: sustainedRate,
		subjectMaxAge: subjectMaxAge,
		stopChan:      make(chan struct{}),
	}

	if reg != nil {
		l.subjectGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "embergate_ratelimiter_subjects",
			Help: "Current number of tracked rate limiter subjects",
		})
		reg.MustRegister(l.subjectGauge)
	}

	l.wg.Add(1)
	go l.cleanupLoop(cleanupInterval)

	return l
}

// Allow consumes one token for the subject if available.
// Returns (allowed, cooldownMs) where cooldownMs is the time until the next
// token becomes available (0 if allowed).
func (l *Limiter) Allow(subject string) (allowed bool, cooldownMs int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	b, exists := l.subjects[subject]
	if !exists {
		// New subjects start with a full bucket.
		b = &bucket{
			tokens:    float64(l.burstCapacity),
			lastCheck: now,
		}
		l.subjects[subject] = b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	b.tokens += elapsed * l.sustainedRate
	if b.tokens > float64(l.burstCapacity) {
		b.tokens = float64(l.burstCapacity)
	}
	b.lastCheck = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, 0
	}

	deficit := 1.0 - b.tokens
	cooldownMs = int64(deficit / l.sustainedRate * 1000)
	return false, cooldownMs
}

// SubjectCount returns the number of tracked subjects.
func (l *Limiter) SubjectCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subjects)
}

// Cleanup drops subjects idle for longer than maxAge. It runs automatically
// from the background goroutine but can be called directly.
func (l *Limiter) Cleanup(maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := time.Now().Add(-maxAge)
	for subject, b := range l.subjects {
		if b.lastCheck.Before(threshold) {
			delete(l.subjects, subject)
		}
	}

	if l.subjectGauge != nil {
		l.subjectGauge.Set(float64(len(l.subjects)))
	}
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.Cleanup(l.subjectMaxAge)
		}
	}
}

// Close stops the background cleanup goroutine. It blocks until the
// goroutine has stopped.
func (l *Limiter) Close() {
	close(l.stopChan)
	l.wg.Wait()
}
