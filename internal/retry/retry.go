// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package retry computes the next retry instant for a scheduled sync that
// ended in ERROR (spec.md §7 "Retries"): a per-profile exponential backoff
// with jitter, reset to zero on DONE.
package retry

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy tracks per-profile retry state. A profile with no recorded
// failures has no entry and is not subject to any retry limit.
type Policy struct {
	mu       sync.Mutex
	backoffs map[string]*backoff.ExponentialBackOff
	MaxTries int // 0 means unlimited
	tries    map[string]int
}

// NewPolicy returns a Policy with the given cap on consecutive retries
// (0 means unlimited).
func NewPolicy(maxTries int) *Policy {
	return &Policy{
		backoffs: make(map[string]*backoff.ExponentialBackOff),
		tries:    make(map[string]int),
		MaxTries: maxTries,
	}
}

func (p *Policy) boFor(profileName string) *backoff.ExponentialBackOff {
	b, ok := p.backoffs[profileName]
	if !ok {
		b = backoff.NewExponentialBackOff()
		b.InitialInterval = 30 * time.Second
		b.MaxInterval = 30 * time.Minute
		b.Multiplier = 2.0
		p.backoffs[profileName] = b
	}
	return b
}

// NextRetry returns the instant at which profileName should be retried
// after an ERROR outcome at `now`, and whether a retry is still permitted
// (false once MaxTries consecutive failures have been recorded).
func (p *Policy) NextRetry(profileName string, now time.Time) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tries[profileName]++
	if p.MaxTries > 0 && p.tries[profileName] > p.MaxTries {
		return time.Time{}, false
	}

	b := p.boFor(profileName)
	d := b.NextBackOff()
	if d == backoff.Stop {
		return time.Time{}, false
	}
	return now.Add(d), true
}

// Reset clears retry state for profileName, per spec.md §7 "On DONE the
// retry counter resets."
func (p *Policy) Reset(profileName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.backoffs, profileName)
	delete(p.tries, profileName)
}

// Attempts reports the number of consecutive ERROR outcomes recorded for
// profileName since its last Reset.
func (p *Policy) Attempts(profileName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tries[profileName]
}
