// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"time"

	"github.com/cenkalti/backoff/v3"

	"github.com/MKhiriev/go-offline-sync/internal/config"
)

// BackoffPolicy describes the retry delays shared by the sync coordinator
// and the live channel: Base doubling up to Max, randomised by Jitter, for
// at most MaxRetries consecutive retries.
type BackoffPolicy struct {
	Base       time.Duration
	Max        time.Duration
	Jitter     float64
	MaxRetries int
}

// NewBackoffPolicy takes the policy from the worker configuration.
func NewBackoffPolicy(cfg config.ClientWorkers) BackoffPolicy {
	return BackoffPolicy{
		Base:       cfg.BackoffBase,
		Max:        cfg.BackoffMax,
		Jitter:     cfg.BackoffJitter,
		MaxRetries: cfg.MaxRetries,
	}
}

// retrier hands out successive delays of a policy. It is not safe for
// concurrent use; each loop owns its own.
type retrier struct {
	max time.Duration
	b   backoff.BackOff
}

func (p BackoffPolicy) newRetrier() *retrier {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Base
	exp.Multiplier = 2
	exp.MaxInterval = p.Max
	exp.RandomizationFactor = p.Jitter
	exp.MaxElapsedTime = 0
	exp.Reset()

	var b backoff.BackOff = exp
	if p.MaxRetries > 0 {
		b = backoff.WithMaxRetries(exp, uint64(p.MaxRetries))
	}
	return &retrier{max: p.Max, b: b}
}

// next returns the delay before the next retry, or false once the retry
// budget is spent.
func (r *retrier) next() (time.Duration, bool) {
	d := r.b.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	if r.max > 0 && d > r.max {
		d = r.max
	}
	return d, true
}

// reset starts the sequence over after a success.
func (r *retrier) reset() {
	r.b.Reset()
}
