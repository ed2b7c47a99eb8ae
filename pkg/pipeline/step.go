// Package pipeline drives the ordered provisioning steps: idempotency
// probe, bounded retry, lifecycle events for reporters, trace and manifest
// artifacts. Resumability is probe-based; no run state is ever read back
// to decide what to do next.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ormasoftchile/mobup/pkg/probe"
)

// Status classifies one step execution.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Step is one unit of provisioning work.
type Step struct {
	// Name is the stable identifier used in traces, logs and Requires.
	Name string
	// Ordinal is the 1-based display position. Execution order comes from
	// the slice passed to the engine, never from this number.
	Ordinal int
	// Title is the human line reporters show.
	Title string
	// Check reports whether the step's effect is already in place. Nil
	// means the step always runs.
	Check probe.Func
	// Run performs the effect. Required.
	Run func(ctx context.Context) error
	// Retry bounds re-execution of Run. The zero value means one attempt.
	Retry RetryPolicy
	// Fatal marks steps whose failure aborts the run. Non-fatal failures
	// downgrade to warnings and the run continues.
	Fatal bool
	// When is an optional expr condition over the run environment. False
	// skips the step as disabled by configuration.
	When string
	// Requires names steps whose effects this one consumes. Validated
	// against slice order at engine construction.
	Requires []string
}

// Outcome is the recorded result of one step execution.
type Outcome struct {
	Step      string    `json:"step"              yaml:"step"`
	Ordinal   int       `json:"ordinal"           yaml:"ordinal"`
	Title     string    `json:"title"             yaml:"title"`
	Status    Status    `json:"status"            yaml:"status"`
	Fatal     bool      `json:"fatal"             yaml:"fatal"`
	Attempts  int       `json:"attempts"          yaml:"attempts"`
	Reason    string    `json:"reason,omitempty"  yaml:"reason,omitempty"`
	Error     string    `json:"error,omitempty"   yaml:"error,omitempty"`
	StartedAt time.Time `json:"started_at"        yaml:"started_at"`
	EndedAt   time.Time `json:"ended_at"          yaml:"ended_at"`
}

// RetryPolicy bounds how often a failing action is re-executed.
type RetryPolicy struct {
	// MaxAttempts caps total executions, first try included. Values below
	// one mean a single attempt.
	MaxAttempts int
	Backoff     Backoff
}

// Backoff computes the pause before a retry: exponential doubling from
// Base capped at Max, with jitter so machines kicked off together do not
// hit mirrors in lockstep.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DelayForAttempt returns the pause after the given zero-based attempt.
func (b Backoff) DelayForAttempt(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = 2 * time.Second
	}
	limit := b.Max
	if limit <= 0 {
		limit = 30 * time.Second
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= limit || d <= 0 {
			d = limit
			break
		}
	}
	if d > limit {
		d = limit
	}
	// ±20% jitter.
	return time.Duration(float64(d) * (0.8 + 0.4*rand.Float64()))
}
