package pipeline

import "time"

// EventKind identifies what a pipeline event describes.
type EventKind string

const (
	EventStepStarted   EventKind = "step_started"
	EventStepTick      EventKind = "step_tick"
	EventStepSkipped   EventKind = "step_skipped"
	EventStepSucceeded EventKind = "step_succeeded"
	EventStepFailed    EventKind = "step_failed"
	EventRunCompleted  EventKind = "run_completed"
	EventRunAborted    EventKind = "run_aborted"
)

// Event is a purely observational notification emitted by the engine.
// Reporters render it; nothing the engine decides depends on whether
// anyone is listening.
type Event struct {
	Kind    EventKind
	Step    string
	Ordinal int
	Total   int
	Title   string
	// Outcome is set on step_skipped, step_succeeded and step_failed.
	Outcome *Outcome
	// Elapsed is set on step_tick: time since the step started.
	Elapsed time.Duration
	// Summary is set on run_completed and run_aborted.
	Summary *Summary
	Message string
}

// Summary totals a finished or aborted run.
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Warnings  int `json:"warnings" yaml:"warnings"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Reporter consumes pipeline events. Publish must not block for long;
// the engine calls it inline between step executions.
type Reporter interface {
	Publish(Event)
}

// MultiReporter fans events out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Publish(ev Event) {
	for _, r := range m {
		if r != nil {
			r.Publish(ev)
		}
	}
}

// NopReporter ignores all events.
type NopReporter struct{}

func (NopReporter) Publish(Event) {}
