package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"golang.org/x/sync/errgroup"

	"github.com/ormasoftchile/mobup/pkg/runlog"
)

// RunPhase is the lifecycle state of an engine.
type RunPhase string

const (
	PhaseIdle      RunPhase = "idle"
	PhaseRunning   RunPhase = "running"
	PhaseCompleted RunPhase = "completed"
	PhaseAborted   RunPhase = "aborted"
)

// Skip reasons reported in step outcomes and plans.
const (
	ReasonDisabled  = "disabled by configuration"
	ReasonSatisfied = "already satisfied"
)

// Options configures an engine run.
type Options struct {
	RunID string
	// Mode is recorded in the manifest ("setup" or "dry-run").
	Mode string
	// Env holds the values step conditions are evaluated against.
	Env      map[string]any
	Reporter Reporter
	Log      *runlog.Logger
	Trace    *TraceWriter
	// Tick is the interval between step_tick events for a running step.
	// Zero disables ticks.
	Tick time.Duration
}

// Engine drives an ordered step list to completion. Steps run strictly
// in order; a fatal failure aborts the run, a non-fatal failure is
// recorded as a warning and the run continues.
type Engine struct {
	steps    []Step
	opts     Options
	phase    RunPhase
	outcomes []Outcome
	summary  Summary
}

// NewEngine validates the step list and prepares a run.
func NewEngine(steps []Step, opts Options) (*Engine, error) {
	if err := ValidateOrder(steps); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = GenerateRunID()
	}
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}
	if opts.Log == nil {
		opts.Log = runlog.Discard()
	}
	return &Engine{steps: steps, opts: opts, phase: PhaseIdle}, nil
}

func (e *Engine) RunID() string       { return e.opts.RunID }
func (e *Engine) Phase() RunPhase     { return e.phase }
func (e *Engine) Outcomes() []Outcome { return e.outcomes }
func (e *Engine) Summary() Summary    { return e.summary }

// Run executes the pipeline. It returns an error only when the run
// aborted: a fatal step failed, or the context was cancelled. Non-fatal
// failures surface in the summary, not in the return value.
func (e *Engine) Run(ctx context.Context) error {
	e.phase = PhaseRunning
	e.summary = Summary{Total: len(e.steps)}
	total := len(e.steps)

	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			return e.abort(fmt.Sprintf("interrupted before step %s", step.Name), err)
		}

		outcome := e.executeStep(ctx, step, total)
		e.record(outcome)

		if outcome.Status == StatusFailed {
			if err := ctx.Err(); err != nil {
				return e.abort(fmt.Sprintf("interrupted during step %s", step.Name), err)
			}
			if step.Fatal {
				msg := fmt.Sprintf("step %s failed", step.Name)
				return e.abort(msg, fmt.Errorf("%s: %s", msg, outcome.Error))
			}
			e.opts.Log.StepEntry(step.Name).Warnf("non-fatal step failed, continuing: %s", outcome.Error)
		}
	}

	e.phase = PhaseCompleted
	e.trace(TraceEvent{Type: "run_completed", RunID: e.opts.RunID, Summary: &e.summary})
	e.opts.Reporter.Publish(Event{Kind: EventRunCompleted, Total: total, Summary: &e.summary})
	return nil
}

// executeStep evaluates the step's guard and probe, then runs the
// action under its retry policy. It never returns an error; failures
// are folded into the outcome.
func (e *Engine) executeStep(ctx context.Context, step Step, total int) Outcome {
	outcome := Outcome{
		Step:      step.Name,
		Ordinal:   step.Ordinal,
		Title:     step.Title,
		Fatal:     step.Fatal,
		StartedAt: time.Now(),
	}
	log := e.opts.Log.StepEntry(step.Name)

	enabled, err := evalCondition(step.When, e.opts.Env)
	if err != nil {
		// A malformed condition is a defect in the step list, not in
		// the machine. Fail the step rather than guess.
		log.Errorf("condition error: %v", err)
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		outcome.EndedAt = time.Now()
		e.publishTerminal(step, total, &outcome)
		return outcome
	}
	if !enabled {
		log.Infof("skipped: %s", ReasonDisabled)
		outcome.Status = StatusSkipped
		outcome.Reason = ReasonDisabled
		outcome.EndedAt = time.Now()
		e.publishTerminal(step, total, &outcome)
		return outcome
	}

	if step.Check != nil {
		satisfied, err := step.Check(ctx)
		if err != nil {
			log.Warnf("state probe failed, running step anyway: %v", err)
		} else if satisfied {
			log.Infof("skipped: %s", ReasonSatisfied)
			outcome.Status = StatusSkipped
			outcome.Reason = ReasonSatisfied
			outcome.EndedAt = time.Now()
			e.publishTerminal(step, total, &outcome)
			return outcome
		}
	}

	e.opts.Reporter.Publish(Event{
		Kind:    EventStepStarted,
		Step:    step.Name,
		Ordinal: step.Ordinal,
		Total:   total,
		Title:   step.Title,
	})
	log.Info("started")

	attempts, runErr := e.runAction(ctx, step, total)
	outcome.Attempts = attempts
	outcome.EndedAt = time.Now()
	if runErr != nil {
		log.Errorf("failed after %d attempt(s): %v", attempts, runErr)
		outcome.Status = StatusFailed
		outcome.Error = runErr.Error()
	} else {
		log.Infof("succeeded after %d attempt(s)", attempts)
		outcome.Status = StatusSucceeded
	}
	e.publishTerminal(step, total, &outcome)
	return outcome
}

// runAction runs the step action under its retry policy while a ticker
// goroutine publishes elapsed-time events. Both goroutines are joined
// before returning so no event for this step trails into the next one.
func (e *Engine) runAction(ctx context.Context, step Step, total int) (int, error) {
	log := e.opts.Log.StepEntry(step.Name)
	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Warnf("attempt %d failed, retrying in %s: %v", attempt, delay.Round(time.Millisecond), err)
	}

	var attempts int
	var runErr error
	done := make(chan struct{})
	started := time.Now()

	g, tickCtx := errgroup.WithContext(context.Background())
	if e.opts.Tick > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(e.opts.Tick)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-tickCtx.Done():
					return nil
				case <-ticker.C:
					e.opts.Reporter.Publish(Event{
						Kind:    EventStepTick,
						Step:    step.Name,
						Ordinal: step.Ordinal,
						Total:   total,
						Title:   step.Title,
						Elapsed: time.Since(started),
					})
				}
			}
		})
	}
	g.Go(func() error {
		defer close(done)
		attempts, runErr = step.Retry.Run(ctx, step.Run, onRetry)
		return nil
	})
	g.Wait()
	return attempts, runErr
}

// publishTerminal records a step's final event and trace entry.
func (e *Engine) publishTerminal(step Step, total int, outcome *Outcome) {
	kind := EventStepSucceeded
	switch outcome.Status {
	case StatusSkipped:
		kind = EventStepSkipped
	case StatusFailed:
		kind = EventStepFailed
	}
	e.trace(TraceEvent{Type: "step_outcome", RunID: e.opts.RunID, Outcome: outcome})
	e.opts.Reporter.Publish(Event{
		Kind:    kind,
		Step:    step.Name,
		Ordinal: step.Ordinal,
		Total:   total,
		Title:   step.Title,
		Outcome: outcome,
	})
}

func (e *Engine) record(outcome Outcome) {
	e.outcomes = append(e.outcomes, outcome)
	switch outcome.Status {
	case StatusSucceeded:
		e.summary.Succeeded++
	case StatusSkipped:
		e.summary.Skipped++
	case StatusFailed:
		if outcome.Fatal {
			e.summary.Failed++
		} else {
			e.summary.Warnings++
		}
	}
}

func (e *Engine) abort(message string, err error) error {
	e.phase = PhaseAborted
	e.opts.Log.Errorf("run aborted: %s", message)
	e.trace(TraceEvent{Type: "run_aborted", RunID: e.opts.RunID, Summary: &e.summary, Message: message})
	e.opts.Reporter.Publish(Event{
		Kind:    EventRunAborted,
		Total:   len(e.steps),
		Summary: &e.summary,
		Message: message,
	})
	return err
}

func (e *Engine) trace(event TraceEvent) {
	if e.opts.Trace == nil {
		return
	}
	if err := e.opts.Trace.Write(event); err != nil {
		e.opts.Log.Warnf("trace write failed: %v", err)
	}
}

// evalCondition evaluates a step's `when` expression against env.
// An empty condition is always true.
func evalCondition(exprStr string, env map[string]any) (bool, error) {
	exprStr = strings.TrimSpace(exprStr)
	if exprStr == "" {
		return true, nil
	}
	if env == nil {
		env = map[string]any{}
	}
	program, err := expr.Compile(exprStr, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", exprStr, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", exprStr, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T: %v)", exprStr, output, output)
	}
	return result, nil
}
