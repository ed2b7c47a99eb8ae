package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"
)

// TestRunIDFormat validates the run ID format: timestamp+short random suffix.
func TestRunIDFormat(t *testing.T) {
	id := GenerateRunID()
	re := regexp.MustCompile(`^\d{8}T\d{6}-[a-f0-9]{8}$`)
	if !re.MatchString(id) {
		t.Errorf("RunID %q does not match expected format YYYYMMDDTHHmmss-xxxx", id)
	}
}

// recordingReporter captures published events for assertions.
type recordingReporter struct {
	events []Event
}

func (r *recordingReporter) Publish(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recordingReporter) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		if ev.Kind == EventStepTick {
			continue
		}
		out = append(out, ev.Kind)
	}
	return out
}

func okStep(name string, ordinal int) Step {
	return Step{
		Name:    name,
		Ordinal: ordinal,
		Title:   name,
		Run:     func(context.Context) error { return nil },
		Fatal:   true,
	}
}

func TestEngineRunsAllStepsInOrder(t *testing.T) {
	var order []string
	mk := func(name string, ordinal int) Step {
		s := okStep(name, ordinal)
		s.Run = func(context.Context) error {
			order = append(order, name)
			return nil
		}
		return s
	}
	rep := &recordingReporter{}
	eng, err := NewEngine([]Step{mk("first", 1), mk("second", 2), mk("third", 3)}, Options{Reporter: rep})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := strings.Join(order, ","); got != "first,second,third" {
		t.Errorf("execution order = %q", got)
	}
	if eng.Phase() != PhaseCompleted {
		t.Errorf("phase = %q, want %q", eng.Phase(), PhaseCompleted)
	}
	sum := eng.Summary()
	if sum.Total != 3 || sum.Succeeded != 3 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	want := []EventKind{
		EventStepStarted, EventStepSucceeded,
		EventStepStarted, EventStepSucceeded,
		EventStepStarted, EventStepSucceeded,
		EventRunCompleted,
	}
	got := rep.kinds()
	if len(got) != len(want) {
		t.Fatalf("event kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEngineSkipsSatisfiedStep(t *testing.T) {
	ran := false
	s := okStep("jdk", 1)
	s.Check = func(context.Context) (bool, error) { return true, nil }
	s.Run = func(context.Context) error {
		ran = true
		return nil
	}
	eng, _ := NewEngine([]Step{s}, Options{})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran {
		t.Error("satisfied step was executed")
	}
	out := eng.Outcomes()[0]
	if out.Status != StatusSkipped || out.Reason != ReasonSatisfied {
		t.Errorf("outcome = %+v", out)
	}
	if eng.Summary().Skipped != 1 {
		t.Errorf("summary = %+v", eng.Summary())
	}
}

func TestEngineRunsStepWhenProbeFails(t *testing.T) {
	ran := false
	s := okStep("jdk", 1)
	s.Check = func(context.Context) (bool, error) { return false, errors.New("probe exploded") }
	s.Run = func(context.Context) error {
		ran = true
		return nil
	}
	eng, _ := NewEngine([]Step{s}, Options{})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Error("step with failing probe was not executed")
	}
	if eng.Outcomes()[0].Status != StatusSucceeded {
		t.Errorf("outcome = %+v", eng.Outcomes()[0])
	}
}

func TestEngineSkipsDisabledStep(t *testing.T) {
	ran := false
	s := okStep("avd", 1)
	s.When = "create_avd"
	s.Run = func(context.Context) error {
		ran = true
		return nil
	}
	eng, _ := NewEngine([]Step{s}, Options{Env: map[string]any{"create_avd": false}})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran {
		t.Error("disabled step was executed")
	}
	out := eng.Outcomes()[0]
	if out.Status != StatusSkipped || out.Reason != ReasonDisabled {
		t.Errorf("outcome = %+v", out)
	}
}

func TestEngineFatalFailureAborts(t *testing.T) {
	reached := false
	fail := okStep("jdk", 1)
	fail.Run = func(context.Context) error { return errors.New("download refused") }
	after := okStep("flutter", 2)
	after.Run = func(context.Context) error {
		reached = true
		return nil
	}
	rep := &recordingReporter{}
	eng, _ := NewEngine([]Step{fail, after}, Options{Reporter: rep})
	err := eng.Run(context.Background())
	if err == nil {
		t.Fatal("fatal failure did not abort the run")
	}
	if reached {
		t.Error("step after fatal failure was executed")
	}
	if eng.Phase() != PhaseAborted {
		t.Errorf("phase = %q", eng.Phase())
	}
	last := rep.events[len(rep.events)-1]
	if last.Kind != EventRunAborted {
		t.Errorf("last event = %q, want %q", last.Kind, EventRunAborted)
	}
	if last.Summary.Failed != 1 {
		t.Errorf("summary = %+v", last.Summary)
	}
}

func TestEngineNonFatalFailureContinues(t *testing.T) {
	reached := false
	warn := okStep("kvm", 1)
	warn.Fatal = false
	warn.Run = func(context.Context) error { return errors.New("usermod refused") }
	after := okStep("avd", 2)
	after.Run = func(context.Context) error {
		reached = true
		return nil
	}
	eng, _ := NewEngine([]Step{warn, after}, Options{})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error for non-fatal failure: %v", err)
	}
	if !reached {
		t.Error("step after non-fatal failure was not executed")
	}
	sum := eng.Summary()
	if sum.Warnings != 1 || sum.Failed != 0 || sum.Succeeded != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if eng.Phase() != PhaseCompleted {
		t.Errorf("phase = %q", eng.Phase())
	}
}

func TestEngineRetriesUpToBound(t *testing.T) {
	calls := 0
	s := okStep("sdk-packages", 1)
	s.Retry = RetryPolicy{MaxAttempts: 3, Backoff: Backoff{Base: time.Millisecond, Max: time.Millisecond}}
	s.Run = func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient %d", calls)
		}
		return nil
	}
	eng, _ := NewEngine([]Step{s}, Options{})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := eng.Outcomes()[0]
	if calls != 3 || out.Attempts != 3 || out.Status != StatusSucceeded {
		t.Errorf("calls = %d, outcome = %+v", calls, out)
	}
}

func TestEngineRetryBoundIsExact(t *testing.T) {
	calls := 0
	s := okStep("jdk", 1)
	s.Fatal = false
	s.Retry = RetryPolicy{MaxAttempts: 2, Backoff: Backoff{Base: time.Millisecond, Max: time.Millisecond}}
	s.Run = func(context.Context) error {
		calls++
		return errors.New("always down")
	}
	eng, _ := NewEngine([]Step{s}, Options{})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Errorf("action ran %d times, want exactly 2", calls)
	}
	out := eng.Outcomes()[0]
	if out.Attempts != 2 || out.Status != StatusFailed {
		t.Errorf("outcome = %+v", out)
	}
}

func TestEngineIsolatesStepPanic(t *testing.T) {
	s := okStep("jdk", 1)
	s.Fatal = false
	s.Run = func(context.Context) error { panic("corrupted archive index") }
	eng, _ := NewEngine([]Step{s}, Options{})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := eng.Outcomes()[0]
	if out.Status != StatusFailed {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.Contains(out.Error, "step panic: corrupted archive index") {
		t.Errorf("panic not captured in outcome: %q", out.Error)
	}
}

func TestEngineAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reached := false
	first := okStep("first", 1)
	first.Run = func(context.Context) error {
		cancel()
		return ctx.Err()
	}
	second := okStep("second", 2)
	second.Run = func(context.Context) error {
		reached = true
		return nil
	}
	rep := &recordingReporter{}
	eng, _ := NewEngine([]Step{first, second}, Options{Reporter: rep})
	err := eng.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if reached {
		t.Error("step after cancellation was executed")
	}
	if eng.Phase() != PhaseAborted {
		t.Errorf("phase = %q", eng.Phase())
	}
	last := rep.events[len(rep.events)-1]
	if last.Kind != EventRunAborted {
		t.Errorf("last event = %q", last.Kind)
	}
}

func TestEngineEmitsTicksForSlowStep(t *testing.T) {
	s := okStep("flutter", 1)
	s.Run = func(ctx context.Context) error {
		time.Sleep(120 * time.Millisecond)
		return nil
	}
	rep := &recordingReporter{}
	eng, _ := NewEngine([]Step{s}, Options{Reporter: rep, Tick: 20 * time.Millisecond})
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	ticks := 0
	for _, ev := range rep.events {
		if ev.Kind == EventStepTick {
			ticks++
			if ev.Elapsed <= 0 {
				t.Errorf("tick without elapsed time: %+v", ev)
			}
		}
	}
	if ticks == 0 {
		t.Error("no tick events for a slow step")
	}
	// The terminal event must come after every tick.
	if rep.events[len(rep.events)-2].Kind == EventStepTick && rep.events[len(rep.events)-1].Kind != EventRunCompleted {
		t.Errorf("events out of order: %v", rep.kinds())
	}
}

func TestEvalCondition(t *testing.T) {
	env := map[string]any{"create_avd": true, "os": "linux"}
	cases := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"create_avd", true},
		{"!create_avd", false},
		{`os == "linux"`, true},
		{`os == "windows"`, false},
		{`create_avd && os == "linux"`, true},
	}
	for _, tc := range cases {
		got, err := evalCondition(tc.expr, env)
		if err != nil {
			t.Errorf("evalCondition(%q): %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("evalCondition(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
	if _, err := evalCondition("os +", env); err == nil {
		t.Error("malformed expression did not error")
	}
}

func TestValidateOrder(t *testing.T) {
	ok := []Step{okStep("a", 1), func() Step { s := okStep("b", 2); s.Requires = []string{"a"}; return s }()}
	if err := ValidateOrder(ok); err != nil {
		t.Errorf("valid order rejected: %v", err)
	}

	dup := []Step{okStep("a", 1), okStep("a", 2)}
	if err := ValidateOrder(dup); err == nil {
		t.Error("duplicate names accepted")
	}

	unknown := []Step{func() Step { s := okStep("a", 1); s.Requires = []string{"ghost"}; return s }()}
	if err := ValidateOrder(unknown); err == nil {
		t.Error("unknown requirement accepted")
	}

	later := []Step{
		func() Step { s := okStep("a", 1); s.Requires = []string{"b"}; return s }(),
		okStep("b", 2),
	}
	if err := ValidateOrder(later); err == nil {
		t.Error("forward requirement accepted")
	}
}

func TestBackoffDelayForAttempt(t *testing.T) {
	b := Backoff{Base: 2 * time.Second, Max: 30 * time.Second}
	prev := time.Duration(0)
	for i := 0; i < 6; i++ {
		d := b.DelayForAttempt(i)
		// Jitter stays within +-20% of the doubled base, capped at Max.
		ideal := 2 * time.Second << uint(i)
		if ideal > 30*time.Second {
			ideal = 30 * time.Second
		}
		lo := time.Duration(float64(ideal) * 0.8)
		hi := time.Duration(float64(ideal) * 1.2)
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay %s outside [%s, %s]", i, d, lo, hi)
		}
		if i < 4 && d <= prev/2 {
			t.Errorf("attempt %d: delay %s did not grow from %s", i, d, prev)
		}
		prev = d
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := RetryPolicy{MaxAttempts: 5, Backoff: Backoff{Base: time.Hour, Max: time.Hour}}
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	attempts, err := p.Run(ctx, func(context.Context) error {
		calls++
		return errors.New("down")
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 || attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1 each", calls, attempts)
	}
}
