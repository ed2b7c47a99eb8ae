package pipeline

import "context"

// PlanEntry describes what a run would do for one step.
type PlanEntry struct {
	Step    string `json:"step"    yaml:"step"`
	Ordinal int    `json:"ordinal" yaml:"ordinal"`
	Title   string `json:"title"   yaml:"title"`
	// Action is "run" or "skip".
	Action string `json:"action"           yaml:"action"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Fatal  bool   `json:"fatal"            yaml:"fatal"`
}

// Plan evaluates each step's condition and probe without executing any
// action. Probes are side-effect free, so planning never changes the
// machine. A probe error counts as "run": the engine would attempt the
// step in the same situation.
func Plan(ctx context.Context, steps []Step, env map[string]any) ([]PlanEntry, error) {
	if err := ValidateOrder(steps); err != nil {
		return nil, err
	}
	entries := make([]PlanEntry, 0, len(steps))
	for _, s := range steps {
		entry := PlanEntry{Step: s.Name, Ordinal: s.Ordinal, Title: s.Title, Action: "run", Fatal: s.Fatal}
		enabled, err := evalCondition(s.When, env)
		if err != nil {
			return nil, err
		}
		switch {
		case !enabled:
			entry.Action = "skip"
			entry.Reason = ReasonDisabled
		case s.Check != nil:
			satisfied, err := s.Check(ctx)
			if err != nil {
				entry.Reason = "state probe failed; step would be attempted"
			} else if satisfied {
				entry.Action = "skip"
				entry.Reason = ReasonSatisfied
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
