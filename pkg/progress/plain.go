package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/ormasoftchile/mobup/pkg/pipeline"
	"github.com/ormasoftchile/mobup/pkg/runlog"
)

// PlainReporter prints one line per step transition, suitable for
// non-interactive terminals and CI logs. In Silent mode only failures
// and the final summary are printed.
type PlainReporter struct {
	Out       io.Writer
	Verbosity runlog.Verbosity
}

// NewPlainReporter returns a reporter writing to out.
func NewPlainReporter(out io.Writer, v runlog.Verbosity) *PlainReporter {
	return &PlainReporter{Out: out, Verbosity: v}
}

func (p *PlainReporter) Publish(ev pipeline.Event) {
	silent := p.Verbosity == runlog.Silent
	switch ev.Kind {
	case pipeline.EventStepStarted:
		if !silent {
			fmt.Fprintf(p.Out, "\n%s Step %d/%d: %s [%s]\n", GlyphRunning, ev.Ordinal, ev.Total, ev.Title, ev.Step)
		}
	case pipeline.EventStepTick:
		if !silent {
			fmt.Fprintf(p.Out, "  %s still working (%s)\n", GlyphIterating, ev.Elapsed.Round(time.Second))
		}
	case pipeline.EventStepSkipped:
		if !silent {
			fmt.Fprintf(p.Out, "\n%s Step %d/%d: %s [%s] — skipped (%s)\n", GlyphSkipped, ev.Ordinal, ev.Total, ev.Title, ev.Step, ev.Outcome.Reason)
		}
	case pipeline.EventStepSucceeded:
		if !silent {
			fmt.Fprintf(p.Out, "  %s Step %q passed%s\n", GlyphPassed, ev.Step, attemptsSuffix(ev.Outcome))
		}
	case pipeline.EventStepFailed:
		if ev.Outcome.Fatal {
			fmt.Fprintf(p.Out, "  %s Step %q failed: %s\n", GlyphFailed, ev.Step, ev.Outcome.Error)
		} else {
			fmt.Fprintf(p.Out, "  %s Step %q failed (non-fatal): %s\n", GlyphWarning, ev.Step, ev.Outcome.Error)
		}
	case pipeline.EventRunCompleted:
		s := ev.Summary
		fmt.Fprintf(p.Out, "\n%s Setup completed (%d steps: %d ok, %d skipped, %d warnings)\n",
			GlyphPassed, s.Total, s.Succeeded, s.Skipped, s.Warnings)
	case pipeline.EventRunAborted:
		fmt.Fprintf(p.Out, "\n%s Setup aborted: %s\n", GlyphAborted, ev.Message)
	}
}

func attemptsSuffix(o *pipeline.Outcome) string {
	if o == nil {
		return ""
	}
	d := o.EndedAt.Sub(o.StartedAt).Round(100 * time.Millisecond)
	if o.Attempts > 1 {
		return fmt.Sprintf(" (%s, %d attempts)", d, o.Attempts)
	}
	return fmt.Sprintf(" (%s)", d)
}
