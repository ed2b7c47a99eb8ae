package progress

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/mobup/pkg/pipeline"
)

// RenderPlan formats plan entries as an aligned table. Widths are
// computed with runewidth so glyphs and non-ASCII titles line up.
func RenderPlan(entries []pipeline.PlanEntry) string {
	titleW := runewidth.StringWidth("Step")
	nameW := runewidth.StringWidth("Id")
	for _, e := range entries {
		if w := runewidth.StringWidth(e.Title); w > titleW {
			titleW = w
		}
		if w := runewidth.StringWidth(e.Step); w > nameW {
			nameW = w
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "      %s  %s  %-6s  %s\n", pad("Step", titleW), pad("Id", nameW), "Action", "Reason")
	for _, e := range entries {
		glyph := GlyphCurrent
		if e.Action == "skip" {
			glyph = GlyphSkipped
		}
		reason := e.Reason
		if reason == "" && e.Action == "run" && !e.Fatal {
			reason = "failure tolerated"
		}
		fmt.Fprintf(&b, "%2d. %s %s  %s  %-6s  %s\n", e.Ordinal, glyph, pad(e.Title, titleW), pad(e.Step, nameW), e.Action, reason)
	}
	return b.String()
}

// RenderOutcomes formats final step outcomes for the run summary block.
func RenderOutcomes(outcomes []pipeline.Outcome) string {
	titleW := 0
	for _, o := range outcomes {
		if w := runewidth.StringWidth(o.Title); w > titleW {
			titleW = w
		}
	}
	var b strings.Builder
	for _, o := range outcomes {
		glyph := GlyphPassed
		detail := ""
		switch o.Status {
		case pipeline.StatusSkipped:
			glyph = GlyphSkipped
			detail = o.Reason
		case pipeline.StatusFailed:
			glyph = GlyphFailed
			if !o.Fatal {
				glyph = GlyphWarning
			}
			detail = o.Error
		}
		fmt.Fprintf(&b, "  %s %s  %s\n", glyph, pad(o.Title, titleW), detail)
	}
	return b.String()
}

func pad(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
