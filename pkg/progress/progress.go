// Package progress renders pipeline events for humans. Reporters are
// purely observational: they draw what the engine publishes and never
// feed anything back into it.
package progress

// Step status glyphs shared by the plain renderer and the TUI.
// They convey meaning without relying on color alone.
const (
	GlyphRunning   = "▶"
	GlyphPassed    = "✓"
	GlyphFailed    = "✗"
	GlyphSkipped   = "⊘"
	GlyphWarning   = "⚠"
	GlyphAborted   = "■"
	GlyphPending   = "○"
	GlyphCurrent   = "▸"
	GlyphIterating = "⟳"
)
