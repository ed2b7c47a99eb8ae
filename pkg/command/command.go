// Package command abstracts subprocess execution behind a small interface
// so no pipeline step reaches for os/exec directly. External tools (package
// managers, sdkmanager, avdmanager, flutter) are opaque: callers interpret
// only the exit code and a few known output substrings.
// Implementations: RealExecutor, DryRunExecutor.
package command

import (
	"context"
	"io"
	"strings"
	"time"
)

// Result holds the output of a single command execution.
type Result struct {
	Stdout   []byte        `json:"stdout"`
	Stderr   []byte        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// CombinedText returns stdout and stderr joined, for substring scans
// against tool output that lands on either stream.
func (r *Result) CombinedText() string {
	var b strings.Builder
	b.Write(r.Stdout)
	if len(r.Stderr) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.Write(r.Stderr)
	}
	return b.String()
}

// Executor abstracts real vs dry-run command execution.
type Executor interface {
	// Execute runs the command to completion and captures its output.
	Execute(ctx context.Context, command string, args []string, env []string) (*Result, error)

	// ExecuteInput is Execute with the reader attached to the child's stdin,
	// for tools that read answers from their standard input.
	ExecuteInput(ctx context.Context, command string, args []string, env []string, stdin io.Reader) (*Result, error)
}

func commandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}
