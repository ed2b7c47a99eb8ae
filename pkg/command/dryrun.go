package command

import (
	"context"
	"io"
)

// DryRunExecutor records command lines without executing anything.
// Backs `mobup setup --dry-run`.
type DryRunExecutor struct {
	// Commands holds one entry per invocation, in order.
	Commands []string
}

// Execute records the command and returns placeholder output.
func (d *DryRunExecutor) Execute(ctx context.Context, command string, args []string, env []string) (*Result, error) {
	d.Commands = append(d.Commands, commandLine(command, args))
	return &Result{
		Stdout:   []byte("<dry-run>"),
		ExitCode: 0,
	}, nil
}

// ExecuteInput records the command; stdin is not consumed.
func (d *DryRunExecutor) ExecuteInput(ctx context.Context, command string, args []string, env []string, stdin io.Reader) (*Result, error) {
	return d.Execute(ctx, command, args, env)
}
