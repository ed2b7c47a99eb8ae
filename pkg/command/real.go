package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"time"
)

// RealExecutor runs commands via os/exec with context cancellation.
type RealExecutor struct{}

// Execute runs a command with the given arguments and environment.
// On Windows, if the command is not found directly it is retried through
// cmd.exe /C so that .bat tools (sdkmanager, avdmanager, the flutter shim)
// and shell builtins work transparently.
func (r *RealExecutor) Execute(ctx context.Context, command string, args []string, env []string) (*Result, error) {
	return r.run(ctx, command, args, env, nil)
}

// ExecuteInput runs a command with stdin attached to the given reader.
func (r *RealExecutor) ExecuteInput(ctx context.Context, command string, args []string, env []string, stdin io.Reader) (*Result, error) {
	return r.run(ctx, command, args, env, stdin)
}

func (r *RealExecutor) run(ctx context.Context, command string, args []string, env []string, stdin io.Reader) (*Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	if len(env) > 0 {
		cmd.Env = env
	}
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// On Windows, retry through cmd.exe when the executable is not found.
	// This resolves .bat/.cmd scripts and builtins. The entire command line
	// is passed as a single string after /C so that Go's exec doesn't add
	// extra quoting around individual arguments.
	if err != nil && runtime.GOOS == "windows" && isExecNotFound(err) {
		stdout.Reset()
		stderr.Reset()
		cmdLine := command
		for _, a := range args {
			cmdLine += " " + a
		}
		cmd = exec.CommandContext(ctx, "cmd.exe", "/C", cmdLine)
		if len(env) > 0 {
			cmd.Env = env
		}
		if stdin != nil {
			cmd.Stdin = stdin
		}
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err = cmd.Run()
	}

	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("execute command %q: %w", command, err)
		}
	}

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}

// StartDetached launches a command and returns without waiting for it.
// Output is discarded and the child is released so it outlives this process.
// Used for the optional emulator launch after a completed run.
func (r *RealExecutor) StartDetached(command string, args []string, env []string) (int, error) {
	cmd := exec.Command(command, args...)
	if len(env) > 0 {
		cmd.Env = env
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %q: %w", command, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release %q: %w", command, err)
	}
	return pid, nil
}

// isExecNotFound returns true when the error indicates the executable was not found.
func isExecNotFound(err error) bool {
	if err == exec.ErrNotFound {
		return true
	}
	// exec.Error wraps ErrNotFound for the specific binary name
	var execErr *exec.Error
	if ok := errors.As(err, &execErr); ok {
		return true
	}
	return false
}
