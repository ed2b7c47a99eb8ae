package command

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestRealExecutorEcho(t *testing.T) {
	r := &RealExecutor{}
	result, err := r.Execute(context.Background(), "echo", []string{"hello"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "hello" {
		t.Errorf("stdout = %q, want %q", out, "hello")
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode)
	}
}

func TestRealExecutorExecuteInput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on cat")
	}
	r := &RealExecutor{}
	result, err := r.ExecuteInput(context.Background(), "cat", nil, nil, strings.NewReader("y\ny\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(result.Stdout); got != "y\ny\n" {
		t.Errorf("stdout = %q, want piped input back", got)
	}
}

func TestRealExecutorNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on false")
	}
	r := &RealExecutor{}
	result, err := r.Execute(context.Background(), "false", nil, nil)
	if err != nil {
		t.Fatalf("nonzero exit must not be an error: %v", err)
	}
	if result.ExitCode == 0 {
		t.Error("exit code = 0, want nonzero")
	}
}

func TestIsExecNotFound(t *testing.T) {
	if !isExecNotFound(exec.ErrNotFound) {
		t.Error("expected ErrNotFound to be detected")
	}
	err := &exec.Error{Name: "bogus", Err: exec.ErrNotFound}
	if !isExecNotFound(err) {
		t.Error("expected exec.Error wrapping ErrNotFound to be detected")
	}
}

func TestDryRunExecutorRecords(t *testing.T) {
	d := &DryRunExecutor{}
	result, err := d.Execute(context.Background(), "sdkmanager", []string{"--licenses"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != "<dry-run>" {
		t.Errorf("stdout = %q, want placeholder", result.Stdout)
	}
	if _, err := d.ExecuteInput(context.Background(), "flutter", []string{"doctor"}, nil, strings.NewReader("y\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"sdkmanager --licenses", "flutter doctor"}
	if len(d.Commands) != len(want) {
		t.Fatalf("recorded %d commands, want %d", len(d.Commands), len(want))
	}
	for i, w := range want {
		if d.Commands[i] != w {
			t.Errorf("command[%d] = %q, want %q", i, d.Commands[i], w)
		}
	}
}

func TestCombinedText(t *testing.T) {
	r := &Result{Stdout: []byte("out"), Stderr: []byte("err")}
	if got := r.CombinedText(); got != "out\nerr" {
		t.Errorf("CombinedText = %q", got)
	}
	r = &Result{Stderr: []byte("only err")}
	if got := r.CombinedText(); got != "only err" {
		t.Errorf("CombinedText = %q", got)
	}
}
