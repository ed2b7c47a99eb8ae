// Package toolchain implements the provisioning steps: JDK, Android
// SDK command-line tools and packages, AVD creation and the Flutter
// SDK. Each step pairs a side-effect-free probe with an action that
// converges the machine toward the configured state.
package toolchain

import (
	"context"
	"fmt"
	"os"

	"github.com/ormasoftchile/mobup/pkg/command"
	"github.com/ormasoftchile/mobup/pkg/config"
	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/platform"
	"github.com/ormasoftchile/mobup/pkg/runlog"
)

// Runtime bundles everything a step action needs: resolved settings,
// the OS adapter, the resolved layout, command execution and
// environment persistence.
type Runtime struct {
	Config  *config.Config
	Adapter platform.Adapter
	Paths   platform.Paths
	Exec    command.Executor
	Mutator envpath.Mutator
	Log     *runlog.Logger
	// DryRun suppresses downloads and archive extraction. Tool
	// invocations are already covered by a recording executor and
	// environment writes by the in-memory mutator; downloads are the
	// one effect that bypasses both.
	DryRun bool
}

// NewRuntime resolves the install root and builds the shared step
// dependencies.
func NewRuntime(cfg *config.Config, adapter platform.Adapter, exe command.Executor, mut envpath.Mutator, log *runlog.Logger) (*Runtime, error) {
	root := cfg.Root
	if root == "" {
		var err error
		root, err = adapter.DefaultRoot()
		if err != nil {
			return nil, err
		}
		cfg.Root = root
	}
	if log == nil {
		log = runlog.Discard()
	}
	return &Runtime{
		Config:  cfg,
		Adapter: adapter,
		Paths:   adapter.Paths(root, cfg.Java.Version),
		Exec:    exe,
		Mutator: mut,
		Log:     log,
	}, nil
}

// Scope maps the configured persistence scope.
func (rt *Runtime) Scope() envpath.Scope {
	if rt.Config.Scope == "system" {
		return envpath.ScopeSystem
	}
	return envpath.ScopeUser
}

// toolEnv is the child environment for SDK tools. The homes are set
// explicitly so sdkmanager and avdmanager work in the same run that
// installed them, before any shell re-reads the persisted variables.
func (rt *Runtime) toolEnv() []string {
	return append(os.Environ(),
		"JAVA_HOME="+rt.Paths.JavaHome,
		"ANDROID_HOME="+rt.Paths.AndroidHome,
		"ANDROID_SDK_ROOT="+rt.Paths.AndroidHome,
	)
}

// runTool executes a command with the toolchain environment and turns a
// non-zero exit into an error carrying the command's tail output.
func (rt *Runtime) runTool(ctx context.Context, name string, args ...string) (*command.Result, error) {
	result, err := rt.Exec.Execute(ctx, name, args, rt.toolEnv())
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return result, fmt.Errorf("%s: exit %d: %s", name, result.ExitCode, tailOf(result.CombinedText(), 600))
	}
	return result, nil
}

// tailOf keeps the last n bytes of tool output for error messages.
func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
