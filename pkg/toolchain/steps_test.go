package toolchain

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ormasoftchile/mobup/pkg/command"
	"github.com/ormasoftchile/mobup/pkg/config"
	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/pipeline"
	"github.com/ormasoftchile/mobup/pkg/platform"
	"github.com/ormasoftchile/mobup/pkg/runlog"
)

// fakeExec records tool invocations without touching the machine.
type fakeExec struct {
	calls   []string
	inputs  []string
	lastEnv []string
	exit    int
	stdout  string
	err     error
}

func (f *fakeExec) Execute(ctx context.Context, cmd string, args []string, env []string) (*command.Result, error) {
	f.calls = append(f.calls, cmd+" "+strings.Join(args, " "))
	f.lastEnv = env
	if f.err != nil {
		return nil, f.err
	}
	return &command.Result{Stdout: []byte(f.stdout), ExitCode: f.exit}, nil
}

func (f *fakeExec) ExecuteInput(ctx context.Context, cmd string, args []string, env []string, stdin io.Reader) (*command.Result, error) {
	buf := make([]byte, 8)
	n, _ := io.ReadFull(stdin, buf)
	f.inputs = append(f.inputs, string(buf[:n]))
	return f.Execute(ctx, cmd, args, env)
}

func newTestRuntime(t *testing.T, adapter platform.Adapter) (*Runtime, *fakeExec) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Normalize()
	fake := &fakeExec{}
	rt, err := NewRuntime(cfg, adapter, fake, &envpath.MemMutator{Delim: adapter.ListDelimiter(), Fold: adapter.FoldPaths()}, runlog.Discard())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return rt, fake
}

func stepNames(steps []pipeline.Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func TestStepsLinuxOrder(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewLinux())
	steps := Steps(rt)

	if err := pipeline.ValidateOrder(steps); err != nil {
		t.Fatalf("ValidateOrder: %v", err)
	}
	want := "requirements,package-manager,jdk,android-cmdline-tools,android-env," +
		"sdk-licenses,sdk-packages,kvm,avd,flutter,flutter-config,flutter-doctor"
	if got := strings.Join(stepNames(steps), ","); got != want {
		t.Errorf("step order = %s", got)
	}
	for i, s := range steps {
		if s.Ordinal != i+1 {
			t.Errorf("step %s ordinal = %d, want %d", s.Name, s.Ordinal, i+1)
		}
	}
}

func TestStepsWindowsOrder(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewWindows())
	steps := Steps(rt)

	if err := pipeline.ValidateOrder(steps); err != nil {
		t.Fatalf("ValidateOrder: %v", err)
	}
	names := strings.Join(stepNames(steps), ",")
	if !strings.Contains(names, "secondary-package-manager") {
		t.Errorf("windows pipeline lacks winget probe: %s", names)
	}
	if strings.Contains(names, "kvm") {
		t.Errorf("windows pipeline contains kvm: %s", names)
	}
}

func TestStepsGuardsAndClasses(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewLinux())
	steps := Steps(rt)
	byName := map[string]pipeline.Step{}
	for _, s := range steps {
		byName[s.Name] = s
	}

	guards := map[string]string{
		"package-manager": "package_manager",
		"sdk-licenses":    "accept_licenses",
		"kvm":             "enable_kvm",
		"avd":             "create_avd",
		"flutter":         "install_flutter",
		"flutter-config":  "install_flutter",
		"flutter-doctor":  "install_flutter",
	}
	for name, guard := range guards {
		if byName[name].When != guard {
			t.Errorf("%s guard = %q, want %q", name, byName[name].When, guard)
		}
	}

	for _, name := range []string{"kvm", "flutter-doctor"} {
		if byName[name].Fatal {
			t.Errorf("%s must be non-fatal", name)
		}
	}
	for _, name := range []string{"requirements", "jdk", "sdk-packages", "avd", "flutter"} {
		if !byName[name].Fatal {
			t.Errorf("%s must be fatal", name)
		}
	}

	// Steps with no meaningful completed-state probe always run.
	for _, name := range []string{"requirements", "flutter-config", "flutter-doctor"} {
		if byName[name].Check != nil {
			t.Errorf("%s must not have an idempotency probe", name)
		}
	}

	if byName["jdk"].Retry.MaxAttempts != 3 {
		t.Errorf("jdk retry = %+v", byName["jdk"].Retry)
	}
	if byName["requirements"].Retry.MaxAttempts != 1 {
		t.Errorf("requirements retry = %+v", byName["requirements"].Retry)
	}
}

func TestStepsDisabledByCondition(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewLinux())
	rt.Config.AVD.Create = false
	rt.Config.Flutter.Enabled = false

	env := rt.Config.ConditionEnv(rt.Adapter.OS())
	entries, err := pipeline.Plan(context.Background(), Steps(rt), env)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, e := range entries {
		switch e.Step {
		case "avd", "flutter", "flutter-config", "flutter-doctor":
			if e.Action != "skip" || e.Reason != pipeline.ReasonDisabled {
				t.Errorf("%s = %+v", e.Step, e)
			}
		}
	}
}
