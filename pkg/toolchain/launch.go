package toolchain

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/mobup/pkg/pipeline"
)

// Starter launches a detached process and returns its pid. The real
// implementation is RealExecutor.StartDetached; dry runs substitute a
// recorder.
type Starter func(command string, args []string, env []string) (int, error)

// OfferEmulatorLaunch asks whether to boot the provisioned AVD and
// detaches the emulator on confirmation. This is run epilogue, not a
// step: declining is recorded and never affects the run result. The
// offer is made only when the AVD step succeeded or was already
// satisfied.
func (rt *Runtime) OfferEmulatorLaunch(outcomes []pipeline.Outcome, start Starter) (bool, error) {
	if !rt.Config.AVD.Create {
		return false, nil
	}
	out := outcomeByStep(outcomes, "avd")
	if out == nil || out.Status == pipeline.StatusFailed || out.Reason == pipeline.ReasonDisabled {
		return false, nil
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("Launch emulator %q now? [y/N] ", rt.Config.AVD.Name),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return false, fmt.Errorf("init prompt: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			rt.Log.Info("emulator launch declined")
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
	default:
		rt.Log.Info("emulator launch declined")
		return false, nil
	}

	pid, err := start(rt.Paths.Emulator, []string{"-avd", rt.Config.AVD.Name}, rt.toolEnv())
	if err != nil {
		return false, fmt.Errorf("launch emulator: %w", err)
	}
	rt.Log.Infof("emulator started detached (pid %d)", pid)
	return true, nil
}
