package probe

import (
	"context"
	"strings"

	"github.com/ormasoftchile/mobup/pkg/command"
)

// AVDExists probes avdmanager output for an AVD with the given name. A tool
// that cannot be launched yet reports the effect as absent rather than
// erroring, since the AVD cannot exist before its tooling does.
func AVDExists(exe command.Executor, avdmanager string, env []string, name string) Func {
	return func(ctx context.Context) (bool, error) {
		result, err := exe.Execute(ctx, avdmanager, []string{"list", "avd"}, env)
		if err != nil || result.ExitCode != 0 {
			return false, nil
		}
		return containsAVDName(result.CombinedText(), name), nil
	}
}

// containsAVDName scans AVD listing output for an exact name. It accepts the
// indented "Name: x" block form of `avdmanager list avd` and bare-name lines
// as printed by `emulator -list-avds`. Anything else in the output is
// ignored; format drift reports the AVD as absent.
func containsAVDName(out, name string) bool {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == name {
			return true
		}
		if v, ok := strings.CutPrefix(line, "Name:"); ok && strings.TrimSpace(v) == name {
			return true
		}
	}
	return false
}
