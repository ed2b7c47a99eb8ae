package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ormasoftchile/mobup/pkg/probe"
)

// minFreeBytes is the disk headroom required before any mutation. SDK
// packages plus Flutter plus one system image comfortably exceed 8 GiB.
const minFreeBytes uint64 = 10 << 30

// repoProbeURL is the host every later download depends on.
const repoProbeURL = "https://dl.google.com/android/repository/"

// checkRequirements asserts the host can carry a full run: supported
// CPU, enough free disk on the install volume, and a reachable package
// repository. It runs before any step mutates the machine.
func (rt *Runtime) checkRequirements(ctx context.Context) error {
	switch arch := rt.Adapter.Arch(); arch {
	case "x64", "aarch64":
	default:
		return fmt.Errorf("unsupported CPU architecture %q", arch)
	}

	volume := existingAncestor(rt.Paths.Root)
	free, err := probe.FreeDisk(volume)
	if err != nil {
		return fmt.Errorf("free disk on %s: %w", volume, err)
	}
	if free < minFreeBytes {
		return fmt.Errorf("need %d GiB free under %s, have %.1f GiB",
			minFreeBytes>>30, volume, float64(free)/(1<<30))
	}

	if err := probe.Reachable(ctx, repoProbeURL, 10*time.Second); err != nil {
		return fmt.Errorf("package repository unreachable: %w", err)
	}
	return nil
}

// existingAncestor walks up from path to the nearest directory that
// exists, so the free-disk check works before the root is created.
func existingAncestor(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
