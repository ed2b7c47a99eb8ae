// Package platform isolates everything that differs between operating
// systems: install layout, archive URLs, tool file names, list delimiters
// and the environment persistence mechanism. The New factory is the single
// place that branches on GOOS; every other component asks the adapter.
package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ormasoftchile/mobup/pkg/command"
	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/probe"
)

// Paths is the resolved on-disk layout under one install root.
type Paths struct {
	Root          string
	JavaHome      string
	JavaBin       string
	AndroidHome   string
	CmdlineBinDir string
	Sdkmanager    string
	Avdmanager    string
	PlatformTools string
	EmulatorDir   string
	Emulator      string
	LicensesDir   string
	FlutterHome   string
	FlutterBinDir string
	FlutterBin    string
}

// PackageManager describes this OS's bootstrap package manager. Probe and
// Bootstrap pair up like any other step predicate and action.
type PackageManager struct {
	Name      string
	Probe     probe.Func
	Bootstrap func(ctx context.Context, exe command.Executor) error
	// Secondary names an additional manager probed informationally.
	// Empty when the OS has none.
	Secondary      string
	SecondaryProbe probe.Func
}

// Virtualization describes hardware acceleration setup for the emulator.
// Nil when the OS needs no explicit setup.
type Virtualization struct {
	Name   string
	Probe  probe.Func
	Enable func(ctx context.Context, exe command.Executor) error
}

// Adapter is the per-OS seam. Implementations: WindowsAdapter, LinuxAdapter.
type Adapter interface {
	// OS returns the GOOS-style name the adapter serves.
	OS() string
	// Arch returns the CPU architecture in vendor archive naming (x64, aarch64).
	Arch() string

	// DefaultRoot returns the per-user tools directory.
	DefaultRoot() (string, error)
	// Paths resolves the full layout under root for a JDK feature version.
	Paths(root, javaVersion string) Paths

	JDKURL(javaVersion string) (string, error)
	CmdlineToolsURL(revision string) (string, error)
	FlutterURL(flutterVersion string) (string, error)

	// ListDelimiter separates PATH-like list entries on this OS.
	ListDelimiter() string
	// FoldPaths reports whether path comparison is case-insensitive.
	FoldPaths() bool
	// NewMutator returns the environment persistence mechanism.
	NewMutator() (envpath.Mutator, error)

	PackageManager() PackageManager
	Virtualization() *Virtualization
}

// New returns the adapter for the current operating system.
func New() (Adapter, error) {
	return ForOS(runtime.GOOS)
}

// ForOS returns the adapter for a named operating system. Plan rendering
// and tests use it to inspect foreign layouts.
func ForOS(goos string) (Adapter, error) {
	switch goos {
	case "windows":
		return NewWindows(), nil
	case "linux":
		return NewLinux(), nil
	default:
		return nil, fmt.Errorf("unsupported operating system %q", goos)
	}
}

// NormalizeArch maps a GOARCH value to vendor archive naming.
func NormalizeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "arm64":
		return "aarch64"
	default:
		return goarch
	}
}
