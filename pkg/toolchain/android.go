package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/probe"
)

// cmdlineToolsInstalled probes for sdkmanager in the pinned layout.
func (rt *Runtime) cmdlineToolsInstalled() probe.Func {
	return probe.FileExists(rt.Paths.Sdkmanager)
}

// installCmdlineTools downloads the commandlinetools zip and unpacks it
// into the cmdline-tools/latest layout sdkmanager expects. The zip's
// own top-level "cmdline-tools" directory is stripped.
func (rt *Runtime) installCmdlineTools(ctx context.Context) error {
	url, err := rt.Adapter.CmdlineToolsURL(rt.Config.Android.CmdlineToolsRevision)
	if err != nil {
		return err
	}
	name, err := archiveBase(url)
	if err != nil {
		return err
	}
	dest := filepath.Join(rt.Paths.AndroidHome, "cmdline-tools", "latest")
	return rt.fetchArchive(ctx, "android-cmdline-tools", url, name, dest, rt.Config.Android.CmdlineToolsSHA256)
}

// environmentPersisted reports whether the current process environment
// already carries the homes and PATH segments. Re-running the mutator
// is idempotent, so a stale environment only costs a redundant write.
func (rt *Runtime) environmentPersisted() probe.Func {
	return func(ctx context.Context) (bool, error) {
		if os.Getenv("JAVA_HOME") != rt.Paths.JavaHome {
			return false, nil
		}
		if os.Getenv("ANDROID_HOME") != rt.Paths.AndroidHome {
			return false, nil
		}
		pathVar := os.Getenv("PATH")
		delim := rt.Adapter.ListDelimiter()
		fold := rt.Adapter.FoldPaths()
		for _, seg := range rt.PathSegments() {
			if !envpath.HasSegment(pathVar, seg, delim, fold) {
				return false, nil
			}
		}
		return true, nil
	}
}

// PathSegments are the directories the SDK tools need on PATH.
func (rt *Runtime) PathSegments() []string {
	return []string{
		filepath.Dir(rt.Paths.JavaBin),
		rt.Paths.CmdlineBinDir,
		rt.Paths.PlatformTools,
		rt.Paths.EmulatorDir,
	}
}

// PersistEnvironment writes the homes and PATH additions through the
// mutator. Values land in the persistent store and in this process's
// environment in the same call. Every write is idempotent, so the env
// command re-applies the block with the same code path.
func (rt *Runtime) PersistEnvironment(ctx context.Context) error {
	scope := rt.Scope()
	vars := map[string]string{
		"JAVA_HOME":        rt.Paths.JavaHome,
		"ANDROID_HOME":     rt.Paths.AndroidHome,
		"ANDROID_SDK_ROOT": rt.Paths.AndroidHome,
	}
	for _, name := range []string{"JAVA_HOME", "ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if err := rt.Mutator.SetVariable(name, vars[name], scope); err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
	}
	for _, seg := range rt.PathSegments() {
		if err := rt.Mutator.AppendToPathLike("PATH", seg, scope); err != nil {
			return fmt.Errorf("persist PATH entry %s: %w", seg, err)
		}
	}
	return nil
}

// licensesAccepted probes for a populated licenses directory.
func (rt *Runtime) licensesAccepted() probe.Func {
	return probe.DirNonEmpty(rt.Paths.LicensesDir)
}

// yesReader feeds an endless stream of affirmative responses to a
// license prompt. sdkmanager reads one line per license and exits on
// its own; the stream length never decides termination.
type yesReader struct{ pos int }

func (r *yesReader) Read(p []byte) (int, error) {
	const answer = "y\n"
	for i := range p {
		p[i] = answer[r.pos]
		r.pos = (r.pos + 1) % len(answer)
	}
	return len(p), nil
}

// acceptLicenses drives `sdkmanager --licenses` to completion.
func (rt *Runtime) acceptLicenses(ctx context.Context) error {
	args := []string{"--licenses", "--sdk_root=" + rt.Paths.AndroidHome}
	result, err := rt.Exec.ExecuteInput(ctx, rt.Paths.Sdkmanager, args, rt.toolEnv(), &yesReader{})
	if err != nil {
		return fmt.Errorf("accept licenses: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("accept licenses: exit %d: %s", result.ExitCode, tailOf(result.CombinedText(), 600))
	}
	return nil
}

// sdkPackagesInstalled probes for the directory each configured package
// unpacks into. sdkmanager package paths map to directories by
// replacing ';' with the path separator.
func (rt *Runtime) sdkPackagesInstalled() probe.Func {
	probes := make([]probe.Func, 0, len(rt.Config.Android.Packages))
	for _, pkg := range rt.Config.Android.Packages {
		probes = append(probes, probe.DirExists(packageDir(rt.Paths.AndroidHome, pkg)))
	}
	return probe.AllOf(probes...)
}

func packageDir(sdkRoot, pkg string) string {
	return filepath.Join(sdkRoot, filepath.FromSlash(strings.ReplaceAll(pkg, ";", "/")))
}

// installSDKPackages installs the configured package set in one
// sdkmanager invocation. Affirmative input covers any residual license
// prompt.
func (rt *Runtime) installSDKPackages(ctx context.Context) error {
	args := append([]string{"--sdk_root=" + rt.Paths.AndroidHome}, rt.Config.Android.Packages...)
	result, err := rt.Exec.ExecuteInput(ctx, rt.Paths.Sdkmanager, args, rt.toolEnv(), &yesReader{})
	if err != nil {
		return fmt.Errorf("install packages: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("install packages: exit %d: %s", result.ExitCode, tailOf(result.CombinedText(), 600))
	}
	return nil
}

// avdExists probes avdmanager's list output for the configured name.
func (rt *Runtime) avdExists() probe.Func {
	return probe.AVDExists(rt.Exec, rt.Paths.Avdmanager, rt.toolEnv(), rt.Config.AVD.Name)
}

// createAVD creates the configured virtual device. avdmanager prompts
// for a custom hardware profile; the default "no" is supplied.
func (rt *Runtime) createAVD(ctx context.Context) error {
	args := []string{
		"create", "avd",
		"--name", rt.Config.AVD.Name,
		"--package", rt.Config.AVD.SystemImage,
		"--device", rt.Config.AVD.Device,
	}
	result, err := rt.Exec.ExecuteInput(ctx, rt.Paths.Avdmanager, args, rt.toolEnv(), strings.NewReader("no\n"))
	if err != nil {
		return fmt.Errorf("create avd %s: %w", rt.Config.AVD.Name, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("create avd %s: exit %d: %s", rt.Config.AVD.Name, result.ExitCode, tailOf(result.CombinedText(), 600))
	}
	return nil
}
