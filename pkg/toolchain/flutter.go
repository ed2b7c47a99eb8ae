package toolchain

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/mobup/pkg/probe"
)

// flutterInstalled probes for the flutter launcher.
func (rt *Runtime) flutterInstalled() probe.Func {
	return probe.FileExists(rt.Paths.FlutterBin)
}

// installFlutter downloads the stable-channel archive, unpacks it into
// the flutter home and persists the bin directory on PATH.
func (rt *Runtime) installFlutter(ctx context.Context) error {
	url, err := rt.Adapter.FlutterURL(rt.Config.Flutter.Version)
	if err != nil {
		return err
	}
	name, err := archiveBase(url)
	if err != nil {
		return err
	}
	if err := rt.fetchArchive(ctx, "flutter", url, name, rt.Paths.FlutterHome, rt.Config.Flutter.SHA256); err != nil {
		return err
	}
	if err := rt.Mutator.AppendToPathLike("PATH", rt.Paths.FlutterBinDir, rt.Scope()); err != nil {
		return fmt.Errorf("persist PATH: %w", err)
	}
	return nil
}

// configureFlutter points Flutter at the provisioned SDK and disables
// analytics. Safe to repeat; flutter stores the settings keyed.
func (rt *Runtime) configureFlutter(ctx context.Context) error {
	_, err := rt.runTool(ctx, rt.Paths.FlutterBin, "config", "--no-analytics", "--android-sdk", rt.Paths.AndroidHome)
	if err != nil {
		return fmt.Errorf("flutter config: %w", err)
	}
	return nil
}

// FlutterDoctor executes the verification pass and reduces its verbose
// output to one healthy/unhealthy boolean. Issues surface as a step
// failure (non-fatal) with a pointer to the full log. The doctor
// command calls the same path directly.
func (rt *Runtime) FlutterDoctor(ctx context.Context) error {
	result, err := rt.Exec.Execute(ctx, rt.Paths.FlutterBin, []string{"doctor", "-v"}, rt.toolEnv())
	if err != nil {
		return fmt.Errorf("flutter doctor: %w", err)
	}
	output := result.CombinedText()
	rt.Log.StepEntry("flutter-doctor").Debug(output)
	if healthy := DoctorHealthy(output); !healthy || result.ExitCode != 0 {
		if rt.Log.Path == "" {
			return fmt.Errorf("flutter doctor reported issues")
		}
		return fmt.Errorf("flutter doctor reported issues (full output in %s)", rt.Log.Path)
	}
	return nil
}
