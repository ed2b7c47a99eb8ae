package toolchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ormasoftchile/mobup/pkg/pipeline"
)

// Steps assembles the ordered pipeline for this host. Ordinals are
// display-only and assigned after the adapter contributes its
// platform-specific steps.
func Steps(rt *Runtime) []pipeline.Step {
	retry := pipeline.RetryPolicy{
		MaxAttempts: rt.Config.Retry.MaxAttempts,
		Backoff:     pipeline.Backoff{Base: 2 * time.Second, Max: 30 * time.Second},
	}
	once := pipeline.RetryPolicy{MaxAttempts: 1}
	pm := rt.Adapter.PackageManager()

	steps := []pipeline.Step{
		{
			Name:  "requirements",
			Title: "Host requirements",
			Run:   rt.checkRequirements,
			Retry: once,
			Fatal: true,
		},
		{
			Name:     "package-manager",
			Title:    "Package manager (" + pm.Name + ")",
			Check:    pm.Probe,
			Run:      func(ctx context.Context) error { return pm.Bootstrap(ctx, rt.Exec) },
			When:     "package_manager",
			Retry:    retry,
			Fatal:    true,
			Requires: []string{"requirements"},
		},
	}

	if pm.Secondary != "" {
		steps = append(steps, pipeline.Step{
			Name:  "secondary-package-manager",
			Title: "Secondary package manager (" + pm.Secondary + ")",
			Check: pm.SecondaryProbe,
			// Reached only when the probe came up empty; the warning
			// names what is missing without failing the run.
			Run: func(ctx context.Context) error {
				return fmt.Errorf("%s is not available on PATH", pm.Secondary)
			},
			Retry:    once,
			Fatal:    false,
			Requires: []string{"requirements"},
		})
	}

	steps = append(steps,
		pipeline.Step{
			Name:     "jdk",
			Title:    "JDK " + rt.Config.Java.Version + " (Temurin)",
			Check:    rt.jdkInstalled(),
			Run:      rt.installJDK,
			Retry:    retry,
			Fatal:    true,
			Requires: []string{"requirements"},
		},
		pipeline.Step{
			Name:     "android-cmdline-tools",
			Title:    "Android command-line tools",
			Check:    rt.cmdlineToolsInstalled(),
			Run:      rt.installCmdlineTools,
			Retry:    retry,
			Fatal:    true,
			Requires: []string{"jdk"},
		},
		pipeline.Step{
			Name:     "android-env",
			Title:    "Environment variables",
			Check:    rt.environmentPersisted(),
			Run:      rt.PersistEnvironment,
			Retry:    once,
			Fatal:    true,
			Requires: []string{"android-cmdline-tools"},
		},
		pipeline.Step{
			Name:     "sdk-licenses",
			Title:    "SDK licenses",
			Check:    rt.licensesAccepted(),
			Run:      rt.acceptLicenses,
			When:     "accept_licenses",
			Retry:    retry,
			Fatal:    true,
			Requires: []string{"android-env"},
		},
		pipeline.Step{
			Name:     "sdk-packages",
			Title:    "Android SDK packages",
			Check:    rt.sdkPackagesInstalled(),
			Run:      rt.installSDKPackages,
			Retry:    retry,
			Fatal:    true,
			Requires: []string{"sdk-licenses"},
		},
	)

	if v := rt.Adapter.Virtualization(); v != nil {
		steps = append(steps, pipeline.Step{
			Name:     "kvm",
			Title:    "Hardware acceleration (" + v.Name + ")",
			Check:    v.Probe,
			Run:      func(ctx context.Context) error { return v.Enable(ctx, rt.Exec) },
			When:     "enable_kvm",
			Retry:    once,
			Fatal:    false,
			Requires: []string{"sdk-packages"},
		})
	}

	steps = append(steps,
		pipeline.Step{
			Name:     "avd",
			Title:    "Virtual device " + rt.Config.AVD.Name,
			Check:    rt.avdExists(),
			Run:      rt.createAVD,
			When:     "create_avd",
			Retry:    retry,
			Fatal:    true,
			Requires: []string{"sdk-packages"},
		},
		pipeline.Step{
			Name:     "flutter",
			Title:    "Flutter " + rt.Config.Flutter.Version,
			Check:    rt.flutterInstalled(),
			Run:      rt.installFlutter,
			When:     "install_flutter",
			Retry:    retry,
			Fatal:    true,
			Requires: []string{"requirements"},
		},
		pipeline.Step{
			Name:     "flutter-config",
			Title:    "Flutter configuration",
			Run:      rt.configureFlutter,
			When:     "install_flutter",
			Retry:    once,
			Fatal:    true,
			Requires: []string{"flutter", "sdk-packages"},
		},
		pipeline.Step{
			Name:     "flutter-doctor",
			Title:    "flutter doctor",
			Run:      rt.FlutterDoctor,
			When:     "install_flutter",
			Retry:    once,
			Fatal:    false,
			Requires: []string{"flutter-config"},
		},
	)

	for i := range steps {
		steps[i].Ordinal = i + 1
	}
	return steps
}
