package toolchain

import (
	"context"
	"strings"

	"github.com/ormasoftchile/mobup/pkg/pipeline"
	"github.com/ormasoftchile/mobup/pkg/probe"
)

// DoctorHealthy reduces `flutter doctor` output to a single boolean.
// Only the failure marker counts; warnings ("!") are tolerated because
// a freshly provisioned machine legitimately reports some (no connected
// device, no IDE plugins).
func DoctorHealthy(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "✗") || strings.HasPrefix(trimmed, "[✗]") {
			return false
		}
	}
	return true
}

// ComponentStatus is one row of the doctor report.
type ComponentStatus struct {
	Component string `json:"component" yaml:"component"`
	Present   bool   `json:"present"   yaml:"present"`
	Detail    string `json:"detail"    yaml:"detail"`
}

// Doctor probes every provisioned component without touching the
// machine. The rows mirror the pipeline's own skip decisions.
func (rt *Runtime) Doctor(ctx context.Context) []ComponentStatus {
	pm := rt.Adapter.PackageManager()
	rows := []ComponentStatus{
		{Component: pm.Name, Detail: "package manager"},
		{Component: "jdk", Detail: rt.Paths.JavaHome},
		{Component: "cmdline-tools", Detail: rt.Paths.Sdkmanager},
		{Component: "sdk-packages", Detail: strings.Join(rt.Config.Android.Packages, ", ")},
		{Component: "licenses", Detail: rt.Paths.LicensesDir},
	}
	probes := []probe.Func{
		pm.Probe,
		rt.jdkInstalled(),
		rt.cmdlineToolsInstalled(),
		rt.sdkPackagesInstalled(),
		rt.licensesAccepted(),
	}
	if v := rt.Adapter.Virtualization(); v != nil {
		rows = append(rows, ComponentStatus{Component: v.Name, Detail: "hardware acceleration"})
		probes = append(probes, v.Probe)
	}
	if rt.Config.AVD.Create {
		rows = append(rows, ComponentStatus{Component: "avd", Detail: rt.Config.AVD.Name})
		probes = append(probes, rt.avdExists())
	}
	if rt.Config.Flutter.Enabled {
		rows = append(rows, ComponentStatus{Component: "flutter", Detail: rt.Paths.FlutterBin})
		probes = append(probes, rt.flutterInstalled())
	}

	for i := range rows {
		present, err := probes[i](ctx)
		if err != nil {
			rows[i].Detail = err.Error()
			continue
		}
		rows[i].Present = present
	}
	return rows
}

// DoctorEnv reports whether the persisted environment block matches the
// resolved layout, reusing the pipeline's own probe.
func (rt *Runtime) DoctorEnv(ctx context.Context) ComponentStatus {
	present, err := rt.environmentPersisted()(ctx)
	status := ComponentStatus{Component: "environment", Present: present, Detail: "JAVA_HOME, ANDROID_HOME, PATH"}
	if err != nil {
		status.Detail = err.Error()
	}
	return status
}

// outcomeByStep finds a step's outcome in a finished run, for the
// post-run emulator offer.
func outcomeByStep(outcomes []pipeline.Outcome, name string) *pipeline.Outcome {
	for i := range outcomes {
		if outcomes[i].Step == name {
			return &outcomes[i]
		}
	}
	return nil
}
