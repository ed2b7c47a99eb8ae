package toolchain

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/platform"
)

func TestPackageDir(t *testing.T) {
	cases := map[string]string{
		"platform-tools":       filepath.Join("sdk", "platform-tools"),
		"platforms;android-35": filepath.Join("sdk", "platforms", "android-35"),
		"build-tools;35.0.0":   filepath.Join("sdk", "build-tools", "35.0.0"),
		"system-images;android-35;google_apis;x86_64": filepath.Join("sdk", "system-images", "android-35", "google_apis", "x86_64"),
	}
	for pkg, want := range cases {
		if got := packageDir("sdk", pkg); got != want {
			t.Errorf("packageDir(%q) = %q, want %q", pkg, got, want)
		}
	}
}

func TestYesReaderStreamsAffirmatives(t *testing.T) {
	r := &yesReader{}
	buf := make([]byte, 10)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "y\ny\ny\ny\ny\n" {
		t.Errorf("stream = %q", buf)
	}
	// Byte-at-a-time consumers still see complete answers.
	one := make([]byte, 1)
	var got []byte
	for i := 0; i < 4; i++ {
		r.Read(one)
		got = append(got, one[0])
	}
	if string(got) != "y\ny\n" {
		t.Errorf("byte-wise stream = %q", got)
	}
}

func TestSDKPackagesProbe(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewLinux())
	rt.Config.Android.Packages = []string{"platform-tools", "platforms;android-35"}

	ok, err := rt.sdkPackagesInstalled()(context.Background())
	if err != nil || ok {
		t.Fatalf("empty sdk: ok=%v err=%v", ok, err)
	}

	for _, pkg := range rt.Config.Android.Packages {
		if err := os.MkdirAll(packageDir(rt.Paths.AndroidHome, pkg), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	ok, err = rt.sdkPackagesInstalled()(context.Background())
	if err != nil || !ok {
		t.Fatalf("populated sdk: ok=%v err=%v", ok, err)
	}
}

func TestAcceptLicensesInvocation(t *testing.T) {
	rt, fake := newTestRuntime(t, platform.NewLinux())
	if err := rt.acceptLicenses(context.Background()); err != nil {
		t.Fatalf("acceptLicenses: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("calls = %v", fake.calls)
	}
	call := fake.calls[0]
	if !strings.Contains(call, "sdkmanager --licenses --sdk_root="+rt.Paths.AndroidHome) {
		t.Errorf("call = %q", call)
	}
	if fake.inputs[0] != "y\ny\ny\ny\n" {
		t.Errorf("stdin = %q", fake.inputs[0])
	}
}

func TestInstallSDKPackagesInvocation(t *testing.T) {
	rt, fake := newTestRuntime(t, platform.NewLinux())
	rt.Config.Android.Packages = []string{"platform-tools", "emulator"}
	if err := rt.installSDKPackages(context.Background()); err != nil {
		t.Fatalf("installSDKPackages: %v", err)
	}
	call := fake.calls[0]
	for _, want := range []string{"--sdk_root=" + rt.Paths.AndroidHome, "platform-tools", "emulator"} {
		if !strings.Contains(call, want) {
			t.Errorf("call %q missing %q", call, want)
		}
	}
	// The SDK tools see their homes without any shell re-login.
	env := strings.Join(fake.lastEnv, "\n")
	for _, want := range []string{"JAVA_HOME=" + rt.Paths.JavaHome, "ANDROID_HOME=" + rt.Paths.AndroidHome} {
		if !strings.Contains(env, want) {
			t.Errorf("tool env missing %q", want)
		}
	}
}

func TestInstallSDKPackagesFailureCarriesOutput(t *testing.T) {
	rt, fake := newTestRuntime(t, platform.NewLinux())
	fake.exit = 1
	fake.stdout = "Warning: Failed to find package 'nonsense'"
	err := rt.installSDKPackages(context.Background())
	if err == nil {
		t.Fatal("non-zero exit accepted")
	}
	if !strings.Contains(err.Error(), "exit 1") || !strings.Contains(err.Error(), "nonsense") {
		t.Errorf("err = %v", err)
	}
}

func TestCreateAVDInvocation(t *testing.T) {
	rt, fake := newTestRuntime(t, platform.NewLinux())
	if err := rt.createAVD(context.Background()); err != nil {
		t.Fatalf("createAVD: %v", err)
	}
	call := fake.calls[0]
	for _, want := range []string{
		"avdmanager create avd",
		"--name mobup_device",
		"--package system-images;android-35;google_apis;x86_64",
		"--device pixel_7",
	} {
		if !strings.Contains(call, want) {
			t.Errorf("call %q missing %q", call, want)
		}
	}
	if !strings.HasPrefix(fake.inputs[0], "no\n") {
		t.Errorf("hardware profile answer = %q", fake.inputs[0])
	}
}

func TestEnvironmentPersistedProbe(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewLinux())

	t.Setenv("JAVA_HOME", "/somewhere/else")
	ok, err := rt.environmentPersisted()(context.Background())
	if err != nil || ok {
		t.Fatalf("foreign JAVA_HOME: ok=%v err=%v", ok, err)
	}

	t.Setenv("JAVA_HOME", rt.Paths.JavaHome)
	t.Setenv("ANDROID_HOME", rt.Paths.AndroidHome)
	segments := rt.PathSegments()
	t.Setenv("PATH", os.Getenv("PATH")+":"+strings.Join(segments, ":"))
	ok, err = rt.environmentPersisted()(context.Background())
	if err != nil || !ok {
		t.Fatalf("persisted env: ok=%v err=%v", ok, err)
	}
}

func TestPersistEnvironmentWritesAllVariables(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewLinux())
	mut := rt.Mutator.(*envpath.MemMutator)

	if err := rt.PersistEnvironment(context.Background()); err != nil {
		t.Fatalf("PersistEnvironment: %v", err)
	}
	if got, _ := mut.Get(envpath.ScopeUser, "JAVA_HOME"); got != rt.Paths.JavaHome {
		t.Errorf("JAVA_HOME = %q", got)
	}
	if got, _ := mut.Get(envpath.ScopeUser, "ANDROID_SDK_ROOT"); got != rt.Paths.AndroidHome {
		t.Errorf("ANDROID_SDK_ROOT = %q", got)
	}
	path, _ := mut.Get(envpath.ScopeUser, "PATH")
	for _, seg := range rt.PathSegments() {
		if !envpath.HasSegment(path, seg, ":", false) {
			t.Errorf("PATH missing %q: %q", seg, path)
		}
	}

	// Second pass adds nothing.
	if err := rt.PersistEnvironment(context.Background()); err != nil {
		t.Fatalf("PersistEnvironment again: %v", err)
	}
	if got, _ := mut.Get(envpath.ScopeUser, "PATH"); got != path {
		t.Errorf("PATH changed on re-run: %q -> %q", path, got)
	}
}

func TestDoctorHealthy(t *testing.T) {
	healthy := `[✓] Flutter (Channel stable, 3.24.3)
[✓] Android toolchain - develop for Android devices
[!] Connected device
    ! No devices available
`
	if !DoctorHealthy(healthy) {
		t.Error("warnings alone marked unhealthy")
	}
	unhealthy := `[✓] Flutter (Channel stable, 3.24.3)
[✗] Android toolchain - develop for Android devices
    ✗ Unable to locate Android SDK.
`
	if DoctorHealthy(unhealthy) {
		t.Error("failure marker missed")
	}
}

func TestDoctorRowsFollowConfig(t *testing.T) {
	rt, fake := newTestRuntime(t, platform.NewLinux())
	fake.stdout = "Available Android Virtual Devices:\n"
	rt.Config.Flutter.Enabled = false

	rows := rt.Doctor(context.Background())
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Component
	}
	joined := strings.Join(names, ",")
	if strings.Contains(joined, "flutter") {
		t.Errorf("disabled flutter still probed: %s", joined)
	}
	for _, want := range []string{"sdkman", "jdk", "cmdline-tools", "avd", "kvm"} {
		if !strings.Contains(joined, want) {
			t.Errorf("doctor rows missing %s: %s", want, joined)
		}
	}
	for _, r := range rows {
		if r.Component == "jdk" && r.Present {
			t.Error("jdk reported present on empty root")
		}
	}
}

func TestOfferEmulatorLaunchSkipsWithoutAVD(t *testing.T) {
	rt, _ := newTestRuntime(t, platform.NewLinux())
	started := false
	start := func(string, []string, []string) (int, error) {
		started = true
		return 0, nil
	}

	rt.Config.AVD.Create = false
	launched, err := rt.OfferEmulatorLaunch(nil, start)
	if err != nil || launched || started {
		t.Fatalf("disabled avd: launched=%v started=%v err=%v", launched, started, err)
	}

	rt.Config.AVD.Create = true
	launched, err = rt.OfferEmulatorLaunch(nil, start)
	if err != nil || launched || started {
		t.Fatalf("no avd outcome: launched=%v started=%v err=%v", launched, started, err)
	}
}
