package platform

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/ormasoftchile/mobup/pkg/command"
	"github.com/ormasoftchile/mobup/pkg/probe"
)

// LinuxAdapter provisions under a per-user tools directory with profile-file
// environment persistence and KVM acceleration setup.
type LinuxAdapter struct {
	arch string
}

// NewLinux returns the Linux adapter for the current CPU architecture.
func NewLinux() *LinuxAdapter {
	return &LinuxAdapter{arch: NormalizeArch(runtime.GOARCH)}
}

func (a *LinuxAdapter) OS() string   { return "linux" }
func (a *LinuxAdapter) Arch() string { return a.arch }

// DefaultRoot is ~/mobup.
func (a *LinuxAdapter) DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "mobup"), nil
}

func (a *LinuxAdapter) Paths(root, javaVersion string) Paths {
	sdk := filepath.Join(root, "android-sdk")
	javaHome := filepath.Join(root, "java", "jdk-"+javaVersion)
	flutter := filepath.Join(root, "flutter")
	cmdlineBin := filepath.Join(sdk, "cmdline-tools", "latest", "bin")
	return Paths{
		Root:          root,
		JavaHome:      javaHome,
		JavaBin:       filepath.Join(javaHome, "bin", "java"),
		AndroidHome:   sdk,
		CmdlineBinDir: cmdlineBin,
		Sdkmanager:    filepath.Join(cmdlineBin, "sdkmanager"),
		Avdmanager:    filepath.Join(cmdlineBin, "avdmanager"),
		PlatformTools: filepath.Join(sdk, "platform-tools"),
		EmulatorDir:   filepath.Join(sdk, "emulator"),
		Emulator:      filepath.Join(sdk, "emulator", "emulator"),
		LicensesDir:   filepath.Join(sdk, "licenses"),
		FlutterHome:   flutter,
		FlutterBinDir: filepath.Join(flutter, "bin"),
		FlutterBin:    filepath.Join(flutter, "bin", "flutter"),
	}
}

func (a *LinuxAdapter) JDKURL(javaVersion string) (string, error) {
	return renderURL("jdk", jdkURLTemplate, map[string]string{
		"Version": javaVersion, "OS": "linux", "Arch": a.arch,
	})
}

func (a *LinuxAdapter) CmdlineToolsURL(revision string) (string, error) {
	return renderURL("cmdline-tools", cmdlineToolsURLTemplate, map[string]string{
		"OS": "linux", "Revision": revision,
	})
}

func (a *LinuxAdapter) FlutterURL(flutterVersion string) (string, error) {
	return renderURL("flutter", flutterURLTemplate, map[string]string{
		"OS": "linux", "Version": flutterVersion, "Ext": "tar.xz",
	})
}

func (a *LinuxAdapter) ListDelimiter() string { return ":" }
func (a *LinuxAdapter) FoldPaths() bool       { return false }

// PackageManager is SDKMAN, bootstrapped with the vendor install script.
func (a *LinuxAdapter) PackageManager() PackageManager {
	return PackageManager{
		Name:  "sdkman",
		Probe: sdkmanProbe,
		Bootstrap: func(ctx context.Context, exe command.Executor) error {
			result, err := exe.Execute(ctx, "bash", []string{"-c", "curl -s https://get.sdkman.io | bash"}, nil)
			if err != nil {
				return fmt.Errorf("bootstrap sdkman: %w", err)
			}
			if result.ExitCode != 0 {
				return fmt.Errorf("bootstrap sdkman: exit %d", result.ExitCode)
			}
			return nil
		},
	}
}

func sdkmanProbe(ctx context.Context) (bool, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return false, nil
	}
	return probe.FileExists(filepath.Join(home, ".sdkman", "bin", "sdkman-init.sh"))(ctx)
}

// Virtualization is KVM. The probe accepts either kvm group membership or a
// directly accessible /dev/kvm; enabling adds the user to the kvm group,
// which takes effect at next login.
func (a *LinuxAdapter) Virtualization() *Virtualization {
	return &Virtualization{
		Name:  "kvm",
		Probe: kvmProbe,
		Enable: func(ctx context.Context, exe command.Executor) error {
			u, err := user.Current()
			if err != nil {
				return fmt.Errorf("current user: %w", err)
			}
			result, err := exe.Execute(ctx, "sudo", []string{"usermod", "-aG", "kvm", u.Username}, nil)
			if err != nil {
				return fmt.Errorf("add %s to kvm group: %w", u.Username, err)
			}
			if result.ExitCode != 0 {
				return fmt.Errorf("add %s to kvm group: exit %d", u.Username, result.ExitCode)
			}
			return nil
		},
	}
}

func kvmProbe(ctx context.Context) (bool, error) {
	if ok, err := probe.UserInGroup("kvm"); err == nil && ok {
		return true, nil
	}
	return probe.DeviceAccessible("/dev/kvm")
}
