package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ormasoftchile/mobup/pkg/command"
	"github.com/ormasoftchile/mobup/pkg/probe"
)

// The documented Chocolatey bootstrap, run through powershell.exe.
const chocoInstall = "Set-ExecutionPolicy Bypass -Scope Process -Force; " +
	"[System.Net.ServicePointManager]::SecurityProtocol = [System.Net.ServicePointManager]::SecurityProtocol -bor 3072; " +
	"iex ((New-Object System.Net.WebClient).DownloadString('https://community.chocolatey.org/install.ps1'))"

// WindowsAdapter provisions under %LOCALAPPDATA% with registry environment
// persistence. Tool scripts resolve with their .bat/.exe suffixes.
type WindowsAdapter struct {
	arch string
}

// NewWindows returns the Windows adapter for the current CPU architecture.
func NewWindows() *WindowsAdapter {
	return &WindowsAdapter{arch: NormalizeArch(runtime.GOARCH)}
}

func (a *WindowsAdapter) OS() string   { return "windows" }
func (a *WindowsAdapter) Arch() string { return a.arch }

// DefaultRoot is %LOCALAPPDATA%\mobup.
func (a *WindowsAdapter) DefaultRoot() (string, error) {
	if v := os.Getenv("LOCALAPPDATA"); v != "" {
		return filepath.Join(v, "mobup"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "AppData", "Local", "mobup"), nil
}

func (a *WindowsAdapter) Paths(root, javaVersion string) Paths {
	sdk := filepath.Join(root, "android-sdk")
	javaHome := filepath.Join(root, "java", "jdk-"+javaVersion)
	flutter := filepath.Join(root, "flutter")
	cmdlineBin := filepath.Join(sdk, "cmdline-tools", "latest", "bin")
	return Paths{
		Root:          root,
		JavaHome:      javaHome,
		JavaBin:       filepath.Join(javaHome, "bin", "java.exe"),
		AndroidHome:   sdk,
		CmdlineBinDir: cmdlineBin,
		Sdkmanager:    filepath.Join(cmdlineBin, "sdkmanager.bat"),
		Avdmanager:    filepath.Join(cmdlineBin, "avdmanager.bat"),
		PlatformTools: filepath.Join(sdk, "platform-tools"),
		EmulatorDir:   filepath.Join(sdk, "emulator"),
		Emulator:      filepath.Join(sdk, "emulator", "emulator.exe"),
		LicensesDir:   filepath.Join(sdk, "licenses"),
		FlutterHome:   flutter,
		FlutterBinDir: filepath.Join(flutter, "bin"),
		FlutterBin:    filepath.Join(flutter, "bin", "flutter.bat"),
	}
}

func (a *WindowsAdapter) JDKURL(javaVersion string) (string, error) {
	return renderURL("jdk", jdkURLTemplate, map[string]string{
		"Version": javaVersion, "OS": "windows", "Arch": a.arch,
	})
}

// CmdlineToolsURL uses Google's "win" OS token, not "windows".
func (a *WindowsAdapter) CmdlineToolsURL(revision string) (string, error) {
	return renderURL("cmdline-tools", cmdlineToolsURLTemplate, map[string]string{
		"OS": "win", "Revision": revision,
	})
}

func (a *WindowsAdapter) FlutterURL(flutterVersion string) (string, error) {
	return renderURL("flutter", flutterURLTemplate, map[string]string{
		"OS": "windows", "Version": flutterVersion, "Ext": "zip",
	})
}

func (a *WindowsAdapter) ListDelimiter() string { return ";" }
func (a *WindowsAdapter) FoldPaths() bool       { return true }

// PackageManager is Chocolatey, with winget probed as a secondary.
func (a *WindowsAdapter) PackageManager() PackageManager {
	return PackageManager{
		Name:  "chocolatey",
		Probe: probe.BinaryOnPath("choco"),
		Bootstrap: func(ctx context.Context, exe command.Executor) error {
			args := []string{"-NoProfile", "-InputFormat", "None", "-ExecutionPolicy", "Bypass", "-Command", chocoInstall}
			result, err := exe.Execute(ctx, "powershell.exe", args, nil)
			if err != nil {
				return fmt.Errorf("bootstrap chocolatey: %w", err)
			}
			if result.ExitCode != 0 {
				return fmt.Errorf("bootstrap chocolatey: exit %d", result.ExitCode)
			}
			return nil
		},
		Secondary:      "winget",
		SecondaryProbe: probe.BinaryOnPath("winget"),
	}
}

// Virtualization returns nil: the Windows emulator configures WHPX itself.
func (a *WindowsAdapter) Virtualization() *Virtualization { return nil }
