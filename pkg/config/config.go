// Package config defines the mobup.yaml manifest schema and provides
// strict YAML parsing with layered overrides: defaults, then the
// manifest, then MOBUP_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level document controlling a provisioning run.
// Every field has a usable default; an empty manifest is valid.
type Config struct {
	// Root is the toolchain installation root. Empty means the
	// platform default (~/mobup or %LOCALAPPDATA%\mobup).
	Root      string        `yaml:"root,omitempty"      json:"root,omitempty"`
	Scope     string        `yaml:"scope,omitempty"     json:"scope,omitempty"     jsonschema:"enum=user,enum=system"`
	Verbosity string        `yaml:"verbosity,omitempty" json:"verbosity,omitempty" jsonschema:"enum=silent,enum=normal,enum=verbose"`
	// PackageManager controls the host package manager bootstrap step.
	PackageManager bool          `yaml:"package_manager"     json:"package_manager"`
	Java           JavaConfig    `yaml:"java,omitempty"      json:"java,omitempty"`
	Android        AndroidConfig `yaml:"android,omitempty"   json:"android,omitempty"`
	Flutter        FlutterConfig `yaml:"flutter,omitempty"   json:"flutter,omitempty"`
	AVD            AVDConfig     `yaml:"avd,omitempty"       json:"avd,omitempty"`
	Retry          RetryConfig   `yaml:"retry,omitempty"     json:"retry,omitempty"`
}

// JavaConfig selects the JDK to install.
type JavaConfig struct {
	// Version is an Adoptium feature release number such as "17".
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// SHA256 optionally pins the archive digest for the exact
	// (version, os, arch) a team rolls out. Empty skips verification.
	SHA256 string `yaml:"sha256,omitempty" json:"sha256,omitempty"`
}

// AndroidConfig selects the SDK layout.
type AndroidConfig struct {
	// CmdlineToolsRevision is the commandlinetools zip revision.
	CmdlineToolsRevision string `yaml:"cmdline_tools_revision,omitempty" json:"cmdline_tools_revision,omitempty"`
	// CmdlineToolsSHA256 optionally pins the zip digest.
	CmdlineToolsSHA256 string `yaml:"cmdline_tools_sha256,omitempty" json:"cmdline_tools_sha256,omitempty"`
	// Packages are installed via sdkmanager, in order.
	Packages       []string `yaml:"packages,omitempty"        json:"packages,omitempty"`
	AcceptLicenses bool     `yaml:"accept_licenses,omitempty" json:"accept_licenses,omitempty"`
	// EnableKVM grants the current user KVM access on Linux hosts.
	EnableKVM bool `yaml:"enable_kvm,omitempty" json:"enable_kvm,omitempty"`
}

// FlutterConfig selects the Flutter SDK to install.
type FlutterConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Version is a stable-channel release such as "3.24.3".
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// SHA256 optionally pins the archive digest.
	SHA256 string `yaml:"sha256,omitempty" json:"sha256,omitempty"`
}

// AVDConfig describes the emulator image created after SDK setup.
type AVDConfig struct {
	Create bool   `yaml:"create"           json:"create"`
	Name   string `yaml:"name,omitempty"   json:"name,omitempty"`
	Device string `yaml:"device,omitempty" json:"device,omitempty"`
	// SystemImage is an sdkmanager package path. It is appended to
	// android.packages automatically when missing.
	SystemImage string `yaml:"system_image,omitempty" json:"system_image,omitempty"`
}

// RetryConfig bounds step re-execution.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty" jsonschema:"minimum=1,maximum=10"`
}

// Default returns the built-in configuration. Loading decodes the
// manifest over this value, so absent fields keep these settings.
func Default() *Config {
	return &Config{
		Scope:          "user",
		Verbosity:      "normal",
		PackageManager: true,
		Java:           JavaConfig{Version: "17"},
		Android: AndroidConfig{
			CmdlineToolsRevision: "11076708",
			Packages: []string{
				"platform-tools",
				"platforms;android-35",
				"build-tools;35.0.0",
				"emulator",
			},
			AcceptLicenses: true,
			EnableKVM:      true,
		},
		Flutter: FlutterConfig{Enabled: true, Version: "3.24.3"},
		AVD: AVDConfig{
			Create:      true,
			Name:        "mobup_device",
			Device:      "pixel_7",
			SystemImage: "system-images;android-35;google_apis;x86_64",
		},
		Retry: RetryConfig{MaxAttempts: 3},
	}
}

// LoadFile reads a manifest with strict unknown-field rejection and
// merges it over the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.Normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a manifest from an io.Reader with strict unknown-field
// rejection (yaml.v3 KnownFields).
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			cfg.Normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// LoadDotenv loads MOBUP_* overrides from a .env file into the process
// environment. A missing file is not an error.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides individual settings from MOBUP_* environment
// variables. Environment wins over the manifest, flags win over both.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MOBUP_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("MOBUP_SCOPE"); v != "" {
		c.Scope = v
	}
	if v := os.Getenv("MOBUP_VERBOSITY"); v != "" {
		c.Verbosity = v
	}
	if v := os.Getenv("MOBUP_JAVA_VERSION"); v != "" {
		c.Java.Version = v
	}
	if v := os.Getenv("MOBUP_FLUTTER_VERSION"); v != "" {
		c.Flutter.Version = v
	}
	if v := os.Getenv("MOBUP_AVD_NAME"); v != "" {
		c.AVD.Name = v
	}
	if v := os.Getenv("MOBUP_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retry.MaxAttempts = n
		}
	}
	c.Normalize()
}

// Normalize canonicalizes tolerated spellings and derives implied
// settings. Called after every load layer.
func (c *Config) Normalize() {
	c.Java.Version = strings.TrimPrefix(strings.TrimSpace(c.Java.Version), "jdk-")
	c.Flutter.Version = strings.TrimPrefix(strings.TrimSpace(c.Flutter.Version), "v")
	c.Scope = strings.ToLower(strings.TrimSpace(c.Scope))
	c.Verbosity = strings.ToLower(strings.TrimSpace(c.Verbosity))

	// Creating an AVD needs its system image installed.
	if c.AVD.Create && c.AVD.SystemImage != "" && !containsPackage(c.Android.Packages, c.AVD.SystemImage) {
		c.Android.Packages = append(c.Android.Packages, c.AVD.SystemImage)
	}
}

// ConditionEnv exposes settings to step `when` expressions.
func (c *Config) ConditionEnv(goos string) map[string]any {
	return map[string]any{
		"os":              goos,
		"scope":           c.Scope,
		"package_manager": c.PackageManager,
		"create_avd":      c.AVD.Create,
		"install_flutter": c.Flutter.Enabled,
		"enable_kvm":      c.Android.EnableKVM,
		"accept_licenses": c.Android.AcceptLicenses,
	}
}

func containsPackage(packages []string, want string) bool {
	for _, p := range packages {
		if p == want {
			return true
		}
	}
	return false
}
