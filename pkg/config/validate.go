package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // location such as "avd.name"
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// ValidateFile performs the full 3-phase validation pipeline on a manifest.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules, host-dependent)
func ValidateFile(path, goos string) (*Config, []*ValidationError) {
	var allErrors []*ValidationError

	cfg, err := LoadFile(path)
	if err != nil {
		allErrors = append(allErrors, &ValidationError{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		})
		return nil, allErrors
	}

	allErrors = append(allErrors, validateSemantic(cfg)...)
	allErrors = append(allErrors, ValidateDomain(cfg, goos)...)

	if len(allErrors) > 0 {
		return cfg, allErrors
	}
	return cfg, nil
}

// validateSemantic validates the manifest against the JSON Schema.
func validateSemantic(cfg *Config) []*ValidationError {
	fail := func(msg string) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Message: msg, Severity: "error"}}
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fail(fmt.Sprintf("marshal for schema validation: %v", err))
	}
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fail(fmt.Sprintf("generate schema: %v", err))
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fail(fmt.Sprintf("unmarshal schema: %v", err))
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("mobup.json", schemaDoc); err != nil {
		return fail(fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("mobup.json")
	if err != nil {
		return fail(fmt.Sprintf("compile schema: %v", err))
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fail(fmt.Sprintf("unmarshal document: %v", err))
	}
	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, &ValidationError{Phase: "semantic", Message: err.Error(), Severity: "error"})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

var (
	javaVersionRe    = regexp.MustCompile(`^\d+$`)
	flutterVersionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	revisionRe       = regexp.MustCompile(`^\d+$`)
	avdNameRe        = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	sha256Re         = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// ValidateDomain applies rules the schema cannot express. goos selects
// host-dependent rules.
func ValidateDomain(cfg *Config, goos string) []*ValidationError {
	var errs []*ValidationError
	add := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "error"})
	}

	if cfg.Scope == "system" && goos != "windows" {
		add("scope", "system scope is only supported on Windows; profile files are always per-user")
	}
	if !javaVersionRe.MatchString(cfg.Java.Version) {
		add("java.version", fmt.Sprintf("%q is not a feature release number (expected e.g. \"17\")", cfg.Java.Version))
	}
	if cfg.Flutter.Enabled && !flutterVersionRe.MatchString(cfg.Flutter.Version) {
		add("flutter.version", fmt.Sprintf("%q is not a stable release version (expected e.g. \"3.24.3\")", cfg.Flutter.Version))
	}
	if !revisionRe.MatchString(cfg.Android.CmdlineToolsRevision) {
		add("android.cmdline_tools_revision", fmt.Sprintf("%q is not a numeric revision", cfg.Android.CmdlineToolsRevision))
	}
	checkPin := func(path, pin string) {
		if pin != "" && !sha256Re.MatchString(pin) {
			add(path, fmt.Sprintf("%q is not a hex sha256 digest", pin))
		}
	}
	checkPin("java.sha256", cfg.Java.SHA256)
	checkPin("android.cmdline_tools_sha256", cfg.Android.CmdlineToolsSHA256)
	checkPin("flutter.sha256", cfg.Flutter.SHA256)
	if len(cfg.Android.Packages) == 0 {
		add("android.packages", "at least one SDK package is required")
	}
	for i, p := range cfg.Android.Packages {
		if strings.TrimSpace(p) == "" || strings.ContainsAny(p, " \t") {
			add(fmt.Sprintf("android.packages[%d]", i), fmt.Sprintf("%q is not a valid sdkmanager package path", p))
		}
	}
	if cfg.AVD.Create {
		if !avdNameRe.MatchString(cfg.AVD.Name) {
			add("avd.name", fmt.Sprintf("%q may only contain letters, digits, dots, dashes and underscores", cfg.AVD.Name))
		}
		if cfg.AVD.SystemImage == "" {
			add("avd.system_image", "required when avd.create is true")
		} else if !strings.HasPrefix(cfg.AVD.SystemImage, "system-images;") {
			add("avd.system_image", fmt.Sprintf("%q is not a system-images package path", cfg.AVD.SystemImage))
		}
	}
	if cfg.Retry.MaxAttempts < 1 {
		add("retry.max_attempts", "must be at least 1")
	}
	return errs
}
