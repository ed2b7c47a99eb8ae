package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mobup/pkg/command"
	"github.com/ormasoftchile/mobup/pkg/config"
	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/fetch"
	"github.com/ormasoftchile/mobup/pkg/pipeline"
	"github.com/ormasoftchile/mobup/pkg/platform"
	"github.com/ormasoftchile/mobup/pkg/progress"
	"github.com/ormasoftchile/mobup/pkg/runlog"
	"github.com/ormasoftchile/mobup/pkg/toolchain"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// .env overrides are optional and gitignored; a missing file is fine.
	if err := config.LoadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mobup",
	Short: "Mobile toolchain provisioner",
	Long:  "mobup — provisions JDK, Android SDK, emulator and Flutter into a per-user root, idempotently and resumably.",
}

// --- setup ---

var (
	setupConfig     string
	setupRoot       string
	setupJava       string
	setupFlutter    string
	setupAVDName    string
	setupVerbosity  string
	setupPM         bool
	setupNoPM       bool
	setupNoAVD      bool
	setupNoLicenses bool
	setupTUI        bool
	setupDryRun     bool
	setupYes        bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the mobile toolchain on this machine",
	Long: `Run the provisioning pipeline: package manager, JDK, Android SDK
command-line tools, licenses, SDK packages, hardware acceleration, an
AVD, and Flutter.

Every step probes the machine first and is skipped when already
satisfied, so re-running after a failure or interrupt resumes where the
previous run stopped. Exit code 0 means the run completed (possibly
with non-fatal warnings), 1 means a fatal step failed, 130 means the
run was interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := buildSetupConfig(cmd)
	if err != nil {
		return err
	}
	verbosity, err := runlog.ParseVerbosity(cfg.Verbosity)
	if err != nil {
		return err
	}
	silent := verbosity == runlog.Silent

	adapter, err := platform.New()
	if err != nil {
		return err
	}

	// Ctrl-C cancels the context; the engine aborts at the next
	// cancellation point instead of being killed mid-extraction.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A dry run records tool invocations and keeps environment writes
	// in memory; nothing touches the machine.
	var exe command.Executor = &command.RealExecutor{}
	var mut envpath.Mutator
	var recorder *command.DryRunExecutor
	if setupDryRun {
		recorder = &command.DryRunExecutor{}
		exe = recorder
		mut = &envpath.MemMutator{Delim: adapter.ListDelimiter(), Fold: adapter.FoldPaths()}
	} else {
		mut, err = adapter.NewMutator()
		if err != nil {
			return fmt.Errorf("environment mutator: %w", err)
		}
	}

	runID := pipeline.GenerateRunID()
	log, err := runlog.New(runID, verbosity)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer log.Close()

	rt, err := toolchain.NewRuntime(cfg, adapter, exe, mut, log)
	if err != nil {
		return err
	}
	rt.DryRun = setupDryRun

	// One run per root at a time. A dry run mutates nothing, so it may
	// observe a machine mid-provisioning without taking the lock.
	var lock *pipeline.Lock
	if !setupDryRun {
		lock, err = pipeline.AcquireLock(rt.Paths.Root)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	steps := toolchain.Steps(rt)

	artifacts := pipeline.ArtifactsDir(runID)
	trace, err := pipeline.NewTraceWriter(filepath.Join(artifacts, "trace.jsonl"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: step trace disabled: %v\n", err)
		trace = nil
	}

	mode := "setup"
	if setupDryRun {
		mode = "dry-run"
	}

	opts := pipeline.Options{
		RunID: runID,
		Mode:  mode,
		Env:   cfg.ConditionEnv(adapter.OS()),
		Log:   log,
		Trace: trace,
		Tick:  5 * time.Second,
	}

	var tui *progress.TUI
	if setupTUI && !silent {
		tui = progress.NewTUI(mode, stop)
		opts.Reporter = tui
	} else {
		opts.Reporter = progress.NewPlainReporter(os.Stdout, verbosity)
	}

	eng, err := pipeline.NewEngine(steps, opts)
	if err != nil {
		return err
	}

	if !silent {
		fmt.Printf("Run ID: %s\n", runID)
		fmt.Printf("Mode: %s\n", mode)
		fmt.Printf("Root: %s\n", rt.Paths.Root)
	}

	started := time.Now()
	var runErr error
	if tui != nil {
		runErr = tui.Run(steps, func() error { return eng.Run(ctx) })
	} else {
		runErr = eng.Run(ctx)
	}

	if trace != nil {
		if err := trace.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close trace: %v\n", err)
		}
	}

	// The manifest is written even for aborted runs; a post-mortem
	// needs it most.
	manifest := &pipeline.RunManifest{
		RunID:     runID,
		Phase:     string(eng.Phase()),
		Mode:      mode,
		OS:        adapter.OS(),
		Root:      rt.Paths.Root,
		StartedAt: started.UTC().Format(time.RFC3339),
		EndedAt:   time.Now().UTC().Format(time.RFC3339),
		Summary:   eng.Summary(),
		Outcomes:  eng.Outcomes(),
		LogPath:   log.Path,
	}
	if err := pipeline.WriteManifest(artifacts, manifest); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write run manifest: %v\n", err)
	} else if !silent {
		fmt.Printf("  Manifest: %s\n", filepath.Join(artifacts, "run.yaml"))
	}
	if !silent {
		fmt.Printf("  Log: %s\n", log.Path)
	}

	if runErr != nil {
		if ctx.Err() != nil || errors.Is(runErr, context.Canceled) {
			// Remove half-written archives so the next run re-downloads
			// them instead of tripping over truncated files.
			if !setupDryRun {
				if err := fetch.CleanupPartials(filepath.Join(rt.Paths.Root, "downloads")); err != nil {
					fmt.Fprintf(os.Stderr, "warning: cleanup: %v\n", err)
				}
			}
			fmt.Fprintln(os.Stderr, "Interrupted. Completed steps are preserved; run `mobup setup` again to resume.")
			exitSetup(log, lock, 130)
		}
		if silent {
			fmt.Fprintf(os.Stderr, "Log: %s\n", log.Path)
		}
		exitSetup(log, lock, 1)
	}

	if setupDryRun {
		if !silent {
			fmt.Println("\nDecisions:")
			fmt.Print(progress.RenderOutcomes(eng.Outcomes()))
		}
		if recorder != nil && !silent && len(recorder.Commands) > 0 {
			fmt.Println("\nCommands that would run:")
			for _, c := range recorder.Commands {
				fmt.Printf("  %s\n", c)
			}
		}
		return nil
	}

	// Post-run epilogue, not a step: offer to boot the fresh AVD.
	// Under --yes the prompt takes its default answer, which is no.
	if !setupYes {
		if _, err := rt.OfferEmulatorLaunch(eng.Outcomes(), (&command.RealExecutor{}).StartDetached); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	return nil
}

// exitSetup terminates a failed run. os.Exit does not run deferred
// calls, so the run log and the root lock are closed by hand first.
func exitSetup(log *runlog.Logger, lock *pipeline.Lock, code int) {
	log.Close()
	if err := lock.Release(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	os.Exit(code)
}

// buildSetupConfig layers the effective configuration: defaults, then
// the manifest, then MOBUP_* environment variables, then flags.
func buildSetupConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if setupConfig != "" {
		// An explicitly named manifest must exist; only the implicit
		// ./mobup.yaml lookup tolerates absence.
		if _, err := os.Stat(setupConfig); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", setupConfig, err)
		}
		loaded, errs := config.ValidateFile(setupConfig, runtime.GOOS)
		if hasConfigErrors(errs) {
			printConfigErrors(errs)
			return nil, fmt.Errorf("manifest validation failed")
		}
		printConfigWarnings(errs)
		cfg = loaded
	} else {
		loaded, err := config.LoadFile("mobup.yaml")
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = setupRoot
	}
	if flags.Changed("java-version") {
		cfg.Java.Version = setupJava
	}
	if flags.Changed("flutter-version") {
		cfg.Flutter.Version = setupFlutter
	}
	if flags.Changed("avd-name") {
		cfg.AVD.Name = setupAVDName
	}
	if flags.Changed("verbosity") {
		cfg.Verbosity = setupVerbosity
	}
	if flags.Changed("package-manager") {
		cfg.PackageManager = setupPM
	}
	if setupNoPM {
		cfg.PackageManager = false
	}
	if setupNoAVD {
		cfg.AVD.Create = false
	}
	if setupNoLicenses {
		cfg.Android.AcceptLicenses = false
	}
	cfg.Normalize()

	// Domain rules run on the final, flag-adjusted value so a bad
	// --java-version fails here and not three steps into the run.
	if errs := config.ValidateDomain(cfg, runtime.GOOS); hasConfigErrors(errs) {
		printConfigErrors(errs)
		return nil, fmt.Errorf("manifest validation failed")
	}
	return cfg, nil
}

// hasConfigErrors returns true if any error (non-warning) is present.
func hasConfigErrors(errs []*config.ValidationError) bool {
	for _, e := range errs {
		if e.Severity != "warning" {
			return true
		}
	}
	return false
}

// printConfigErrors prints non-warning validation errors to stderr.
func printConfigErrors(errs []*config.ValidationError) {
	n := 0
	for _, e := range errs {
		if e.Severity != "warning" {
			n++
		}
	}
	fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", n)
	i := 0
	for _, e := range errs {
		if e.Severity == "warning" {
			continue
		}
		i++
		fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i, e.Phase, e.Message)
		if e.Path != "" {
			fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
		}
	}
}

// printConfigWarnings prints any warnings to stderr.
func printConfigWarnings(errs []*config.ValidationError) {
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", e.Path)
			}
		}
	}
}

// loadManifest resolves configuration for the read-only commands: the
// manifest (explicit path or ./mobup.yaml), then MOBUP_* overrides.
func loadManifest(path string) (*config.Config, error) {
	if path == "" {
		path = "mobup.yaml"
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.Normalize()
	return cfg, nil
}

// inspectionRuntime builds a runtime that can only observe: real
// executor for live probes, in-memory environment writes.
func inspectionRuntime(configPath, goos string) (*toolchain.Runtime, error) {
	cfg, err := loadManifest(configPath)
	if err != nil {
		return nil, err
	}
	adapter, err := platform.ForOS(goos)
	if err != nil {
		return nil, err
	}
	mut := &envpath.MemMutator{Delim: adapter.ListDelimiter(), Fold: adapter.FoldPaths()}
	return toolchain.NewRuntime(cfg, adapter, &command.RealExecutor{}, mut, nil)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mobup %s (build: %s)\n", version, commit)
	},
}

func init() {
	// setup flags
	setupCmd.Flags().StringVar(&setupConfig, "config", "", "Manifest path (default: mobup.yaml if present)")
	setupCmd.Flags().StringVar(&setupRoot, "root", "", "Toolchain install root (default: per-user directory)")
	setupCmd.Flags().StringVar(&setupJava, "java-version", "", "JDK feature release to install (e.g. 17)")
	setupCmd.Flags().StringVar(&setupFlutter, "flutter-version", "", "Flutter stable release to install (e.g. 3.24.3)")
	setupCmd.Flags().StringVar(&setupAVDName, "avd-name", "", "Name of the AVD to create")
	setupCmd.Flags().StringVar(&setupVerbosity, "verbosity", "", "Console verbosity: silent, normal or verbose")
	setupCmd.Flags().BoolVar(&setupPM, "package-manager", true, "Bootstrap the host package manager when missing")
	setupCmd.Flags().BoolVar(&setupNoPM, "no-package-manager", false, "Skip the package manager step")
	setupCmd.Flags().BoolVar(&setupNoAVD, "no-avd", false, "Skip AVD creation")
	setupCmd.Flags().BoolVar(&setupNoLicenses, "no-licenses", false, "Skip SDK license acceptance")
	setupCmd.Flags().BoolVar(&setupTUI, "tui", false, "Live progress view instead of line output")
	setupCmd.Flags().BoolVar(&setupDryRun, "dry-run", false, "Print decisions and commands without touching the machine")
	setupCmd.Flags().BoolVar(&setupYes, "yes", false, "Non-interactive: prompts take their default answer")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(versionCmd)
}
