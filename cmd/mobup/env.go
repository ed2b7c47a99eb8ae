package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/progress"
)

var (
	envConfig string
	envApply  bool
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the environment block mobup persists",
	Long: `Print the variables and PATH segments a provisioned toolchain needs,
and where they are persisted: the managed profile block on POSIX
systems, the user registry hive on Windows.

--apply re-writes the block through the same idempotent path the setup
pipeline uses, which repairs a profile the user edited by hand.`,
	Args: cobra.NoArgs,
	RunE: runEnv,
}

func runEnv(cmd *cobra.Command, args []string) error {
	rt, err := inspectionRuntime(envConfig, runtime.GOOS)
	if err != nil {
		return err
	}
	ctx := context.Background()

	fmt.Printf("Environment for %s (scope %s)\n\n", rt.Paths.Root, rt.Config.Scope)
	fmt.Printf("  JAVA_HOME=%s\n", rt.Paths.JavaHome)
	fmt.Printf("  ANDROID_HOME=%s\n", rt.Paths.AndroidHome)
	fmt.Printf("  ANDROID_SDK_ROOT=%s\n", rt.Paths.AndroidHome)
	segments := rt.PathSegments()
	if rt.Config.Flutter.Enabled {
		segments = append(segments, rt.Paths.FlutterBinDir)
	}
	for _, seg := range segments {
		fmt.Printf("  PATH += %s\n", seg)
	}
	fmt.Println()

	if rt.Adapter.OS() == "windows" {
		status := rt.DoctorEnv(ctx)
		glyph := progress.GlyphPassed
		state := "active in this session"
		if !status.Present {
			glyph = progress.GlyphWarning
			state = "not active in this session (registry values apply to new shells)"
		}
		fmt.Printf("  %s %s\n", glyph, state)
	} else {
		pm, err := envpath.NewPosixMutator()
		if err != nil {
			return err
		}
		for _, profile := range pm.Profiles {
			content, ok, err := envpath.ReadBlock(profile)
			switch {
			case err != nil:
				fmt.Printf("  %s %s: %v\n", progress.GlyphFailed, profile, err)
			case ok:
				lines := strings.Count(strings.TrimRight(content, "\n"), "\n") + 1
				fmt.Printf("  %s %s carries the managed block (%d lines)\n", progress.GlyphPassed, profile, lines)
			default:
				fmt.Printf("  %s %s: no managed block\n", progress.GlyphSkipped, profile)
			}
		}
	}

	if !envApply {
		return nil
	}

	mut, err := rt.Adapter.NewMutator()
	if err != nil {
		return fmt.Errorf("environment mutator: %w", err)
	}
	rt.Mutator = mut
	if err := rt.PersistEnvironment(ctx); err != nil {
		return err
	}
	if rt.Config.Flutter.Enabled {
		if err := rt.Mutator.AppendToPathLike("PATH", rt.Paths.FlutterBinDir, rt.Scope()); err != nil {
			return fmt.Errorf("persist PATH entry %s: %w", rt.Paths.FlutterBinDir, err)
		}
	}
	fmt.Printf("\n%s Environment re-applied\n", progress.GlyphPassed)
	return nil
}

func init() {
	envCmd.Flags().StringVar(&envConfig, "config", "", "Manifest path (default: mobup.yaml if present)")
	envCmd.Flags().BoolVar(&envApply, "apply", false, "Re-apply the environment block idempotently")
	rootCmd.AddCommand(envCmd)
}
