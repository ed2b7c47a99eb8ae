package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mobup/pkg/progress"
)

var (
	doctorConfig string
	doctorJSON   bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Probe every provisioned component",
	Long: `Check each component the pipeline provisions and report whether it is
present. When Flutter is installed, a live "flutter doctor" pass runs
as well (text output only). Read-only; exit code 1 when anything is
missing.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	rt, err := inspectionRuntime(doctorConfig, runtime.GOOS)
	if err != nil {
		return err
	}
	ctx := context.Background()

	rows := rt.Doctor(ctx)
	rows = append(rows, rt.DoctorEnv(ctx))

	missing := 0
	flutterPresent := false
	for _, row := range rows {
		if !row.Present {
			missing++
		}
		if row.Component == "flutter" && row.Present {
			flutterPresent = true
		}
	}

	if doctorJSON {
		out, err := json.MarshalIndent(map[string]any{
			"os":         rt.Adapter.OS(),
			"root":       rt.Paths.Root,
			"components": rows,
			"missing":    missing,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		fmt.Printf("mobup doctor — %s, root %s\n\n", rt.Adapter.OS(), rt.Paths.Root)
		for _, row := range rows {
			glyph := progress.GlyphPassed
			if !row.Present {
				glyph = progress.GlyphFailed
			}
			fmt.Printf("  %s %-16s %s\n", glyph, row.Component, row.Detail)
		}
		if flutterPresent {
			if err := rt.FlutterDoctor(ctx); err != nil {
				fmt.Printf("  %s %-16s %v\n", progress.GlyphWarning, "flutter doctor", err)
			} else {
				fmt.Printf("  %s %-16s healthy\n", progress.GlyphPassed, "flutter doctor")
			}
		}
	}

	if missing > 0 {
		if !doctorJSON {
			fmt.Printf("\n%d component(s) missing — run `mobup setup`\n", missing)
		}
		os.Exit(1)
	}
	if !doctorJSON {
		fmt.Println("\nAll components present.")
	}
	return nil
}

func init() {
	doctorCmd.Flags().StringVar(&doctorConfig, "config", "", "Manifest path (default: mobup.yaml if present)")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output as JSON (skips the live flutter doctor pass)")
	rootCmd.AddCommand(doctorCmd)
}
