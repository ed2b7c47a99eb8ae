package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mobup/pkg/pipeline"
	"github.com/ormasoftchile/mobup/pkg/progress"
	"github.com/ormasoftchile/mobup/pkg/toolchain"
)

var (
	planConfig string
	planOS     string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what setup would do, without touching the machine",
	Long: `Evaluate every step's guard and state probe and print the resulting
run/skip decision. Probes are read-only, so planning never changes the
machine.

--os renders another platform's step list; its probes are still
answered by this machine, so foreign state predictions are a guess.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	goos := planOS
	if goos == "" {
		goos = runtime.GOOS
	}
	rt, err := inspectionRuntime(planConfig, goos)
	if err != nil {
		return err
	}
	ctx := context.Background()

	steps := toolchain.Steps(rt)
	entries, err := pipeline.Plan(ctx, steps, rt.Config.ConditionEnv(goos))
	if err != nil {
		return err
	}

	fmt.Printf("mobup plan — %s, root %s\n\n", goos, rt.Paths.Root)
	fmt.Print(progress.RenderPlan(entries))

	run, satisfied, disabled := 0, 0, 0
	for _, e := range entries {
		switch {
		case e.Action == "run":
			run++
		case e.Reason == pipeline.ReasonSatisfied:
			satisfied++
		default:
			disabled++
		}
	}
	fmt.Printf("\n%d to run, %d already satisfied, %d disabled\n", run, satisfied, disabled)
	return nil
}

func init() {
	planCmd.Flags().StringVar(&planConfig, "config", "", "Manifest path (default: mobup.yaml if present)")
	planCmd.Flags().StringVar(&planOS, "os", "", "Render the plan for another OS (windows, linux)")
	rootCmd.AddCommand(planCmd)
}
