package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// --- guide ---

var guideRaw bool

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Print the quickstart guide",
	RunE:  runGuide,
}

func init() {
	guideCmd.Flags().BoolVar(&guideRaw, "raw", false, "Print plain Markdown without terminal styling")
	rootCmd.AddCommand(guideCmd)
}

func runGuide(cmd *cobra.Command, args []string) error {
	fmt.Println(renderGuide(guideMarkdown))
	return nil
}

// renderGuide converts the guide to styled terminal output. Falls back
// to the raw Markdown if glamour is unavailable or rendering fails.
func renderGuide(md string) string {
	if guideRaw {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

const guideMarkdown = `# mobup quickstart

mobup provisions a complete mobile development toolchain into one
per-user directory: JDK, Android SDK command-line tools and packages,
an emulator image, and Flutter.

## First run

` + "```" + `
mobup plan     # see what would happen on this machine
mobup setup    # provision everything
` + "```" + `

Every step checks the machine first and skips work that is already
done. If a download fails or you press Ctrl-C, just run setup again:
completed steps are detected and skipped, and the run resumes where it
stopped.

After setup finishes, open a **new terminal** so the persisted
environment (JAVA_HOME, ANDROID_HOME, PATH) is picked up, or source
your profile on Linux.

## Pinning versions

Create a ` + "`mobup.yaml`" + ` next to where you run mobup:

` + "```yaml" + `
java:
  version: "17"
flutter:
  enabled: true
  version: "3.24.3"
android:
  packages:
    - platform-tools
    - platforms;android-35
    - build-tools;35.0.0
    - emulator
avd:
  name: team_pixel
  device: pixel_7
` + "```" + `

Validate it before committing with ` + "`mobup setup --dry-run --config mobup.yaml`" + `.
The full schema: ` + "`mobup schema export`" + `.

## Flags over manifest

Flags win over the manifest and over ` + "`MOBUP_*`" + ` environment
variables:

` + "```" + `
mobup setup --java-version 21 --no-avd
mobup setup --flutter-version 3.24.3 --avd-name demo_device
` + "```" + `

## Day-two commands

- ` + "`mobup doctor`" + ` — probe every component, plus a live
  flutter doctor pass. Exit 1 when something is missing.
- ` + "`mobup env`" + ` — show the environment block;
  ` + "`--apply`" + ` repairs a hand-edited profile.
- ` + "`mobup setup --dry-run`" + ` — print the decisions and the
  exact commands a run would execute, touching nothing.

## Where things land

| What | Where |
|------|-------|
| Toolchain | ` + "`~/mobup`" + ` (Linux) or ` + "`%LOCALAPPDATA%\\mobup`" + ` (Windows) |
| Run log | system temp, printed at the end of each run |
| Run manifest and trace | ` + "`mobup-<run-id>/run.yaml`" + ` + ` + "`trace.jsonl`" + ` in system temp |

Nothing outside the root and your shell profile (or user registry on
Windows) is modified.
`
