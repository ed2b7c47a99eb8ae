package runlog

import (
	"os"
	"runtime"
	"strings"
	"testing"
)

func TestParseVerbosity(t *testing.T) {
	cases := map[string]Verbosity{
		"silent":  Silent,
		"normal":  Normal,
		"":        Normal,
		"verbose": Verbose,
	}
	for in, want := range cases {
		got, err := ParseVerbosity(in)
		if err != nil || got != want {
			t.Errorf("ParseVerbosity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseVerbosity("loud"); err == nil {
		t.Error("unknown verbosity must error")
	}
}

func TestNewWritesLeveledEntries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("temp dir override uses TMPDIR")
	}
	t.Setenv("TMPDIR", t.TempDir())

	l, err := New("20250101T000000-abcd1234", Normal)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("pipeline started")
	l.StepEntry("jdk").Warn("retrying download")
	l.StepEntry("jdk").Debug("attempt 2 of 3")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		t.Fatalf("read %s: %v", l.Path, err)
	}
	text := string(data)
	for _, want := range []string{
		"level=info", "pipeline started",
		"level=warning", "retrying download", "step=jdk",
		"level=debug",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(l.Path, "mobup-20250101T000000-abcd1234.log") {
		t.Errorf("log path = %q", l.Path)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("dropped")
	if err := l.Close(); err != nil {
		t.Errorf("Close on discard logger: %v", err)
	}
}
