package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestHandleValidateMissingPath(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestHandleValidateManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobup.yaml")
	manifest := "java:\n  version: \"21\"\nflutter:\n  enabled: false\n"
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"path": path}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Errorf("expected valid manifest, got %v", result.Content)
	}
}

func TestHandleValidateBadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobup.yaml")
	manifest := "java:\n  version: \"latest\"\n"
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"path": path}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for non-numeric java version")
	}
}

func TestHandleSchema(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	result, err := HandleSchema(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Error("expected success for schema export")
	}
	if len(result.Content) == 0 {
		t.Fatal("expected schema content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if !strings.Contains(text.Text, "Mobup Toolchain Manifest") {
		t.Errorf("schema missing title: %.120s", text.Text)
	}
}

func TestHandlePlanUsesDefaults(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	result, err := HandlePlan(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("expected plan to render: %v", result.Content)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if !strings.Contains(text.Text, `"steps"`) {
		t.Errorf("plan response missing steps: %.200s", text.Text)
	}
	if !strings.Contains(text.Text, "requirements") {
		t.Errorf("plan response missing requirements step: %.200s", text.Text)
	}
}

func TestHandleDoctorWithoutFlutter(t *testing.T) {
	// Point the root somewhere empty so the flutter probe fails and no
	// subprocess runs.
	path := filepath.Join(t.TempDir(), "mobup.yaml")
	manifest := "root: " + filepath.ToSlash(filepath.Join(filepath.Dir(path), "tools")) + "\n"
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"config": path}

	result, err := HandleDoctor(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("expected report, got error: %v", result.Content)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if !strings.Contains(text.Text, `"flutter_present": false`) {
		t.Errorf("doctor response missing absence report: %.200s", text.Text)
	}
	if !strings.Contains(text.Text, "mobup setup") {
		t.Errorf("doctor response missing setup pointer: %.200s", text.Text)
	}
}

func TestHandleStatusReportsComponents(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	result, err := HandleStatus(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("expected status to render: %v", result.Content)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	for _, want := range []string{`"components"`, "jdk", "environment"} {
		if !strings.Contains(text.Text, want) {
			t.Errorf("status response missing %q: %.200s", want, text.Text)
		}
	}
}
