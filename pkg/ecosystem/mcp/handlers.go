package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ormasoftchile/mobup/pkg/command"
	"github.com/ormasoftchile/mobup/pkg/config"
	"github.com/ormasoftchile/mobup/pkg/envpath"
	"github.com/ormasoftchile/mobup/pkg/pipeline"
	"github.com/ormasoftchile/mobup/pkg/platform"
	"github.com/ormasoftchile/mobup/pkg/probe"
	"github.com/ormasoftchile/mobup/pkg/toolchain"
)

// buildRuntime assembles a probe-only runtime for the current host. An
// empty path means built-in defaults. Environment writes stay in memory;
// mutating actions never run here.
func buildRuntime(path string) (*toolchain.Runtime, error) {
	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
		cfg.Normalize()
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	adapter, err := platform.New()
	if err != nil {
		return nil, err
	}
	mut := &envpath.MemMutator{Delim: adapter.ListDelimiter(), Fold: adapter.FoldPaths()}
	return toolchain.NewRuntime(cfg, adapter, &command.RealExecutor{}, mut, nil)
}

// HandleStatus implements the mobup/status MCP tool.
func HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["config"].(string)

	rt, err := buildRuntime(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	rows := rt.Doctor(ctx)
	rows = append(rows, rt.DoctorEnv(ctx))

	missing := 0
	for _, row := range rows {
		if !row.Present {
			missing++
		}
	}

	response := map[string]any{
		"os":         rt.Adapter.OS(),
		"root":       rt.Config.Root,
		"components": rows,
		"missing":    missing,
	}
	data, _ := json.MarshalIndent(response, "", "  ")
	return textResult(string(data)), nil
}

// HandlePlan implements the mobup/plan MCP tool.
func HandlePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["config"].(string)

	rt, err := buildRuntime(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	entries, err := pipeline.Plan(ctx, toolchain.Steps(rt), rt.Config.ConditionEnv(rt.Adapter.OS()))
	if err != nil {
		return errorResult(err.Error()), nil
	}

	pending := 0
	for _, e := range entries {
		if e.Action == "run" {
			pending++
		}
	}

	response := map[string]any{
		"os":      rt.Adapter.OS(),
		"root":    rt.Config.Root,
		"steps":   entries,
		"pending": pending,
	}
	data, _ := json.MarshalIndent(response, "", "  ")
	return textResult(string(data)), nil
}

// HandleDoctor implements the mobup/doctor MCP tool. The live
// flutter doctor pass runs only when the flutter binary probe succeeds;
// an unprovisioned machine gets a pointer to setup instead of a failed
// subprocess.
func HandleDoctor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["config"].(string)

	rt, err := buildRuntime(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	response := map[string]any{
		"os":   rt.Adapter.OS(),
		"root": rt.Config.Root,
	}
	present, _ := probe.FileExists(rt.Paths.FlutterBin)(ctx)
	response["flutter_present"] = present
	if !present {
		response["detail"] = "flutter is not installed; run `mobup setup` first"
	} else if err := rt.FlutterDoctor(ctx); err != nil {
		response["healthy"] = false
		response["detail"] = err.Error()
	} else {
		response["healthy"] = true
	}
	data, _ := json.MarshalIndent(response, "", "  ")
	return textResult(string(data)), nil
}

// HandleValidate implements the mobup/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	cfg, errs := config.ValidateFile(path, runtime.GOOS)
	if hasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (JDK %s, %d SDK packages)",
		path, cfg.Java.Version, len(cfg.Android.Packages))), nil
}

// HandleSchema implements the mobup/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := config.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func hasErrors(errs []*config.ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

func formatErrors(errs []*config.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", e.Phase, e.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
