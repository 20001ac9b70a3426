package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kayneai/code-auditor/internal/findings"
	"github.com/kayneai/code-auditor/internal/llm"
	"github.com/kayneai/code-auditor/internal/worktree"
)

func testRegistry(t *testing.T, maxResultBytes int) (*Registry, *findings.Aggregator) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"main.go":     "package main\n\nfunc main() {\n\tpassword := \"hunter2\"\n\t_ = password\n}\n",
		"lib/util.go": "package lib\n\nfunc Util() {}\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	tree, err := worktree.Scan(root, worktree.ScanOptions{Extensions: []string{"go"}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	agg := findings.NewAggregator()
	reg, err := NewRegistry(tree, agg, maxResultBytes)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg, agg
}

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   "call-1",
		Type: "function",
		Function: llm.ToolFunctionCall{
			Name:      name,
			Arguments: json.RawMessage(args),
		},
	}
}

func TestExecuteListFiles(t *testing.T) {
	reg, _ := testRegistry(t, 0)

	res := reg.Execute(context.Background(), call(ToolListFiles, `{}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "main.go") || !strings.Contains(res.Content, "lib/util.go") {
		t.Fatalf("listing missing files: %s", res.Content)
	}

	res = reg.Execute(context.Background(), call(ToolListFiles, `{"directory":"lib"}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if strings.Contains(res.Content, "main.go") {
		t.Fatalf("scoped listing leaked root files: %s", res.Content)
	}
}

func TestExecuteReadFile(t *testing.T) {
	reg, _ := testRegistry(t, 0)

	res := reg.Execute(context.Background(), call(ToolReadFile, `{"path":"main.go"}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "hunter2") {
		t.Fatalf("unexpected content: %s", res.Content)
	}

	// Cached reads return identical content.
	again := reg.Execute(context.Background(), call(ToolReadFile, `{"path":"main.go"}`))
	if again.Content != res.Content {
		t.Fatal("cached read differs from first read")
	}

	res = reg.Execute(context.Background(), call(ToolReadFile, `{"path":"missing.go"}`))
	if !res.IsError {
		t.Fatal("expected error for missing file")
	}
}

func TestExecuteReadFileTruncates(t *testing.T) {
	reg, _ := testRegistry(t, 32)

	res := reg.Execute(context.Background(), call(ToolReadFile, `{"path":"main.go"}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "[truncated:") {
		t.Fatalf("expected truncation marker, got: %s", res.Content)
	}
}

func TestExecuteSearchCode(t *testing.T) {
	reg, _ := testRegistry(t, 0)

	res := reg.Execute(context.Background(), call(ToolSearchCode, `{"pattern":"password"}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if !strings.Contains(res.Content, "main.go:4:") {
		t.Fatalf("expected file:line match, got: %s", res.Content)
	}

	res = reg.Execute(context.Background(), call(ToolSearchCode, `{"pattern":"no-such-text-zzz"}`))
	if res.IsError || res.Content != "no matches" {
		t.Fatalf("expected 'no matches', got: %s", res.Content)
	}
}

func TestExecuteGetFileInfo(t *testing.T) {
	reg, _ := testRegistry(t, 0)

	res := reg.Execute(context.Background(), call(ToolGetFileInfo, `{"path":"main.go"}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	for _, want := range []string{"path: main.go", "extension: go", "lines: 6"} {
		if !strings.Contains(res.Content, want) {
			t.Fatalf("missing %q in: %s", want, res.Content)
		}
	}

	res = reg.Execute(context.Background(), call(ToolGetFileInfo, `{"path":"lib"}`))
	if !res.IsError {
		t.Fatal("expected error for directory")
	}
}

func TestExecuteReportIssue(t *testing.T) {
	reg, agg := testRegistry(t, 0)

	args := `{"severity":"high","category":"security","file_path":"main.go","line_number":4,"title":"Hardcoded password","description":"credentials in source"}`
	res := reg.Execute(context.Background(), call(ToolReportIssue, args))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if res.Content != "issue recorded" {
		t.Fatalf("unexpected content: %s", res.Content)
	}

	res = reg.Execute(context.Background(), call(ToolReportIssue, args))
	if res.IsError || res.Content != "issue already recorded" {
		t.Fatalf("expected duplicate ack, got: %s", res.Content)
	}
	if agg.Len() != 1 {
		t.Fatalf("expected 1 issue, got %d", agg.Len())
	}

	res = reg.Execute(context.Background(), call(ToolReportIssue, `{"severity":"urgent","category":"security","file_path":"main.go","line_number":4,"title":"x","description":"y"}`))
	if !res.IsError {
		t.Fatal("expected error for invalid severity")
	}
}

func TestExecuteFinishAnalysis(t *testing.T) {
	reg, _ := testRegistry(t, 0)

	res := reg.Execute(context.Background(), call(ToolFinishAnalysis, `{"summary":"all clear"}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if res.Content != "analysis finished" {
		t.Fatalf("unexpected content: %s", res.Content)
	}
}

func TestExecuteValidationErrors(t *testing.T) {
	reg, _ := testRegistry(t, 0)

	cases := []struct {
		name string
		call llm.ToolCall
	}{
		{"unknown tool", call("delete_file", `{}`)},
		{"malformed args", call(ToolReadFile, `"not an object"`)},
		{"missing required", call(ToolReadFile, `{}`)},
		{"wrong type", call(ToolReadFile, `{"path":42}`)},
		{"traversal", call(ToolReadFile, `{"path":"../../etc/passwd"}`)},
		{"absolute path", call(ToolReadFile, `{"path":"/etc/passwd"}`)},
	}
	for _, tc := range cases {
		res := reg.Execute(context.Background(), tc.call)
		if !res.IsError {
			t.Fatalf("%s: expected error result", tc.name)
		}
		if !strings.HasPrefix(res.Content, "error: ") {
			t.Fatalf("%s: expected error prefix, got: %s", tc.name, res.Content)
		}
		if res.CallID != tc.call.ID {
			t.Fatalf("%s: result not tied to call id", tc.name)
		}
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	reg, _ := testRegistry(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := reg.Execute(ctx, call(ToolListFiles, `{}`))
	if !res.IsError {
		t.Fatal("expected error result for cancelled context")
	}
}
