package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kayneai/code-auditor/internal/findings"
	"github.com/kayneai/code-auditor/internal/llm"
	"github.com/kayneai/code-auditor/internal/worktree"
)

const (
	readCacheSize      = 128
	searchMaxResults   = 50
	defaultResultBytes = 16384
)

// Result is the outcome of executing a single tool call. Failures are
// encoded in-band; Execute never panics or leaks errors past the loop.
type Result struct {
	CallID  string
	Content string
	IsError bool
}

// Registry validates and executes tool calls against a working tree.
// report_issue calls append to the aggregator; everything else is read-only.
type Registry struct {
	tree           *worktree.Tree
	aggregator     *findings.Aggregator
	maxResultBytes int
	schemas        map[string]Schema
	readCache      *lru.Cache[string, string]
}

// NewRegistry builds a registry rooted at tree, reporting into aggregator.
func NewRegistry(tree *worktree.Tree, aggregator *findings.Aggregator, maxResultBytes int) (*Registry, error) {
	if tree == nil {
		return nil, fmt.Errorf("working tree is required")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if maxResultBytes <= 0 {
		maxResultBytes = defaultResultBytes
	}

	cache, err := lru.New[string, string](readCacheSize)
	if err != nil {
		return nil, fmt.Errorf("build read cache: %w", err)
	}

	byName := make(map[string]Schema)
	for _, s := range Schemas() {
		byName[s.Name] = s
	}

	return &Registry{
		tree:           tree,
		aggregator:     aggregator,
		maxResultBytes: maxResultBytes,
		schemas:        byName,
		readCache:      cache,
	}, nil
}

// Schema returns the declared schema for a tool name if present.
func (r *Registry) Schema(name string) (Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Execute runs a single tool call. Validation failures, missing paths, and
// traversal attempts come back as error results for the model to read.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) Result {
	name := call.Function.Name
	if err := ctx.Err(); err != nil {
		return errorResult(call.ID, fmt.Sprintf("call aborted: %v", err))
	}

	schema, ok := r.Schema(name)
	if !ok {
		return errorResult(call.ID, fmt.Sprintf("unknown tool %q", name))
	}

	args, err := decodeArgs(call.Function.Arguments)
	if err != nil {
		return errorResult(call.ID, err.Error())
	}
	if err := validateAgainstSchema(schema, args); err != nil {
		return errorResult(call.ID, err.Error())
	}

	var content string
	switch name {
	case ToolListFiles:
		content, err = r.listFiles(args)
	case ToolReadFile:
		content, err = r.readFile(args)
	case ToolSearchCode:
		content, err = r.searchCode(args)
	case ToolGetFileInfo:
		content, err = r.getFileInfo(args)
	case ToolReportIssue:
		content, err = r.reportIssue(args)
	case ToolFinishAnalysis:
		content = "analysis finished"
	}
	if err != nil {
		return errorResult(call.ID, err.Error())
	}

	return Result{CallID: call.ID, Content: content}
}

func errorResult(callID, msg string) Result {
	return Result{CallID: callID, Content: "error: " + msg, IsError: true}
}

func (r *Registry) listFiles(args map[string]interface{}) (string, error) {
	dir := stringArg(args, "directory")
	entries, err := r.tree.EntriesUnder(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "no files found", nil
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s (%d bytes)\n", e.Path, e.Size)
	}
	return truncate(strings.TrimRight(b.String(), "\n"), r.maxResultBytes), nil
}

func (r *Registry) readFile(args map[string]interface{}) (string, error) {
	path := stringArg(args, "path")

	if cached, ok := r.readCache.Get(path); ok {
		return truncate(cached, r.maxResultBytes), nil
	}

	content, err := r.tree.ReadFile(path)
	if err != nil {
		return "", err
	}
	r.readCache.Add(path, content)
	return truncate(content, r.maxResultBytes), nil
}

func (r *Registry) searchCode(args map[string]interface{}) (string, error) {
	pattern := stringArg(args, "pattern")
	scope := stringArg(args, "path")

	matches, err := r.tree.Search(pattern, scope, searchMaxResults)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "no matches", nil
	}

	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "%s:%d: %s\n", m.Path, m.Line, m.Snippet)
	}
	return truncate(strings.TrimRight(b.String(), "\n"), r.maxResultBytes), nil
}

func (r *Registry) getFileInfo(args map[string]interface{}) (string, error) {
	path := stringArg(args, "path")

	info, err := r.tree.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	lines, err := r.tree.LineCount(path)
	if err != nil {
		return "", err
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return fmt.Sprintf("path: %s\nsize: %d bytes\nextension: %s\nlines: %d", path, info.Size(), ext, lines), nil
}

func (r *Registry) reportIssue(args map[string]interface{}) (string, error) {
	severity, err := findings.ParseSeverity(stringArg(args, "severity"))
	if err != nil {
		return "", err
	}
	category, err := findings.ParseCategory(stringArg(args, "category"))
	if err != nil {
		return "", err
	}

	issue := findings.Issue{
		Severity:     severity,
		Category:     category,
		FilePath:     stringArg(args, "file_path"),
		Line:         intArg(args, "line_number"),
		Title:        stringArg(args, "title"),
		Description:  stringArg(args, "description"),
		SuggestedFix: stringArg(args, "suggested_fix"),
	}

	if r.aggregator.Add(issue) == findings.DuplicateIgnored {
		return "issue already recorded", nil
	}
	return "issue recorded", nil
}
