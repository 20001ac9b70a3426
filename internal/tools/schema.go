package tools

import "github.com/kayneai/code-auditor/internal/llm"

// Tool names understood by the registry.
const (
	ToolListFiles      = "list_files"
	ToolReadFile       = "read_file"
	ToolSearchCode     = "search_code"
	ToolGetFileInfo    = "get_file_info"
	ToolReportIssue    = "report_issue"
	ToolFinishAnalysis = "finish_analysis"
)

// Schema describes a tool for JSON schema/tool-calling.
type Schema struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  []SchemaField `json:"parameters"`
}

// SchemaField describes a single parameter.
type SchemaField struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// Schemas returns descriptors for the fixed tool set exposed to the model.
func Schemas() []Schema {
	return []Schema{
		{
			Name:        ToolListFiles,
			Description: "List source files in the repository, optionally under a subdirectory",
			Parameters: []SchemaField{
				{Name: "directory", Type: "string", Description: "Relative directory (default: repository root)", Required: false},
			},
		},
		{
			Name:        ToolReadFile,
			Description: "Read the contents of a file; large files are truncated",
			Parameters: []SchemaField{
				{Name: "path", Type: "string", Description: "Relative file path", Required: true},
			},
		},
		{
			Name:        ToolSearchCode,
			Description: "Search for a literal text pattern across source files",
			Parameters: []SchemaField{
				{Name: "pattern", Type: "string", Description: "Text to search for", Required: true},
				{Name: "path", Type: "string", Description: "Restrict search to this relative directory", Required: false},
			},
		},
		{
			Name:        ToolGetFileInfo,
			Description: "Get size, extension, and line count for a file",
			Parameters: []SchemaField{
				{Name: "path", Type: "string", Description: "Relative file path", Required: true},
			},
		},
		{
			Name:        ToolReportIssue,
			Description: "Report a code issue found during analysis",
			Parameters: []SchemaField{
				{Name: "severity", Type: "string", Required: true, Enum: []string{"critical", "high", "medium", "low", "info"}},
				{Name: "category", Type: "string", Required: true, Enum: []string{"security", "bug", "performance", "style"}},
				{Name: "file_path", Type: "string", Description: "File the issue occurs in", Required: true},
				{Name: "line_number", Type: "integer", Description: "Line the issue occurs at", Required: false},
				{Name: "title", Type: "string", Description: "Short issue title", Required: true},
				{Name: "description", Type: "string", Description: "What is wrong and why it matters", Required: true},
				{Name: "suggested_fix", Type: "string", Description: "How to fix the issue", Required: false},
			},
		},
		{
			Name:        ToolFinishAnalysis,
			Description: "Signal that the analysis is complete",
			Parameters: []SchemaField{
				{Name: "summary", Type: "string", Description: "Closing summary of the analysis", Required: false},
			},
		},
	}
}

// LLMTools converts the registry schemas into the JSON-schema tool
// declarations providers send with each request.
func LLMTools() []llm.Tool {
	schemas := Schemas()
	out := make([]llm.Tool, 0, len(schemas))
	for _, s := range schemas {
		props := make(map[string]any, len(s.Parameters))
		var required []string
		for _, f := range s.Parameters {
			field := map[string]any{"type": f.Type}
			if f.Description != "" {
				field["description"] = f.Description
			}
			if len(f.Enum) > 0 {
				field["enum"] = f.Enum
			}
			props[f.Name] = field
			if f.Required {
				required = append(required, f.Name)
			}
		}
		params := map[string]any{
			"type":       "object",
			"properties": props,
		}
		if len(required) > 0 {
			params["required"] = required
		}
		out = append(out, llm.Tool{Name: s.Name, Description: s.Description, Parameters: params})
	}
	return out
}
