package rpc

// RunAuditRequest starts an audit run against a directory visible to the
// daemon. Zero-valued fields fall back to the daemon's configuration.
type RunAuditRequest struct {
	RunID        string   `json:"run_id,omitempty"`
	Path         string   `json:"path"`
	Model        string   `json:"model,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	BaseURL      string   `json:"base_url,omitempty"`
	MaxRounds    int      `json:"max_rounds,omitempty"`
	MaxToolCalls int      `json:"max_tool_calls,omitempty"`
	MaxFiles     int      `json:"max_files,omitempty"`
	Extensions   []string `json:"extensions,omitempty"`
	Excludes     []string `json:"excludes,omitempty"`
	Format       string   `json:"format,omitempty"`
}

// AuditEvent streams back progress from the daemon.
type AuditEvent struct {
	Type       string `json:"type"` // message|tool|report|error|done
	RunID      string `json:"run_id,omitempty"`
	Round      int    `json:"round,omitempty"`
	Message    string `json:"message,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolOutput string `json:"tool_output,omitempty"`
	ToolError  bool   `json:"tool_error,omitempty"`
	Error      string `json:"error,omitempty"`
	Report     string `json:"report,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Done       bool   `json:"done,omitempty"`
}

// AuditStreamRequest is the bidirectional stream payload for Connect RPC.
// The first message must carry the Run request; later messages may cancel.
type AuditStreamRequest struct {
	Run    *RunAuditRequest `json:"run,omitempty"`
	Cancel bool             `json:"cancel,omitempty"`
	RunID  string           `json:"run_id,omitempty"`
}
