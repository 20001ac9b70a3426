package agent

import (
	"crypto/sha256"
	"fmt"

	"github.com/kayneai/code-auditor/internal/llm"
)

// repeatThreshold is how many identical consecutive tool calls count as a
// stuck model.
const repeatThreshold = 4

// callSignature fingerprints a tool call by name and argument bytes.
func callSignature(call llm.ToolCall) string {
	h := sha256.Sum256(call.Function.Arguments)
	return fmt.Sprintf("%s:%x", call.Function.Name, h[:8])
}

// repeatTracker counts consecutive identical tool-call signatures.
type repeatTracker struct {
	last  string
	count int
}

// observe records a signature and reports whether the repeat threshold is hit.
func (t *repeatTracker) observe(sig string) bool {
	if sig == t.last {
		t.count++
	} else {
		t.last = sig
		t.count = 1
	}
	return t.count >= repeatThreshold
}
