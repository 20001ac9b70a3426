package agent

import (
	"fmt"
	"strings"

	"github.com/kayneai/code-auditor/internal/worktree"
)

// promptListingCap bounds how many file entries the opening prompt carries;
// the model can list the rest itself.
const promptListingCap = 50

// buildSystemPrompt returns the auditor instruction prompt.
func buildSystemPrompt() string {
	return strings.TrimSpace(`
You are an expert code auditor. Explore the repository with the provided tools, read the files that matter, and report every defect you find.

Rules:
- Use list_files, read_file, search_code, and get_file_info to explore. All paths are relative to the repository root.
- Report each finding with report_issue: pick severity (critical, high, medium, low, info) and category (security, bug, performance, style), name the file and line, and explain the problem and a fix.
- Report an issue as soon as you confirm it; do not batch findings into prose.
- When you have covered the repository, call finish_analysis with a short closing summary.`)
}

// buildUserPrompt describes the tree under analysis.
func buildUserPrompt(tree *worktree.Tree) string {
	entries := tree.Entries()

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the repository at %s. It contains %d source files:\n\n", tree.Root(), len(entries))
	for i, e := range entries {
		if i >= promptListingCap {
			fmt.Fprintf(&b, "... and %d more (use list_files to see them)\n", len(entries)-promptListingCap)
			break
		}
		fmt.Fprintf(&b, "- %s (%d bytes)\n", e.Path, e.Size)
	}
	b.WriteString("\nBegin the analysis.")
	return b.String()
}

// stallNudge is appended after a round with neither tool calls nor a finish
// signal; a second consecutive stall terminates the run.
const stallNudge = "Continue the analysis using the provided tools, or call finish_analysis if you are done."
