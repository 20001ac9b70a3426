package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard ensures file access stays within the tree root.
type PathGuard struct {
	Root string
}

// NewPathGuard constructs a guard rooted at root.
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &PathGuard{Root: abs}, nil
}

// Resolve validates a relative path and returns its absolute form inside Root.
// Absolute paths and traversals escaping the root are rejected.
func (g *PathGuard) Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute paths are not allowed")
	}
	abs := filepath.Clean(filepath.Join(g.Root, clean))

	if abs != g.Root && !strings.HasPrefix(abs, g.Root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes the working tree", p)
	}
	return abs, nil
}
