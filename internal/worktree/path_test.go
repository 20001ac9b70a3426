package worktree

import (
	"path/filepath"
	"testing"
)

func TestPathGuardResolve(t *testing.T) {
	guard, err := NewPathGuard(t.TempDir())
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	abs, err := guard.Resolve("sub/file.go")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := filepath.Join(guard.Root, "sub", "file.go"); abs != want {
		t.Fatalf("expected %s, got %s", want, abs)
	}

	// "." resolves to the root itself.
	abs, err = guard.Resolve(".")
	if err != nil {
		t.Fatalf("resolve dot: %v", err)
	}
	if abs != guard.Root {
		t.Fatalf("expected root, got %s", abs)
	}

	for _, p := range []string{"", "/etc/passwd", "..", "../peer", "a/../../b"} {
		if _, err := guard.Resolve(p); err == nil {
			t.Fatalf("expected rejection for %q", p)
		}
	}
}

func TestNewPathGuardRequiresRoot(t *testing.T) {
	if _, err := NewPathGuard(""); err == nil {
		t.Fatal("expected error for empty root")
	}
}
