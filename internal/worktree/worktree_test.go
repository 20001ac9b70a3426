package worktree

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func fixtureTree(t *testing.T) *Tree {
	t.Helper()
	root := t.TempDir()
	writeFixture(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFixture(t, root, "lib/util.go", "package lib\n\nvar token = \"secret\"\n")
	writeFixture(t, root, "lib/util_test.go", "package lib\n")
	writeFixture(t, root, "README.md", "# readme\n")
	writeFixture(t, root, "node_modules/dep/index.js", "module.exports = {}\n")

	tree, err := Scan(root, ScanOptions{
		Extensions: []string{"go"},
		Excludes:   []string{"node_modules"},
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return tree
}

func TestScanFiltersAndSorts(t *testing.T) {
	tree := fixtureTree(t)

	entries := tree.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(entries), entries)
	}
	want := []string{"lib/util.go", "lib/util_test.go", "main.go"}
	for i, w := range want {
		if entries[i].Path != w {
			t.Fatalf("entry %d: expected %s, got %s", i, w, entries[i].Path)
		}
	}
	if entries[0].Extension != "go" {
		t.Fatalf("expected go extension, got %s", entries[0].Extension)
	}
}

func TestScanMaxFiles(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.go", "a")
	writeFixture(t, root, "b.go", "b")
	writeFixture(t, root, "c.go", "c")

	tree, err := Scan(root, ScanOptions{MaxFiles: 2})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(tree.Entries()) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tree.Entries()))
	}
	// Equal priority, so the cut falls back to path order.
	if tree.Entries()[0].Path != "a.go" || tree.Entries()[1].Path != "b.go" {
		t.Fatalf("unexpected entries after cap: %v", tree.Entries())
	}
}

func TestScanMaxFilesKeepsMainSources(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "aaa_helper.go", "x")
	writeFixture(t, root, "bbb.go", "x")
	writeFixture(t, root, "src/main.go", "x")

	tree, err := Scan(root, ScanOptions{MaxFiles: 2})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	entries := tree.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), entries)
	}
	// The entry point survives the cap despite sorting last by path,
	// and the kept set is returned path-ordered.
	if entries[0].Path != "aaa_helper.go" || entries[1].Path != "src/main.go" {
		t.Fatalf("unexpected entries after cap: %v", entries)
	}
}

func TestScanMaxFilesDropsTestsFirst(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a_test.go", "x")
	writeFixture(t, root, "z.go", "x")

	tree, err := Scan(root, ScanOptions{MaxFiles: 1})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	entries := tree.Entries()
	if len(entries) != 1 || entries[0].Path != "z.go" {
		t.Fatalf("expected z.go to outrank the test file, got %v", entries)
	}
}

func TestScanPriority(t *testing.T) {
	cases := []struct {
		path string
		want int
	}{
		{"main.go", 0},
		{"src/lib.rs", 0},
		{"cmd/auditor/main.go", 0},
		{"src/parser.go", 1},
		{"internal/store/store.go", 1},
		{"helpers.go", 2},
		{"docs/snippet.go", 2},
		{"parser_test.go", 3},
		{"src/test_auth.py", 3},
		{"web/app.spec.js", 3},
		{"api/service.pb.go", 3},
	}
	for _, tc := range cases {
		if got := scanPriority(tc.path); got != tc.want {
			t.Fatalf("scanPriority(%q) = %d, want %d", tc.path, got, tc.want)
		}
	}
}

func TestScanGlobExcludes(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app.js", "x")
	writeFixture(t, root, "app.min.js", "x")

	tree, err := Scan(root, ScanOptions{Excludes: []string{"*.min.js"}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(tree.Entries()) != 1 || tree.Entries()[0].Path != "app.js" {
		t.Fatalf("expected only app.js, got %v", tree.Entries())
	}
}

func TestEntriesUnder(t *testing.T) {
	tree := fixtureTree(t)

	under, err := tree.EntriesUnder("lib")
	if err != nil {
		t.Fatalf("entries under: %v", err)
	}
	if len(under) != 2 {
		t.Fatalf("expected 2 entries under lib, got %d", len(under))
	}

	all, err := tree.EntriesUnder("")
	if err != nil {
		t.Fatalf("entries under root: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries under root, got %d", len(all))
	}
}

func TestReadFileAndStat(t *testing.T) {
	tree := fixtureTree(t)

	content, err := tree.ReadFile("main.go")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content == "" {
		t.Fatal("expected non-empty content")
	}

	info, err := tree.Stat("lib/util.go")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.IsDir() {
		t.Fatal("expected a file")
	}

	lines, err := tree.LineCount("main.go")
	if err != nil {
		t.Fatalf("line count: %v", err)
	}
	if lines != 3 {
		t.Fatalf("expected 3 lines, got %d", lines)
	}
}

func TestSearch(t *testing.T) {
	tree := fixtureTree(t)

	matches, err := tree.Search("secret", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Path != "lib/util.go" || matches[0].Line != 3 {
		t.Fatalf("unexpected match: %+v", matches[0])
	}

	if _, err := tree.Search("", "", 10); err == nil {
		t.Fatal("expected error for empty pattern")
	}

	scoped, err := tree.Search("package", "lib", 10)
	if err != nil {
		t.Fatalf("scoped search: %v", err)
	}
	for _, m := range scoped {
		if m.Path == "main.go" {
			t.Fatalf("scoped search leaked outside lib: %+v", m)
		}
	}
}

func TestTraversalRejected(t *testing.T) {
	tree := fixtureTree(t)

	for _, path := range []string{"../outside.go", "lib/../../etc/passwd", "/etc/passwd", ""} {
		if _, err := tree.ReadFile(path); err == nil {
			t.Fatalf("expected traversal rejection for %q", path)
		}
		if _, err := tree.Stat(path); err == nil {
			t.Fatalf("expected stat rejection for %q", path)
		}
	}

	if _, err := tree.EntriesUnder("../sibling"); err == nil {
		t.Fatal("expected listing rejection outside root")
	}
}
