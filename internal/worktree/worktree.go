package worktree

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry describes a single file surfaced to the agent.
type Entry struct {
	Path      string
	Size      int64
	Extension string
}

// Tree is the read-only materialized source tree under analysis.
// Immutable for the duration of a run.
type Tree struct {
	guard   *PathGuard
	entries []Entry
}

// ScanOptions bound the file scan.
type ScanOptions struct {
	MaxFiles   int
	Extensions []string // allowlist without leading dot; empty allows everything
	Excludes   []string // directory names or glob patterns matched against base names
}

// Scan walks root and builds a Tree honoring the scan options.
// When MaxFiles cuts the set, entries are selected by priority (main
// source files first, tests and generated code last) with path as the
// tiebreak; the kept entries are then path-sorted so listings stay
// reproducible.
func Scan(root string, opts ScanOptions) (*Tree, error) {
	guard, err := NewPathGuard(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(guard.Root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	allowed := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	var entries []Entry
	err = filepath.WalkDir(guard.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != guard.Root && excluded(d.Name(), opts.Excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(d.Name(), opts.Excludes) {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if len(allowed) > 0 {
			if _, ok := allowed[ext]; !ok {
				return nil
			}
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(guard.Root, path)
		entries = append(entries, Entry{Path: filepath.ToSlash(rel), Size: fi.Size(), Extension: ext})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		pi, pj := scanPriority(entries[i].Path), scanPriority(entries[j].Path)
		if pi != pj {
			return pi < pj
		}
		return entries[i].Path < entries[j].Path
	})
	if opts.MaxFiles > 0 && len(entries) > opts.MaxFiles {
		entries = entries[:opts.MaxFiles]
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return &Tree{guard: guard, entries: entries}, nil
}

var entrypointNames = map[string]struct{}{
	"main": {}, "lib": {}, "mod": {}, "index": {}, "app": {}, "server": {}, "cli": {},
}

var sourceDirs = map[string]struct{}{
	"src": {}, "cmd": {}, "lib": {}, "internal": {}, "pkg": {}, "app": {},
}

// scanPriority ranks a relative path for selection under the MaxFiles
// cap. Lower ranks are kept first: entry points, then files under
// conventional source directories, then everything else, with tests
// and generated files last.
func scanPriority(path string) int {
	base := strings.ToLower(filepath.Base(path))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if strings.HasSuffix(stem, "_test") || strings.HasPrefix(stem, "test_") ||
		strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.HasSuffix(stem, ".pb") || strings.HasSuffix(stem, "_gen") ||
		strings.HasSuffix(stem, ".generated") {
		return 3
	}
	if _, ok := entrypointNames[stem]; ok {
		return 0
	}
	if top, _, found := strings.Cut(filepath.ToSlash(path), "/"); found {
		if _, ok := sourceDirs[strings.ToLower(top)]; ok {
			return 1
		}
	}
	return 2
}

func excluded(name string, patterns []string) bool {
	for _, pat := range patterns {
		if name == pat {
			return true
		}
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// Root returns the absolute root directory.
func (t *Tree) Root() string {
	return t.guard.Root
}

// Entries returns the scanned file entries in path order.
func (t *Tree) Entries() []Entry {
	return t.entries
}

// EntriesUnder returns scanned entries inside dir ("" or "." for the root).
func (t *Tree) EntriesUnder(dir string) ([]Entry, error) {
	if dir == "" {
		dir = "."
	}
	if _, err := t.guard.Resolve(dir); err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(filepath.Clean(dir))
	if prefix == "." {
		return t.entries, nil
	}

	var out []Entry
	for _, e := range t.entries {
		if strings.HasPrefix(e.Path, prefix+"/") {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReadFile returns the contents of a file inside the tree.
func (t *Tree) ReadFile(path string) (string, error) {
	resolved, err := t.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stat returns file info for a path inside the tree.
func (t *Tree) Stat(path string) (fs.FileInfo, error) {
	resolved, err := t.guard.Resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Stat(resolved)
}

// LineCount counts newline-delimited lines of a file inside the tree.
func (t *Tree) LineCount(path string) (int, error) {
	resolved, err := t.guard.Resolve(path)
	if err != nil {
		return 0, err
	}
	file, err := os.Open(resolved)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

// SearchMatch is a single pattern hit.
type SearchMatch struct {
	Path    string
	Line    int
	Snippet string
}

// Search scans files under scope (default root) for literal pattern occurrences.
// Only files surfaced by the scan are searched; results are capped at maxResults.
func (t *Tree) Search(pattern, scope string, maxResults int) ([]SearchMatch, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	entries, err := t.EntriesUnder(scope)
	if err != nil {
		return nil, err
	}

	results := make([]SearchMatch, 0, maxResults)
	for _, e := range entries {
		if len(results) >= maxResults {
			break
		}
		resolved, err := t.guard.Resolve(e.Path)
		if err != nil {
			continue
		}
		file, err := os.Open(resolved)
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		lineNum := 1
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), pattern) {
				results = append(results, SearchMatch{Path: e.Path, Line: lineNum, Snippet: scanner.Text()})
				if len(results) >= maxResults {
					break
				}
			}
			lineNum++
		}
		file.Close()
	}
	return results, nil
}
