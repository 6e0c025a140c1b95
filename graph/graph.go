// Package graph tracks the set of source files in a compilation session
// and the reference edges between them. The reverse edges ("who imports
// me") drive incremental recompilation: the closure reachable backward
// from a changed file is exactly the set whose generated output could
// change.
package graph

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/blake3"

	"github.com/luaforge/tslc/pathmap"
)

// Import is one reference edge parsed from a source file.
type Import struct {
	// Specifier is the literal import text, e.g. "../foo/bar".
	Specifier string
	// Line is the 1-based line the import appears on.
	Line int
	// Resolved is the absolute path of the target file, or "" when the
	// specifier does not resolve to a file on disk (ambient modules).
	Resolved string
}

// SourceFile is one tracked file. It is owned by the Graph from Add until
// Remove; callers must not mutate it.
type SourceFile struct {
	Path        string
	Declaration bool
	Imports     []Import

	hash [32]byte
}

// ParseFunc extracts import edges from source text. It must be safe for
// concurrent use; RefreshAll parses independent files in parallel.
type ParseFunc func(path string, src []byte) (imports []Import, declaration bool, err error)

// Graph is the tracked source file set.
type Graph struct {
	parse ParseFunc

	mu    sync.RWMutex
	files map[string]*SourceFile
	// rdeps maps a target path to the set of files importing it.
	rdeps map[string]map[string]struct{}
}

// New creates an empty Graph using parse for reference extraction.
func New(parse ParseFunc) *Graph {
	return &Graph{
		parse: parse,
		files: make(map[string]*SourceFile),
		rdeps: make(map[string]map[string]struct{}),
	}
}

// Add reads, parses, and tracks the file at path, replacing any previous
// entry. Re-adding a file whose content is unchanged is a no-op.
func (g *Graph) Add(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := blake3.Sum256(src)

	g.mu.RLock()
	prev := g.files[path]
	g.mu.RUnlock()
	if prev != nil && prev.hash == sum {
		return nil
	}

	imports, decl, err := g.parse(path, src)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.install(&SourceFile{Path: path, Declaration: decl, Imports: imports, hash: sum})
	return nil
}

// Remove stops tracking the file at path. Removing an untracked path is
// a no-op.
func (g *Graph) Remove(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	file, ok := g.files[path]
	if !ok {
		return
	}
	g.dropEdges(file)
	delete(g.files, path)
}

// install replaces the entry for file.Path and rewires its forward edges.
// Caller holds the write lock.
func (g *Graph) install(file *SourceFile) {
	if prev, ok := g.files[file.Path]; ok {
		g.dropEdges(prev)
	}
	g.files[file.Path] = file
	for _, imp := range file.Imports {
		if imp.Resolved == "" {
			continue
		}
		set, ok := g.rdeps[imp.Resolved]
		if !ok {
			set = make(map[string]struct{})
			g.rdeps[imp.Resolved] = set
		}
		set[file.Path] = struct{}{}
	}
}

// dropEdges removes file's forward edges from the reverse index.
// Caller holds the write lock.
func (g *Graph) dropEdges(file *SourceFile) {
	for _, imp := range file.Imports {
		if imp.Resolved == "" {
			continue
		}
		if set, ok := g.rdeps[imp.Resolved]; ok {
			delete(set, file.Path)
			if len(set) == 0 {
				delete(g.rdeps, imp.Resolved)
			}
		}
	}
}

// Has reports whether path is tracked.
func (g *Graph) Has(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.files[path]
	return ok
}

// HasDir reports whether any tracked file lives under dir.
func (g *Graph) HasDir(dir string) bool {
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	g.mu.RLock()
	defer g.mu.RUnlock()
	for path := range g.files {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Lookup returns the tracked file at path, or nil.
func (g *Graph) Lookup(path string) *SourceFile {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.files[path]
}

// Files returns all tracked files ordered by path.
func (g *Graph) Files() []*SourceFile {
	g.mu.RLock()
	files := make([]*SourceFile, 0, len(g.files))
	for _, f := range g.files {
		files = append(files, f)
	}
	g.mu.RUnlock()
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// RefreshAll re-reads every tracked file. Reads and parses run in
// parallel (they touch no shared state); results are applied once all
// have finished. Files that vanished from disk are dropped; unchanged
// files are not re-parsed.
func (g *Graph) RefreshAll(ctx context.Context) error {
	g.mu.RLock()
	snapshot := make([]*SourceFile, 0, len(g.files))
	for _, f := range g.files {
		snapshot = append(snapshot, f)
	}
	g.mu.RUnlock()

	type result struct {
		file    *SourceFile // nil when unchanged
		removed string
	}
	results := make([]result, len(snapshot))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, prev := range snapshot {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(prev.Path)
			if os.IsNotExist(err) {
				results[i].removed = prev.Path
				return nil
			}
			if err != nil {
				return err
			}
			sum := blake3.Sum256(src)
			if sum == prev.hash {
				return nil
			}
			imports, decl, err := g.parse(prev.Path, src)
			if err != nil {
				return err
			}
			results[i].file = &SourceFile{Path: prev.Path, Declaration: decl, Imports: imports, hash: sum}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range results {
		if r.removed != "" {
			if file, ok := g.files[r.removed]; ok {
				g.dropEdges(file)
				delete(g.files, r.removed)
			}
			continue
		}
		if r.file != nil {
			g.install(r.file)
		}
	}
	return nil
}

// ClosureFrom returns every tracked file whose output could change when
// the file at path changes: the file itself plus everything reachable
// over reverse-reference edges. The visited set guards against cycles,
// so each file appears exactly once. Results are ordered by path.
func (g *Graph) ClosureFrom(path string) []*SourceFile {
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.files[path]
	if !ok {
		return nil
	}

	visited := map[string]struct{}{path: {}}
	closure := []*SourceFile{start}
	stack := []string{path}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for importer := range g.rdeps[current] {
			if _, seen := visited[importer]; seen {
				continue
			}
			visited[importer] = struct{}{}
			if file, tracked := g.files[importer]; tracked {
				closure = append(closure, file)
				stack = append(stack, importer)
			}
		}
	}

	sort.Slice(closure, func(i, j int) bool { return closure[i].Path < closure[j].Path })
	return closure
}

// AddTree walks root and adds every source file that passes the
// include/exclude glob filters. Patterns match slash-separated paths
// relative to root; an empty include list admits everything.
func (g *Graph) AddTree(root string, include, exclude []string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !pathmap.IsSourceFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(include, rel, true) || matchAny(exclude, rel, false) {
			return nil
		}
		return g.Add(path)
	})
}

// matchAny reports whether rel matches any of the patterns. empty is the
// result for an empty pattern list.
func matchAny(patterns []string, rel string, empty bool) bool {
	if len(patterns) == 0 {
		return empty
	}
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
