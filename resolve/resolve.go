// Package resolve computes the accessor expression a generated Lua module
// emits to reference another module. Three strategies exist: sibling
// relative (from the literal import specifier), third-party package (via
// the module cache), and host-namespace partition (via the sync-mapping
// configuration). All three render path components through the same
// accessor rule, so a name that is not a valid identifier is always a
// bracket-quoted index and never a dotted one.
package resolve

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/luaforge/tslc/diag"
	"github.com/luaforge/tslc/modcache"
	"github.com/luaforge/tslc/pathmap"
)

const (
	// containerRoot addresses the importing module's own container.
	containerRoot = "script.Parent"
	// parentSegment climbs one level for each ".." in a specifier.
	parentSegment = "Parent"
	// hostRoot addresses the root of the host scene tree.
	hostRoot = "game"
)

// Partition maps a source subdirectory to an accessor prefix in the host
// tree. Target may be empty, meaning the host root itself.
type Partition struct {
	Name      string
	Target    string
	SourceDir string
}

// Engine resolves cross-module references for one compilation session.
type Engine struct {
	Paths *pathmap.Transformer
	Deps  *modcache.Cache
	// Partitions are consulted in configuration order; the first whose
	// SourceDir is an ancestor wins.
	Partitions []Partition
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Relative resolves a literal relative import specifier into an accessor
// expression rooted at the importing module's container. "." segments
// vanish, ".." segments become Parent steps, and under the legacy
// convention a trailing root-module marker is dropped because a directory
// import already addresses its root module.
func (e *Engine) Relative(specifier string) (string, error) {
	segments := strings.Split(filepath.ToSlash(specifier), "/")

	var kept []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
		case "..":
			kept = append(kept, parentSegment)
		default:
			kept = append(kept, seg)
		}
	}

	if n := len(kept); n > 0 {
		last := pathmap.TrimExt(kept[n-1])
		if e.Paths.ShouldDropRootMarker(last) {
			kept = kept[:n-1]
		} else {
			kept[n-1] = last
		}
	}

	expr := containerRoot
	for _, seg := range kept {
		expr = appendSegment(expr, seg)
	}
	return expr, nil
}

// ByFileIdentity resolves a reference to the file at the given absolute
// path without trusting any specifier text. Files under the dependency
// root resolve through the package's declared entry; anything else must
// fall inside a configured partition.
func (e *Engine) ByFileIdentity(file string) (string, error) {
	if e.Deps != nil {
		if rel, ok := relUnder(e.Deps.Root, file); ok {
			return e.resolvePackage(rel)
		}
	}
	return e.resolvePartition(file)
}

// resolvePackage resolves a dependency-root-relative path. The first
// segment names the package; remaining segments are taken relative to the
// package's entry file.
func (e *Engine) resolvePackage(rel string) (string, error) {
	segments := strings.Split(filepath.ToSlash(rel), "/")
	pkg := segments[0]

	entry, err := e.Deps.ResolveMain(pkg)
	if err != nil {
		return "", err
	}

	file := filepath.Join(e.Deps.Root, filepath.FromSlash(rel))
	expr := fmt.Sprintf("RT.getModule(script, %q)", pkg)
	if file == entry {
		// The getModule expression already denotes the entry module.
		return expr, nil
	}

	sub, ok := relUnder(filepath.Dir(entry), file)
	if !ok {
		// The file sits outside the entry's directory (flat package
		// layouts); address it relative to the package root instead.
		sub = strings.Join(segments[1:], "/")
	}

	for _, seg := range e.trimSegments(sub) {
		expr = appendSegment(expr, seg)
	}
	return expr, nil
}

// resolvePartition resolves a file through the first partition whose root
// directory contains it.
func (e *Engine) resolvePartition(file string) (string, error) {
	for _, p := range e.Partitions {
		rel, ok := relUnder(p.SourceDir, file)
		if !ok {
			continue
		}
		expr := hostRoot
		if p.Target != "" {
			expr += "." + p.Target
		}
		for _, seg := range e.trimSegments(rel) {
			expr = appendSegment(expr, seg)
		}
		return expr, nil
	}
	return "", diag.ConfigErrorf("cannot resolve import of %s: file is outside every configured partition and the dependency root", file)
}

// trimSegments splits a slash-separated relative path into accessor
// segments, trimming the extension of the final segment and dropping a
// trailing root-module marker under the legacy convention.
func (e *Engine) trimSegments(rel string) []string {
	if rel == "" || rel == "." {
		return nil
	}
	segments := strings.Split(rel, "/")
	n := len(segments)
	last := pathmap.TrimExt(segments[n-1])
	if e.Paths.ShouldDropRootMarker(last) {
		return segments[:n-1]
	}
	segments[n-1] = last
	return segments
}

// relUnder returns path relative to root with slash separators, and
// whether path actually lies under root.
func relUnder(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// appendSegment renders one accessor segment onto expr: a dotted
// identifier when the segment is a valid bare name, otherwise a
// bracket-quoted string index with quote and backslash escaping.
func appendSegment(expr, seg string) string {
	if identRe.MatchString(seg) {
		return expr + "." + seg
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(seg)
	return expr + `["` + escaped + `"]`
}
