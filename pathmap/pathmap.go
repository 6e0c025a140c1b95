// Package pathmap maps paths under the source root to paths under the
// output root and back. It is the single owner of the module-root marker
// rule: under the legacy convention a directory's root module is named
// index.ts on the source side and init.lua on the output side, and every
// component that needs to know about the marker asks this package instead
// of re-implementing the rename.
package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// SourceExt is the primary source file extension.
	SourceExt = ".ts"
	// AltSourceExt is the alternate source dialect extension.
	AltSourceExt = ".tsx"
	// DeclExt marks declaration-only files, which never produce output.
	DeclExt = ".d.ts"
	// OutputExt is the generated artifact extension.
	OutputExt = ".lua"

	// sourceMarker names a directory's root module on the source side.
	sourceMarker = "index"
	// outputMarker names a directory's root module on the output side
	// under the legacy convention.
	outputMarker = "init"
)

// Convention selects the module-root naming rule.
type Convention int

const (
	// Standard keeps module basenames unchanged in both directions.
	Standard Convention = iota
	// Legacy renames index to init on output and init back to index
	// on input.
	Legacy
)

// ParseConvention parses a configuration string into a Convention.
func ParseConvention(s string) (Convention, error) {
	switch s {
	case "", "standard":
		return Standard, nil
	case "legacy":
		return Legacy, nil
	}
	return Standard, fmt.Errorf("unknown module convention %q (want standard or legacy)", s)
}

// String returns the configuration spelling of the convention.
func (c Convention) String() string {
	if c == Legacy {
		return "legacy"
	}
	return "standard"
}

// Transformer converts file paths between the source tree and the output
// tree for one compilation session.
type Transformer struct {
	SourceRoot string
	OutputRoot string
	Convention Convention
}

// ToOutputPath maps a path under SourceRoot to its artifact path under
// OutputRoot. The source extension is replaced with the output extension
// and, under the legacy convention, an index basename becomes init.
func (t *Transformer) ToOutputPath(file string) (string, error) {
	rel, err := filepath.Rel(t.SourceRoot, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is not under source root %s", file, t.SourceRoot)
	}
	base := TrimExt(filepath.Base(rel))
	if t.Convention == Legacy && base == sourceMarker {
		base = outputMarker
	}
	return filepath.Join(t.OutputRoot, filepath.Dir(rel), base+OutputExt), nil
}

// ToSourcePath maps an artifact path under OutputRoot back to the source
// path that produced it, assuming the primary source extension. Callers
// that also accept the alternate dialect swap the extension with
// AltSourceCandidate.
func (t *Transformer) ToSourcePath(file string) (string, error) {
	rel, err := filepath.Rel(t.OutputRoot, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is not under output root %s", file, t.OutputRoot)
	}
	base := TrimExt(filepath.Base(rel))
	if t.Convention == Legacy && base == outputMarker {
		base = sourceMarker
	}
	return filepath.Join(t.SourceRoot, filepath.Dir(rel), base+SourceExt), nil
}

// ShouldDropRootMarker reports whether a trailing accessor segment with
// the given basename (extension already trimmed) addresses its directory's
// root module and must therefore be dropped from generated references.
// Dropping only happens under the legacy convention, where a directory
// import already resolves to its root module without naming it.
func (t *Transformer) ShouldDropRootMarker(base string) bool {
	return t.Convention == Legacy && (base == sourceMarker || base == outputMarker)
}

// TrimExt removes a known source or output extension from a file name.
// Unknown extensions are left alone so segment names like "foo.spec"
// survive intact.
func TrimExt(name string) string {
	for _, ext := range []string{DeclExt, AltSourceExt, SourceExt, OutputExt} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// AltSourceCandidate swaps the primary source extension for the alternate
// dialect extension. Returns "" if the path does not end in SourceExt.
func AltSourceCandidate(path string) string {
	if !strings.HasSuffix(path, SourceExt) || strings.HasSuffix(path, DeclExt) {
		return ""
	}
	return strings.TrimSuffix(path, SourceExt) + AltSourceExt
}

// IsSourceFile reports whether the file name has a compilable or
// declaration source extension.
func IsSourceFile(name string) bool {
	return strings.HasSuffix(name, SourceExt) || strings.HasSuffix(name, AltSourceExt)
}

// IsDeclarationFile reports whether the file name is declaration-only.
func IsDeclarationFile(name string) bool {
	return strings.HasSuffix(name, DeclExt)
}
