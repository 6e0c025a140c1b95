// Package luagen is the built-in per-file code generator. It lowers a
// source module into a Lua module skeleton whose imports are rewritten
// into host-tree accessor expressions. The orchestrator accepts any
// generator implementation; this one keeps the pipeline self-contained.
package luagen

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/pathmap"
	"github.com/luaforge/tslc/resolve"
)

// Generator lowers one source file at a time. Safe for reuse across
// files within a pass.
type Generator struct {
	Engine *resolve.Engine
	// DependencyRoot locates packages for bare specifiers that resolved
	// to no file on disk.
	DependencyRoot string
}

// Generate produces the Lua text for one non-declaration source file.
func (g *Generator) Generate(file *graph.SourceFile) (string, error) {
	type binding struct {
		name string
		expr string
	}
	var (
		bindings []binding
		needsRT  bool
	)
	seen := make(map[string]int)

	for _, imp := range file.Imports {
		expr, err := g.resolveImport(imp)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(expr, "RT.") {
			needsRT = true
		}
		name := localName(imp.Specifier)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name += "_" + strconv.Itoa(n)
		} else {
			seen[name] = 1
		}
		bindings = append(bindings, binding{name: name, expr: expr})
	}

	w := &luaWriter{}
	w.Linef("-- Generated by tslc from %s. Do not edit.", filepath.Base(file.Path))
	if needsRT {
		w.Linef("local RT = _G.RT")
	}
	for _, b := range bindings {
		w.Linef("local %s = require(%s)", b.name, b.expr)
	}
	w.Blank()
	w.Linef("local exports = {}")
	w.Blank()
	w.Linef("return exports")
	return w.String(), nil
}

// resolveImport picks the resolution strategy for one import edge:
// relative specifiers resolve from their literal text, anything with a
// known file identity resolves by identity, and bare package specifiers
// resolve through the dependency root.
func (g *Generator) resolveImport(imp graph.Import) (string, error) {
	if strings.HasPrefix(imp.Specifier, ".") {
		return g.Engine.Relative(imp.Specifier)
	}
	if imp.Resolved != "" {
		return g.Engine.ByFileIdentity(imp.Resolved)
	}
	return g.Engine.ByFileIdentity(filepath.Join(g.DependencyRoot, filepath.FromSlash(imp.Specifier)))
}

// localName derives a Lua local variable name from an import specifier.
func localName(spec string) string {
	base := pathmap.TrimExt(filepath.Base(filepath.FromSlash(spec)))
	var sb strings.Builder
	for i := 0; i < len(base); i++ {
		ch := base[i]
		switch {
		case ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
			sb.WriteByte(ch)
		case ch >= '0' && ch <= '9':
			if sb.Len() == 0 {
				sb.WriteByte('_')
			}
			sb.WriteByte(ch)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if name == "" || name == "_" {
		name = "module"
	}
	return name
}
