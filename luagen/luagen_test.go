package luagen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/modcache"
	"github.com/luaforge/tslc/pathmap"
	"github.com/luaforge/tslc/resolve"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	depRoot := t.TempDir()
	pkgDir := filepath.Join(depRoot, "promise")
	require.NoError(t, os.MkdirAll(pkgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "package.json"), []byte(`{"main": "init.lua"}`), 0644))

	engine := &resolve.Engine{
		Paths: &pathmap.Transformer{
			SourceRoot: "/proj/src",
			OutputRoot: "/proj/out",
			Convention: pathmap.Legacy,
		},
		Deps: modcache.New(depRoot),
		Partitions: []resolve.Partition{
			{Name: "server", Target: "ServerScripts", SourceDir: "/proj/src/server"},
		},
	}
	return &Generator{Engine: engine, DependencyRoot: depRoot}
}

func TestGenerateRelativeImport(t *testing.T) {
	g := newGenerator(t)
	file := &graph.SourceFile{
		Path: "/proj/src/foo/index.ts",
		Imports: []graph.Import{
			{Specifier: "./bar", Line: 1},
		},
	}

	out, err := g.Generate(file)
	require.NoError(t, err)
	assert.Contains(t, out, "local bar = require(script.Parent.bar)")
	assert.Contains(t, out, "return exports")
	assert.NotContains(t, out, "local RT")
}

func TestGeneratePackageImport(t *testing.T) {
	g := newGenerator(t)
	file := &graph.SourceFile{
		Path: "/proj/src/main.ts",
		Imports: []graph.Import{
			{Specifier: "promise", Line: 2},
		},
	}

	out, err := g.Generate(file)
	require.NoError(t, err)
	assert.Contains(t, out, "local RT = _G.RT")
	assert.Contains(t, out, `local promise = require(RT.getModule(script, "promise"))`)
}

func TestGenerateIdentityImport(t *testing.T) {
	g := newGenerator(t)
	file := &graph.SourceFile{
		Path: "/proj/src/client/App.ts",
		Imports: []graph.Import{
			{Specifier: "server/Main", Line: 1, Resolved: "/proj/src/server/Main.ts"},
		},
	}

	out, err := g.Generate(file)
	require.NoError(t, err)
	assert.Contains(t, out, "local Main = require(game.ServerScripts.Main)")
}

func TestGenerateUnresolvable(t *testing.T) {
	g := newGenerator(t)
	file := &graph.SourceFile{
		Path: "/proj/src/orphan.ts",
		Imports: []graph.Import{
			{Specifier: "shared/Util", Line: 3, Resolved: "/proj/src/shared/Util.ts"},
		},
	}

	_, err := g.Generate(file)
	assert.Error(t, err)
}

func TestGenerateDuplicateNames(t *testing.T) {
	g := newGenerator(t)
	file := &graph.SourceFile{
		Path: "/proj/src/a.ts",
		Imports: []graph.Import{
			{Specifier: "./x/util", Line: 1},
			{Specifier: "./y/util", Line: 2},
		},
	}

	out, err := g.Generate(file)
	require.NoError(t, err)
	assert.Contains(t, out, "local util = require(script.Parent.x.util)")
	assert.Contains(t, out, "local util_1 = require(script.Parent.y.util)")
}

func TestLocalNameSanitizing(t *testing.T) {
	assert.Equal(t, "foo", localName("./foo"))
	assert.Equal(t, "foo_bar", localName("./foo-bar"))
	assert.Equal(t, "_2d", localName("./2d"))
	assert.Equal(t, "util", localName("../deep/util.ts"))
	assert.Equal(t, "module", localName("."))
}
