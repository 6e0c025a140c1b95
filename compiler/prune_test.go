package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/pathmap"
)

type pruneFixture struct {
	src, out string
	paths    *pathmap.Transformer
	graph    *graph.Graph
}

func newPruneFixture(t *testing.T, conv pathmap.Convention) *pruneFixture {
	t.Helper()
	dir := t.TempDir()
	f := &pruneFixture{
		src: filepath.Join(dir, "src"),
		out: filepath.Join(dir, "out"),
	}
	f.paths = &pathmap.Transformer{SourceRoot: f.src, OutputRoot: f.out, Convention: conv}
	f.graph = graph.New(func(path string, src []byte) ([]graph.Import, bool, error) {
		return nil, false, nil
	})
	return f
}

func (f *pruneFixture) addSource(t *testing.T, rel string) {
	t.Helper()
	path := filepath.Join(f.src, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
	require.NoError(t, f.graph.Add(path))
}

func (f *pruneFixture) addArtifact(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(f.out, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("return {}\n"), 0644))
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPruneRemovesOrphans(t *testing.T) {
	f := newPruneFixture(t, pathmap.Standard)
	f.addSource(t, "a.ts")
	f.addSource(t, "b.tsx")

	live := f.addArtifact(t, "a.lua")
	liveAlt := f.addArtifact(t, "b.lua")
	orphan := f.addArtifact(t, "gone.lua")
	nested := f.addArtifact(t, "sub/deep/x.lua")
	foreign := f.addArtifact(t, "notes.txt")

	p := &Pruner{Paths: f.paths, Graph: f.graph}
	require.NoError(t, p.Prune(f.out))

	assert.True(t, exists(live))
	assert.True(t, exists(liveAlt), "artifact backed by the alternate dialect stays")
	assert.False(t, exists(orphan))
	assert.False(t, exists(nested))
	assert.False(t, exists(filepath.Dir(nested)), "emptied directories are removed")
	assert.True(t, exists(foreign), "non-artifact files are untouched")
}

func TestPruneIdempotent(t *testing.T) {
	f := newPruneFixture(t, pathmap.Standard)
	f.addSource(t, "a.ts")
	live := f.addArtifact(t, "a.lua")
	f.addArtifact(t, "gone.lua")

	p := &Pruner{Paths: f.paths, Graph: f.graph}
	require.NoError(t, p.Prune(f.out))
	require.NoError(t, p.Prune(f.out))

	assert.True(t, exists(live))
}

func TestPruneLegacyMarker(t *testing.T) {
	f := newPruneFixture(t, pathmap.Legacy)
	f.addSource(t, "mod/index.ts")

	live := f.addArtifact(t, "mod/init.lua")
	// index.ts emits init.lua, so an index.lua left over from a standard
	// build is an orphan even though index.ts is tracked.
	orphan := f.addArtifact(t, "mod/index.lua")

	p := &Pruner{Paths: f.paths, Graph: f.graph}
	require.NoError(t, p.Prune(f.out))

	assert.True(t, exists(live))
	assert.False(t, exists(orphan), "tracked index.ts must not keep a stale index.lua alive")
}

func TestPruneLegacyInitSource(t *testing.T) {
	f := newPruneFixture(t, pathmap.Legacy)
	f.addSource(t, "mod/init.ts")

	live := f.addArtifact(t, "mod/init.lua")

	p := &Pruner{Paths: f.paths, Graph: f.graph}
	require.NoError(t, p.Prune(f.out))

	assert.True(t, exists(live), "init.ts produces init.lua without renaming")
}

func TestPruneKeepsRuntimeTree(t *testing.T) {
	f := newPruneFixture(t, pathmap.Standard)
	kept := f.addArtifact(t, "rt/runtime.lua")

	p := &Pruner{Paths: f.paths, Graph: f.graph, Keep: []string{filepath.Join(f.out, "rt")}}
	require.NoError(t, p.Prune(f.out))

	assert.True(t, exists(kept))
}

func TestPruneMissingOutputRoot(t *testing.T) {
	f := newPruneFixture(t, pathmap.Standard)
	p := &Pruner{Paths: f.paths, Graph: f.graph}
	assert.NoError(t, p.Prune(filepath.Join(f.out, "never-created")))
}
