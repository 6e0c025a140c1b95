package modcache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luaforge/tslc/diag"
)

func writePackage(t *testing.T, root, pkg, descriptor string) {
	t.Helper()
	dir := filepath.Join(root, pkg)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(descriptor), 0644))
}

func TestResolveMain(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "promise", `{"main": "lib/init.lua"}`)

	c := New(root)
	entry, err := c.ResolveMain("promise")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "promise", "lib", "init.lua"), entry)
}

func TestResolveMainMemoized(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "signal", `{"main": "init.lua"}`)

	c := New(root)
	first, err := c.ResolveMain("signal")
	require.NoError(t, err)

	// Rewriting the descriptor must not change the cached answer.
	writePackage(t, root, "signal", `{"main": "other.lua"}`)
	second, err := c.ResolveMain("signal")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveMainMissingDescriptor(t *testing.T) {
	c := New(t.TempDir())
	_, err := c.ResolveMain("ghost")
	require.Error(t, err)
	var ce *diag.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestResolveMainNoMainField(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "empty", `{"name": "empty"}`)

	c := New(root)
	_, err := c.ResolveMain("empty")
	require.Error(t, err)
	var ce *diag.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Msg, "no main entry")
}

func TestResolveMainMalformedDescriptor(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "broken", `{not json`)

	c := New(root)
	_, err := c.ResolveMain("broken")
	var ce *diag.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestResolveMainConcurrent(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "shared", `{"main": "init.lua"}`)

	c := New(root)
	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := c.ResolveMain("shared")
			assert.NoError(t, err)
			results[i] = entry
		}()
	}
	wg.Wait()

	want := filepath.Join(root, "shared", "init.lua")
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
