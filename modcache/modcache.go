// Package modcache resolves a third-party package name to its declared
// entry file. Each package under the dependency root carries a
// package.json descriptor whose main field names the entry file relative
// to the package directory. Resolution happens at most once per package
// name per session; packages are assumed immutable during a run, so there
// is no invalidation.
package modcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/luaforge/tslc/diag"
)

// descriptorName is the per-package metadata file.
const descriptorName = "package.json"

type descriptor struct {
	Main string `json:"main"`
}

// Cache memoizes package entry lookups for one compilation session.
// Construct isolated instances in tests instead of sharing global state.
type Cache struct {
	// Root is the absolute dependency root directory.
	Root string

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]string
}

// New creates a Cache over the given dependency root.
func New(root string) *Cache {
	return &Cache{Root: root, entries: make(map[string]string)}
}

// ResolveMain returns the absolute path of the package's entry file.
// The first call per package name reads the descriptor; concurrent calls
// on the same uncached name are collapsed into a single read.
func (c *Cache) ResolveMain(pkg string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[pkg]
	c.mu.RUnlock()
	if ok {
		return entry, nil
	}

	v, err, _ := c.group.Do(pkg, func() (any, error) {
		entry, err := c.readDescriptor(pkg)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.entries[pkg] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cache) readDescriptor(pkg string) (string, error) {
	path := filepath.Join(c.Root, pkg, descriptorName)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", diag.ConfigErrorf("package %s: reading %s: %v", pkg, descriptorName, err)
	}

	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return "", diag.ConfigErrorf("package %s: parsing %s: %v", pkg, descriptorName, err)
	}
	if d.Main == "" {
		return "", diag.ConfigErrorf("package %s: %s declares no main entry", pkg, descriptorName)
	}

	return filepath.Join(c.Root, pkg, filepath.FromSlash(d.Main)), nil
}
