package compiler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/pathmap"
)

// Pruner deletes generated artifacts whose source no longer exists. It
// runs to completion before any new artifact is written, so renamed or
// removed sources never leave orphaned output behind.
type Pruner struct {
	Paths *pathmap.Transformer
	Graph *graph.Graph
	// Keep lists directories whose subtrees are never pruned, such as
	// the runtime support library, which has no source counterpart.
	Keep []string
}

// Prune walks outputRoot depth-first, removing orphaned artifacts and
// any directories left empty by the removals. A missing output root is
// fine; there is nothing to prune.
func (p *Pruner) Prune(outputRoot string) error {
	if _, err := os.Stat(outputRoot); os.IsNotExist(err) {
		return nil
	}
	_, err := p.pruneDir(outputRoot)
	return err
}

// pruneDir prunes dir's subtree and reports whether dir ended up empty.
func (p *Pruner) pruneDir(dir string) (bool, error) {
	if p.kept(dir) {
		return false, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	empty := true
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subEmpty, err := p.pruneDir(path)
			if err != nil {
				return false, err
			}
			if !subEmpty {
				empty = false
				continue
			}
			if err := os.Remove(path); err != nil {
				return false, err
			}
			continue
		}

		if !strings.HasSuffix(entry.Name(), pathmap.OutputExt) {
			// Foreign files are not ours to delete.
			empty = false
			continue
		}
		if p.hasSource(path) {
			empty = false
			continue
		}
		if err := os.Remove(path); err != nil {
			return false, err
		}
	}
	return empty, nil
}

// hasSource reports whether a tracked source could have produced the
// artifact: the primary-extension candidate or its alternate dialect
// variant, each checked against its own output path. The production
// check matters under the legacy convention, where index.ts emits
// init.lua, so a tracked index.ts must not keep a stale index.lua
// alive.
func (p *Pruner) hasSource(artifact string) bool {
	src, err := p.Paths.ToSourcePath(artifact)
	if err != nil {
		return true // outside the mapped tree; leave it alone
	}
	candidates := []string{src, pathmap.AltSourceCandidate(src)}

	// A source sharing the artifact's basename also produces it when no
	// rename applies (a file literally named init.ts under legacy).
	raw := filepath.Join(filepath.Dir(src), pathmap.TrimExt(filepath.Base(artifact))+pathmap.SourceExt)
	if raw != src {
		candidates = append(candidates, raw, pathmap.AltSourceCandidate(raw))
	}

	for _, candidate := range candidates {
		if candidate == "" || !p.Graph.Has(candidate) {
			continue
		}
		if out, err := p.Paths.ToOutputPath(candidate); err == nil && out == artifact {
			return true
		}
	}
	return false
}

func (p *Pruner) kept(dir string) bool {
	for _, keep := range p.Keep {
		if keep != "" && dir == keep {
			return true
		}
	}
	return false
}
