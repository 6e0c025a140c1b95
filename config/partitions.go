package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luaforge/tslc/diag"
	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/resolve"
)

// partitionFiles are the sync-mapping candidates, checked in order; the
// first one present wins.
var partitionFiles = []string{"scene.project.json", "default.project.json"}

type partitionEntry struct {
	Target string `json:"target"`
	Path   string `json:"path"`
}

// LoadPartitions reads the sync-mapping configuration, if any, and turns
// it into partitions in file order. Entries whose path falls outside the
// output root are ignored; an entry that maps back to a source directory
// the graph knows nothing about is a configuration error. When two
// partitions both claim a file, resolution later uses the first one here,
// so preserving the file's key order matters.
func LoadPartitions(p *Project, g *graph.Graph) ([]resolve.Partition, error) {
	var path string
	for _, name := range partitionFiles {
		candidate := filepath.Join(p.Dir, name)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, diag.ConfigErrorf("reading %s: %v", path, err)
	}
	defer f.Close()

	partitions, err := decodePartitions(json.NewDecoder(f))
	if err != nil {
		return nil, diag.ConfigErrorf("parsing %s: %v", path, err)
	}

	var out []resolve.Partition
	for _, part := range partitions {
		abs := absolutize(p.Dir, part.entry.Path)
		rel, err := filepath.Rel(p.OutputRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			// Mappings outside the output tree are not ours to serve.
			continue
		}
		srcDir := filepath.Join(p.SourceRoot, rel)
		if srcDir != p.SourceRoot && !g.HasDir(srcDir) {
			return nil, diag.ConfigErrorf("%s: partition %q maps to %s, which holds no tracked sources", path, part.name, srcDir)
		}
		out = append(out, resolve.Partition{
			Name:      part.name,
			Target:    part.entry.Target,
			SourceDir: srcDir,
		})
	}
	return out, nil
}

type namedPartition struct {
	name  string
	entry partitionEntry
}

// decodePartitions walks the JSON token stream so the partitions object's
// key order survives; encoding/json map decoding would lose it, and the
// overlap tie-break is defined by configuration order.
func decodePartitions(dec *json.Decoder) ([]namedPartition, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var out []namedPartition
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "partitions" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}

		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, _ := nameTok.(string)
			var entry partitionEntry
			if err := dec.Decode(&entry); err != nil {
				return nil, err
			}
			if entry.Path == "" {
				return nil, fmt.Errorf("partition %q: path is required", name)
			}
			out = append(out, namedPartition{name: name, entry: entry})
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, err
		}
	}
	return out, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
