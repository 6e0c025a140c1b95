// Package runtime carries the versioned Lua support library that
// generated code depends on, embedded into the compiler binary and
// copied verbatim beneath the output root on each pass.
package runtime

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed lib
var lib embed.FS

// CopyTo writes the support library tree into dest, creating directories
// as needed. Existing files are overwritten so the copy always matches
// the compiler's version.
func CopyTo(dest string) error {
	return fs.WalkDir(lib, "lib", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("lib", filepath.FromSlash(path))
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := lib.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("copying runtime file %s: %w", rel, err)
		}
		return nil
	})
}
