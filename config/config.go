// Package config loads the project configuration and the optional
// sync-mapping partitions for a compilation session.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/luaforge/tslc/diag"
	"github.com/luaforge/tslc/pathmap"
)

// FileName is the project configuration file looked up in the project
// directory.
const FileName = "tslc.yml"

// defaultDependencyDir holds third-party packages when the configuration
// does not name another location.
const defaultDependencyDir = "lua_modules"

// defaultRuntimeDir receives the runtime support library under the
// output root.
const defaultRuntimeDir = "rt"

// rawProject mirrors the YAML shape of tslc.yml.
type rawProject struct {
	SourceRoot           string   `yaml:"sourceRoot"`
	OutputRoot           string   `yaml:"outputRoot"`
	ModuleConvention     string   `yaml:"moduleConvention"`
	EmitDeclarationsOnly bool     `yaml:"emitDeclarationsOnly"`
	DependencyRoot       string   `yaml:"dependencyRoot"`
	RuntimePath          string   `yaml:"runtimePath"`
	SkipRuntime          bool     `yaml:"skipRuntime"`
	Include              []string `yaml:"include"`
	Exclude              []string `yaml:"exclude"`
}

// Project is the validated configuration with all paths absolute.
type Project struct {
	// Dir is the project directory holding tslc.yml.
	Dir                  string
	SourceRoot           string
	OutputRoot           string
	Convention           pathmap.Convention
	EmitDeclarationsOnly bool
	// DependencyRoot is the directory holding third-party packages.
	DependencyRoot string
	// RuntimePath is where the runtime support tree is copied.
	RuntimePath string
	SkipRuntime bool
	// Include and Exclude filter source discovery (doublestar globs
	// relative to SourceRoot).
	Include []string
	Exclude []string
}

// Load reads and validates tslc.yml in dir. Missing sourceRoot or
// outputRoot is a configuration error; compilation never starts without
// them.
func Load(dir string) (*Project, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}

	path := filepath.Join(absDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.ConfigErrorf("reading %s: %v", path, err)
	}

	var raw rawProject
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, diag.ConfigErrorf("parsing %s: %v", path, err)
	}

	if raw.SourceRoot == "" {
		return nil, diag.ConfigErrorf("%s: sourceRoot is required", path)
	}
	if raw.OutputRoot == "" {
		return nil, diag.ConfigErrorf("%s: outputRoot is required", path)
	}

	conv, err := pathmap.ParseConvention(raw.ModuleConvention)
	if err != nil {
		return nil, diag.ConfigErrorf("%s: %v", path, err)
	}

	p := &Project{
		Dir:                  absDir,
		SourceRoot:           absolutize(absDir, raw.SourceRoot),
		OutputRoot:           absolutize(absDir, raw.OutputRoot),
		Convention:           conv,
		EmitDeclarationsOnly: raw.EmitDeclarationsOnly,
		DependencyRoot:       absolutize(absDir, raw.DependencyRoot),
		SkipRuntime:          raw.SkipRuntime,
		Include:              raw.Include,
		Exclude:              raw.Exclude,
	}
	if raw.DependencyRoot == "" {
		p.DependencyRoot = filepath.Join(absDir, defaultDependencyDir)
	}
	if raw.RuntimePath == "" {
		p.RuntimePath = filepath.Join(p.OutputRoot, defaultRuntimeDir)
	} else {
		p.RuntimePath = absolutize(absDir, raw.RuntimePath)
	}

	return p, nil
}

// Transformer builds the path transformer for this project.
func (p *Project) Transformer() *pathmap.Transformer {
	return &pathmap.Transformer{
		SourceRoot: p.SourceRoot,
		OutputRoot: p.OutputRoot,
		Convention: p.Convention,
	}
}

func absolutize(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, filepath.FromSlash(path))
}
