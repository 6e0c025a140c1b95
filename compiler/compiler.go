// Package compiler sequences one compilation pass: prune stale output,
// generate text for every non-declaration file, write the buffered
// artifacts, and copy the runtime support tree. The two recoverable
// failure kinds degrade to a reported diagnostic plus a failed-pass
// status; anything else propagates as fatal.
package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/luaforge/tslc/config"
	"github.com/luaforge/tslc/diag"
	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/pathmap"
	"github.com/luaforge/tslc/runtime"
)

// ErrCompileFailed marks a pass that reported diagnostics and produced
// no artifacts. The diagnostics have already been printed; callers just
// translate this into a failure exit status.
var ErrCompileFailed = errors.New("compilation failed")

// Generator turns one parsed, non-declaration source file into output
// text. Implementations call back into the resolution engine for every
// cross-module reference they emit.
type Generator interface {
	Generate(file *graph.SourceFile) (string, error)
}

// DeclarationEmitter is the front end hook for declaration-only output.
type DeclarationEmitter interface {
	EmitDeclarations(files []*graph.SourceFile) error
}

// Compiler drives compilation passes for one session.
type Compiler struct {
	Project *config.Project
	Graph   *graph.Graph
	Paths   *pathmap.Transformer
	Gen     Generator
	// Decls may be nil when no declaration emitter is wired in.
	Decls   DeclarationEmitter
	Printer *diag.Printer
}

// CompileAll runs a pass over every tracked file.
func (c *Compiler) CompileAll() error {
	return c.Compile(c.Graph.Files())
}

// Compile runs one pass over the given file set. Configuration and
// generation failures are reported and collapse into ErrCompileFailed;
// any other error is fatal and returned as-is.
func (c *Compiler) Compile(files []*graph.SourceFile) error {
	pruner := &Pruner{Paths: c.Paths, Graph: c.Graph, Keep: []string{c.Project.RuntimePath}}
	if err := pruner.Prune(c.Project.OutputRoot); err != nil {
		return fmt.Errorf("pruning %s: %w", c.Project.OutputRoot, err)
	}

	failed := false
	if c.Project.EmitDeclarationsOnly {
		if c.Decls != nil {
			if err := c.Decls.EmitDeclarations(files); err != nil {
				if !c.Printer.Report(err) {
					return err
				}
				failed = true
			}
		}
	} else if err := c.generate(files, &failed); err != nil {
		return err
	}

	if !c.Project.SkipRuntime {
		// Best effort: a failed copy must not fail the pass.
		if err := runtime.CopyTo(c.Project.RuntimePath); err != nil {
			fmt.Fprintf(c.Printer.Out, "warning: copying runtime support: %v\n", err)
		}
	}

	if failed {
		return ErrCompileFailed
	}
	return nil
}

// generate produces and writes artifacts for the pass. Artifacts are
// buffered and only written once every file has generated cleanly; a
// reported failure abandons the buffered work.
func (c *Compiler) generate(files []*graph.SourceFile, failed *bool) error {
	type artifact struct {
		path string
		text string
	}
	var buffered []artifact

	for _, file := range files {
		if file.Declaration {
			continue
		}
		text, err := c.Gen.Generate(file)
		if err != nil {
			if !c.Printer.Report(err) {
				return err
			}
			*failed = true
			return nil
		}
		out, err := c.Paths.ToOutputPath(file.Path)
		if err != nil {
			return err
		}
		buffered = append(buffered, artifact{path: out, text: text})
	}

	for _, a := range buffered {
		if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(a.path, []byte(a.text), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", a.path, err)
		}
	}
	return nil
}
