package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/luaforge/tslc/compiler"
	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/pathmap"
)

func watchAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd.String("project"))
	if err != nil {
		return err
	}

	// Initial pass. A failed pass is reported but keeps the watcher
	// alive; the next save gets another chance.
	if err := s.recompile(s.graph.Files()); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, s.project.SourceRoot); err != nil {
		return err
	}
	fmt.Fprintf(s.printer.Out, "watching %s\n", s.project.SourceRoot)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if err := s.handleEvent(watcher, event); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(s.printer.Out, "warning: watcher: %v\n", err)
		}
	}
}

// handleEvent updates the graph for one filesystem event and recompiles
// the files that observe the changed one.
func (s *session) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) error {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return watchTree(watcher, path)
		}
	}

	if !pathmap.IsSourceFile(path) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		affected := s.graph.ClosureFrom(path)
		s.graph.Remove(path)
		return s.recompile(without(affected, path))

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if err := s.graph.Add(path); err != nil {
			if !s.printer.Report(err) {
				return err
			}
			return nil
		}
		return s.recompile(s.graph.ClosureFrom(path))
	}
	return nil
}

// recompile runs a pass over files, swallowing failed-pass status so
// the watch loop keeps running.
func (s *session) recompile(files []*graph.SourceFile) error {
	err := s.compiler.Compile(files)
	if err != nil && !errors.Is(err, compiler.ErrCompileFailed) {
		return err
	}
	return nil
}

// watchTree registers root and every directory under it.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}

func without(files []*graph.SourceFile, path string) []*graph.SourceFile {
	kept := files[:0]
	for _, f := range files {
		if f.Path != path {
			kept = append(kept, f)
		}
	}
	return kept
}
