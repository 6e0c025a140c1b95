package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/luaforge/tslc/compiler"
	"github.com/luaforge/tslc/config"
	"github.com/luaforge/tslc/diag"
	"github.com/luaforge/tslc/frontend"
	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/luagen"
	"github.com/luaforge/tslc/modcache"
	"github.com/luaforge/tslc/resolve"
)

// Execute runs the tslc CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "tslc",
		Usage:                  "Compiles TypeScript sources to Lua for a scene-tree runtime",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Usage:   "Project directory containing " + config.FileName,
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Compile the project once",
				Action: buildAction,
			},
			{
				Name:   "watch",
				Usage:  "Compile the project and recompile on source changes",
				Action: watchAction,
			},
			{
				Name:   "clean",
				Usage:  "Remove generated artifacts from the output tree",
				Action: cleanAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, compiler.ErrCompileFailed) {
			// Diagnostics were already printed during the pass.
			os.Exit(1)
		}
		printer := diag.NewPrinter()
		if !printer.Report(err) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// session holds the long-lived state of one compiler invocation: the
// validated configuration, the source graph, and the wired compiler.
type session struct {
	project  *config.Project
	graph    *graph.Graph
	compiler *compiler.Compiler
	printer  *diag.Printer
}

// newSession loads the configuration, discovers the source tree, and
// wires the resolution engine and generator for the project directory.
func newSession(dir string) (*session, error) {
	project, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	paths := project.Transformer()
	parser := &frontend.Parser{}
	g := graph.New(parser.Parse)
	if err := g.AddTree(project.SourceRoot, project.Include, project.Exclude); err != nil {
		return nil, err
	}

	partitions, err := config.LoadPartitions(project, g)
	if err != nil {
		return nil, err
	}

	engine := &resolve.Engine{
		Paths:      paths,
		Deps:       modcache.New(project.DependencyRoot),
		Partitions: partitions,
	}
	printer := diag.NewPrinter()

	return &session{
		project: project,
		graph:   g,
		printer: printer,
		compiler: &compiler.Compiler{
			Project: project,
			Graph:   g,
			Paths:   paths,
			Gen:     &luagen.Generator{Engine: engine, DependencyRoot: project.DependencyRoot},
			Printer: printer,
		},
	}, nil
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd.String("project"))
	if err != nil {
		return err
	}
	return s.compiler.CompileAll()
}

func cleanAction(ctx context.Context, cmd *cli.Command) error {
	project, err := config.Load(cmd.String("project"))
	if err != nil {
		return err
	}
	// Pruning against an empty graph treats every artifact as orphaned;
	// files that are not ours stay put.
	pruner := &compiler.Pruner{
		Paths: project.Transformer(),
		Graph: graph.New(func(string, []byte) ([]graph.Import, bool, error) {
			return nil, false, nil
		}),
	}
	if err := pruner.Prune(project.OutputRoot); err != nil {
		return fmt.Errorf("cleaning %s: %w", project.OutputRoot, err)
	}
	return nil
}
