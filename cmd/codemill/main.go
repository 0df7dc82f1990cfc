// codemill processes source files into chunks, entities and
// relationships and prints the results as JSON. It is a development
// harness over the pipeline; production callers embed the pipeline
// package directly.
package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/debug"
	"github.com/standardbeagle/codemill/internal/pipeline"
)

func main() {
	app := &cli.App{
		Name:  "codemill",
		Usage: "parse, chunk and normalize source files for indexing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "project root (config discovery and default walk target)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "additional exclude globs",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log pipeline internals to stderr",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print cache and guard state after processing",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		debug.SetOutput(os.Stderr)
	}

	root := c.String("root")
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}

	pipe, err := pipeline.New(cfg, nil)
	if err != nil {
		return err
	}
	defer pipe.Close()

	targets := c.Args().Slice()
	if len(targets) == 0 {
		targets = []string{root}
	}

	enc := json.NewEncoder(os.Stdout)
	var futures []*pipeline.Future
	for _, target := range targets {
		if err := submitTarget(pipe, cfg, target, &futures); err != nil {
			return err
		}
	}
	for _, f := range futures {
		if err := enc.Encode(f.Wait()); err != nil {
			return err
		}
	}

	if c.Bool("stats") {
		stats := pipe.CacheStats()
		state := pipe.GuardState()
		fmt.Fprintf(os.Stderr, "cache: %d entries, %d hits, %d misses, %d evictions, %d bytes\n",
			stats.Entries, stats.Hits, stats.Misses, stats.Evictions, stats.BytesHeld)
		fmt.Fprintf(os.Stderr, "guard: memoryDegraded=%v errorDegraded=%v windowErrors=%d/%d\n",
			state.MemoryDegraded, state.ErrorDegraded, state.WindowErrors, state.WindowSize)
	}
	return nil
}

func submitTarget(pipe *pipeline.Pipeline, cfg *config.Config, target string, futures *[]*pipeline.Future) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return submitFile(pipe, target, futures)
	}
	return filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(target, path)
		if relErr != nil {
			rel = path
		}
		if !cfg.Matches(filepath.ToSlash(rel)) {
			return nil
		}
		return submitFile(pipe, path, futures)
	})
}

func submitFile(pipe *pipeline.Pipeline, path string, futures *[]*pipeline.Future) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	*futures = append(*futures, pipe.Submit(path, content, pipeline.Hints{}))
	return nil
}
