// Command pathglob is the reference CLI for the pattern engine: parse,
// compile, matches, and glob subcommands, each taking a pattern as its
// first argument.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/coregx/pathglob/compile"
	"github.com/coregx/pathglob/parser"
	"github.com/coregx/pathglob/vm"
	"github.com/coregx/pathglob/walk"
)

var log = logrus.New()

func main() {
	configureLogger()

	app := &cli.App{
		Name:                 "pathglob",
		Usage:                "parse, compile, and evaluate path glob patterns",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			parseCommand(),
			compileCommand(),
			matchesCommand(),
			globCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configureLogger sets the log level from PATHGLOB_LOG
// (error|warn|info|debug|trace); unset or invalid values default to warn.
func configureLogger() {
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(os.Getenv("PATHGLOB_LOG"))
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "parse a pattern and print its AST",
		ArgsUsage: "<pattern>",
		Action: func(c *cli.Context) error {
			pattern, err := requireArg(c, 0, "pattern")
			if err != nil {
				return err
			}
			log.WithField("pattern", pattern).Debug("parsing pattern")
			fmt.Println(parser.Parse(pattern).Debug())
			return nil
		},
	}
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "compile a pattern and print its disassembly",
		ArgsUsage: "<pattern>",
		Action: func(c *cli.Context) error {
			pattern, err := requireArg(c, 0, "pattern")
			if err != nil {
				return err
			}
			prog, err := compile.Compile(parser.Parse(pattern))
			if err != nil {
				return fmt.Errorf("pathglob: %w", err)
			}
			absolutePrefix := "none"
			if prog.AbsolutePrefix != nil {
				absolutePrefix = fmt.Sprintf("%q", *prog.AbsolutePrefix)
			}
			fmt.Printf("# counters=%d, absolute_prefix=%s\n", prog.CounterCount, absolutePrefix)
			for i, in := range prog.Instrs {
				fmt.Printf("%3d: %s\n", i, in)
			}
			return nil
		},
	}
}

func matchesCommand() *cli.Command {
	return &cli.Command{
		Name:      "matches",
		Usage:     "match a pattern against a single path",
		ArgsUsage: "<pattern> [path]",
		Action: func(c *cli.Context) error {
			pattern, err := requireArg(c, 0, "pattern")
			if err != nil {
				return err
			}
			path := optionalArg(c, 1, ".")
			prog, err := compile.Compile(parser.Parse(pattern))
			if err != nil {
				return fmt.Errorf("pathglob: %w", err)
			}
			result := vm.Match(path, prog)
			fmt.Printf("MatchResult{Prefix: %t, Complete: %t}\n", result.Prefix, result.Complete)
			return nil
		},
	}
}

func globCommand() *cli.Command {
	return &cli.Command{
		Name:      "glob",
		Usage:     "walk a directory tree, printing every matching path",
		ArgsUsage: "<pattern> [path]",
		Action: func(c *cli.Context) error {
			pattern, err := requireArg(c, 0, "pattern")
			if err != nil {
				return err
			}
			root := optionalArg(c, 1, ".")
			prog, err := compile.Compile(parser.Parse(pattern))
			if err != nil {
				return fmt.Errorf("pathglob: %w", err)
			}

			results, err := walk.Walk(context.Background(), root, prog, walk.Options{Logger: log})
			if err != nil {
				return fmt.Errorf("pathglob: %w", err)
			}

			sawError := false
			for r := range results {
				if r.Err != nil {
					fmt.Fprintln(os.Stderr, r.Err)
					sawError = true
					continue
				}
				fmt.Println(r.Path)
			}
			if sawError {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func requireArg(c *cli.Context, i int, name string) (string, error) {
	if c.Args().Len() <= i {
		return "", fmt.Errorf("pathglob: missing required argument %q", name)
	}
	return c.Args().Get(i), nil
}

// optionalArg returns the i'th positional argument, or def if fewer than
// i+1 were supplied.
func optionalArg(c *cli.Context, i int, def string) string {
	if c.Args().Len() <= i {
		return def
	}
	return c.Args().Get(i)
}
