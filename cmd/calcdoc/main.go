package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "calcdoc",
		Version: Version,
		Usage:   "Compile embedded calculator definitions into interactive widgets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file (default: ./calcdoc.toml when present)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: trace, debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json",
			},
			&cli.StringFlag{
				Name:    "tools",
				Aliases: []string{"t"},
				Usage:   "JSON file with the tool schemas to convert (default: every id with a formula)",
			},
			&cli.StringFlag{
				Name:  "formulas",
				Usage: "JavaScript formula table replacing the embedded one",
			},
		},
		Commands: []*cli.Command{
			buildCommand(),
			scanCommand(),
			previewCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
