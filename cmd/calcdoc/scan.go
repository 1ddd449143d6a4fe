package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/skosovsky/calcdoc"
	"github.com/skosovsky/calcdoc/internal/fancy"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Aliases:   []string{"ls"},
		Usage:     "List tool blocks, compiled widgets and runtime bundles without changing anything",
		ArgsUsage: "<document>... (use - for stdin)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errors.New("at least one document path required")
			}
			for _, p := range paths {
				doc, err := readDocument(cmd, p)
				if err != nil {
					return fmt.Errorf("read %s: %w", p, err)
				}
				report := fancy.ScanReport(p,
					calcdoc.Scan(doc),
					calcdoc.FindRuntimeBundles(doc),
					calcdoc.FindWidgets(doc),
				)
				fmt.Fprintln(cmd.Root().Writer, report)
			}
			return nil
		},
	}
}
