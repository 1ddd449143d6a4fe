package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/skosovsky/calcdoc/internal/fancy"
)

// packagingFlags are shared by every command that rewrites documents.
func packagingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "codec",
			Usage: "Runtime payload encoding: hex or base64",
		},
		&cli.StringFlag{
			Name:  "duplicates",
			Usage: "Repeated tool ids: replace-all or keep-first",
		},
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Convert tool blocks and refresh the runtime bundle of each document",
		ArgsUsage: "<document>... (use - for stdin)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the result here instead of in place (single document only, - for stdout)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print the per-document report",
			},
		}, packagingFlags()...),
		Action: buildAction,
	}
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errors.New("at least one document path required")
	}
	output := cmd.String("output")
	if output != "" && len(paths) > 1 {
		return errors.New("--output needs exactly one document")
	}
	for _, p := range paths {
		if p == stdio && output == "" {
			return errors.New("reading from stdin needs --output")
		}
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	tools, err := e.tools()
	if err != nil {
		return err
	}
	rw, err := e.rewriter()
	if err != nil {
		return err
	}

	for _, p := range paths {
		doc, err := readDocument(cmd, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		res, err := rw.Rewrite(doc, tools)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		dst := p
		if output != "" {
			dst = output
		}
		if err := writeDocument(cmd, dst, res.Document); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		e.logger.Debug("document written", "source", p, "destination", dst)
		if !cmd.Bool("quiet") {
			fmt.Fprintln(cmd.Root().ErrWriter, fancy.RewriteReport(p, res))
		}
	}
	if !cmd.Bool("quiet") {
		fmt.Fprintln(cmd.Root().ErrWriter, fancy.ConvertedStyle.Render(fmt.Sprintf("Built %d document(s)", len(paths))))
	}
	return nil
}
