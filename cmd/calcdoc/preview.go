package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/skosovsky/calcdoc"
)

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Build a document and render it with every widget evaluated",
		ArgsUsage: "<document> (use - for stdin)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   stdio,
				Usage:   "Where to write the evaluated document",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "Edit an input before rendering: <tool-id>.<input>=<value> (repeatable)",
			},
		}, packagingFlags()...),
		Action: previewAction,
	}
}

type inputEdit struct {
	toolID string
	input  string
	value  string
}

func parseEdit(s string) (inputEdit, error) {
	key, value, ok := strings.Cut(s, "=")
	dot := strings.LastIndexByte(key, '.')
	if !ok || dot <= 0 || dot == len(key)-1 {
		return inputEdit{}, fmt.Errorf("bad --set %q: want <tool-id>.<input>=<value>", s)
	}
	return inputEdit{toolID: key[:dot], input: key[dot+1:], value: value}, nil
}

func previewAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("exactly one document path required")
	}
	path := cmd.Args().First()

	var edits []inputEdit
	for _, s := range cmd.StringSlice("set") {
		ed, err := parseEdit(s)
		if err != nil {
			return err
		}
		edits = append(edits, ed)
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
	src, err := readDocument(cmd, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	res, err := rw.Rewrite(src, tools)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	doc, err := calcdoc.ParseDocumentString(res.Document)
	if err != nil {
		return err
	}
	ev := calcdoc.NewEvaluator(e.registry, calcdoc.WithEvaluatorLogger(e.logger.With("component", "evaluator")))
	if _, err := ev.Install(doc); err != nil {
		return err
	}
	defer doc.Unload()

	for _, ed := range edits {
		w, ok := doc.Widget(ed.toolID)
		if !ok {
			return fmt.Errorf("no widget %q in %s", ed.toolID, path)
		}
		if err := w.Edit(ed.input, ed.value); err != nil {
			return fmt.Errorf("set %s.%s: %w", ed.toolID, ed.input, err)
		}
	}

	return writeDocument(cmd, cmd.String("output"), doc.String())
}
