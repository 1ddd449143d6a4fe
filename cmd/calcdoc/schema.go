package main

import (
	"context"
	"encoding/json"

	"github.com/urfave/cli/v3"

	"github.com/skosovsky/calcdoc"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON Schema of an embedded tool definition",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := calcdoc.ToolSchemaJSONSchema()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
}
