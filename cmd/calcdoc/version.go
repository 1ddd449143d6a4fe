package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/skosovsky/calcdoc"
)

// Version is set during build using ldflags
var Version = "dev"

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "calcdoc version %s (runtime %s)\n", cmd.Root().Version, calcdoc.RuntimeVersion)
			return err
		},
	}
}
