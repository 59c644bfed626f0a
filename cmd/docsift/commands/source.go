// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/docsift/docsift/cmd/docsift/cli"
)

func sourceCommand() *cli.Command {
	var params struct {
		json bool
	}
	return &cli.Command{
		Name:    "source",
		Summary: "Print the original document a record was extracted from",
		Usage:   "docsift source <record-id> [--json]",
		Description: `Fetch the source document the extractor read (the raw form
submission, email, or invoice file) and print its content to stdout.
With --json, print the full document envelope including filename and
type.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("source", pflag.ContinueOnError)
			flags.BoolVar(&params.json, "json", false, "print the document envelope as JSON")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one record ID, got %d", len(args))
			}
			client, err := apiClient(logger)
			if err != nil {
				return err
			}
			document, err := client.Source(ctx, args[0])
			if err != nil {
				return err
			}
			if params.json {
				return cli.WriteJSON(document)
			}
			fmt.Print(document.Content)
			if !strings.HasSuffix(document.Content, "\n") {
				fmt.Println()
			}
			return nil
		},
	}
}
