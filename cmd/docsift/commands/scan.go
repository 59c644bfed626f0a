// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/docsift/docsift/cmd/docsift/cli"
)

func scanCommand() *cli.Command {
	var params struct {
		json bool
	}
	return &cli.Command{
		Name:    "scan",
		Summary: "Sweep the extraction inbox for new files",
		Usage:   "docsift scan [--json]",
		Description: `Ask the service to sweep its extraction inbox now, instead of
waiting for the periodic rescan. Files already ingested are skipped;
files that fail to parse are reported and left in place.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
			flags.BoolVar(&params.json, "json", false, "output JSON")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			client, err := apiClient(logger)
			if err != nil {
				return err
			}
			result, err := client.Scan(ctx)
			if err != nil {
				return err
			}
			if params.json {
				return cli.WriteJSON(result)
			}
			fmt.Printf("scan: %d processed, %d new, %d failed\n",
				result.ProcessedCount, result.NewItemsCount, result.FailedCount)
			for _, scanError := range result.Errors {
				fmt.Printf("  %s\n", scanError)
			}
			return nil
		},
	}
}
