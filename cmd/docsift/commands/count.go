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

func countCommand() *cli.Command {
	var params struct {
		json bool
	}
	return &cli.Command{
		Name:    "count",
		Summary: "Show how many records await review",
		Usage:   "docsift count [--json]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("count", pflag.ContinueOnError)
			flags.BoolVar(&params.json, "json", false, "output JSON")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			client, err := apiClient(logger)
			if err != nil {
				return err
			}
			count, err := client.PendingCount(ctx)
			if err != nil {
				return err
			}
			if params.json {
				return cli.WriteJSON(count)
			}
			if count.HasNew {
				fmt.Printf("%d pending (new items arriving)\n", count.Count)
			} else {
				fmt.Printf("%d pending\n", count.Count)
			}
			return nil
		},
	}
}
