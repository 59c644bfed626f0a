// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/cmd/docsift/cli"
)

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:    "clear",
		Summary: "Remove every pending record from the queue",
		Usage:   "docsift clear",
		Description: `Remove every record awaiting review. The ingest ledger is kept, so
cleared source files are not re-imported by later scans. The next
batch of new work after a clear resets the session counters.`,
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			client, err := apiClient(logger)
			if err != nil {
				return err
			}
			cleared, err := client.ClearPending(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("cleared %d pending records\n", cleared)
			return nil
		},
	}
}
