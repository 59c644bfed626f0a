// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/cmd/docsift/cli"
)

func rejectCommand() *cli.Command {
	return &cli.Command{
		Name:    "reject",
		Summary: "Reject a record and drop it from the queue",
		Usage:   "docsift reject <record-id>",
		Description: `Reject a pending record. Nothing is exported; the record is marked
rejected and leaves the queue.`,
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one record ID, got %d", len(args))
			}
			recordID := args[0]

			mutator, err := reviewMutator(logger)
			if err != nil {
				return err
			}
			if err := mutator.Reject(ctx, recordID); err != nil {
				return err
			}
			fmt.Printf("rejected %s\n", recordID)
			return nil
		},
	}
}
