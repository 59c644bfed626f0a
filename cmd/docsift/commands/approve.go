// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/docsift/docsift/cmd/docsift/cli"
	"github.com/docsift/docsift/review"
)

func approveCommand() *cli.Command {
	return &cli.Command{
		Name:    "approve",
		Summary: "Approve a record and export it downstream",
		Usage:   "docsift approve <record-id>",
		Description: `Approve a pending record. The service exports the record to the
downstream sheet before marking it approved; if the export fails, the
record stays in the queue and the command exits non-zero with the
service's reason.`,
		Examples: []cli.Example{
			{
				Description: "Approve a record",
				Command:     "docsift approve 7c9e6679-7425-40de-944b-e07fc1f90ae7",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one record ID, got %d", len(args))
			}
			recordID := args[0]

			mutator, err := reviewMutator(logger)
			if err != nil {
				return err
			}
			result, err := mutator.Approve(ctx, recordID)
			if err != nil {
				var mutationErr *review.MutationError
				if errors.As(err, &mutationErr) && mutationErr.Reason != "" {
					fmt.Fprintf(os.Stderr, "approve refused: %s\n", mutationErr.Reason)
					return &cli.ExitError{Code: 1}
				}
				return err
			}

			if result.SheetRow > 0 {
				fmt.Printf("approved %s (sheet row %d)\n", recordID, result.SheetRow)
			} else {
				fmt.Printf("approved %s\n", recordID)
			}
			return nil
		},
	}
}
