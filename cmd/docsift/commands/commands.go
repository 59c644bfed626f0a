// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the docsift CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/cmd/docsift/cli"
	"github.com/docsift/docsift/lib/version"
)

// Root returns the root of the docsift command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "docsift",
		Summary: "Review queue client for machine-extracted records",
		Description: `docsift is the command-line client for the Docsift review queue.

It lists records awaiting review, approves, rejects, and edits them,
and can follow the queue live over the push channel. The service
location comes from DOCSIFT_API_URL (default http://localhost:8100);
authenticate with "docsift login" or DOCSIFT_TOKEN.`,
		Examples: []cli.Example{
			{
				Description: "List the queue in review order",
				Command:     "docsift list",
			},
			{
				Description: "Approve a record after checking its source document",
				Command:     "docsift source 7c9e6679 && docsift approve 7c9e6679",
			},
			{
				Description: "Watch the queue live",
				Command:     "docsift follow --filter invoice",
			},
		},
		Subcommands: []*cli.Command{
			listCommand(),
			countCommand(),
			approveCommand(),
			rejectCommand(),
			editCommand(),
			sourceCommand(),
			scanCommand(),
			clearCommand(),
			followCommand(),
			statsCommand(),
			loginCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
					fmt.Println(version.Full())
					return nil
				},
			},
		},
	}
}
