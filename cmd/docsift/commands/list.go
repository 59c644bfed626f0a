// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/docsift/docsift/cmd/docsift/cli"
	"github.com/docsift/docsift/review"
)

func listCommand() *cli.Command {
	var params struct {
		filter string
		json   bool
	}
	return &cli.Command{
		Name:    "list",
		Summary: "List records awaiting review",
		Usage:   "docsift list [--filter <type>] [--json]",
		Description: `List every record awaiting review, in review order: records with
validation warnings first, then by ascending extraction confidence,
so the least trustworthy extractions surface at the top.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.StringVar(&params.filter, "filter", "all", "record type to show: all, form, email, or invoice")
			flags.BoolVar(&params.json, "json", false, "output JSON instead of a table")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "List every pending record",
				Command:     "docsift list",
			},
			{
				Description: "List pending invoices as JSON",
				Command:     "docsift list --filter invoice --json",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			filter, err := parseFilter(params.filter)
			if err != nil {
				return err
			}
			client, err := apiClient(logger)
			if err != nil {
				return err
			}
			records, err := client.FetchPending(ctx)
			if err != nil {
				return err
			}
			projected := review.Project(records, filter)
			if params.json {
				return cli.WriteJSON(projected)
			}
			if len(projected) == 0 {
				fmt.Println("no records awaiting review")
				return nil
			}
			writeRecordTable(os.Stdout, projected)
			return nil
		},
	}
}
