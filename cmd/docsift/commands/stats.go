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

func statsCommand() *cli.Command {
	var params struct {
		json bool
	}
	statsFlags := func() *pflag.FlagSet {
		flags := pflag.NewFlagSet("stats", pflag.ContinueOnError)
		flags.BoolVar(&params.json, "json", false, "output JSON")
		return flags
	}
	show := func(ctx context.Context, args []string, logger *slog.Logger) error {
		stats := sessionStats(logger)
		approved, rejected := stats.Counts()
		if params.json {
			return cli.WriteJSON(map[string]int{
				"approvedCount": approved,
				"rejectedCount": rejected,
			})
		}
		fmt.Printf("approved: %d\nrejected: %d\n", approved, rejected)
		return nil
	}

	return &cli.Command{
		Name:    "stats",
		Summary: "Show or reset the session review counters",
		Usage:   "docsift stats [show|reset] [--json]",
		Description: `Session counters track how many records this reviewer approved and
rejected. They persist across commands in the state directory and
reset automatically when a fresh batch of work arrives after the
queue was emptied.`,
		Flags: statsFlags,
		Run:   show,
		Subcommands: []*cli.Command{
			{
				Name:    "show",
				Summary: "Show the approved and rejected counts",
				Usage:   "docsift stats show [--json]",
				Flags:   statsFlags,
				Run:     show,
			},
			{
				Name:    "reset",
				Summary: "Zero the session counters",
				Usage:   "docsift stats reset",
				Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
					stats := sessionStats(logger)
					stats.Reset()
					fmt.Println("session counters reset")
					return nil
				},
			},
		},
	}
}
