// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/docsift/docsift/cmd/docsift/cli"
	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/review"
)

func followCommand() *cli.Command {
	var params struct {
		filter string
	}
	return &cli.Command{
		Name:    "follow",
		Summary: "Follow the review queue live over the push channel",
		Usage:   "docsift follow [--filter <type>]",
		Description: `Connect to the push channel and keep a live local copy of the
review queue. Prints the queue in review order after every change,
along with the session counters, the new-items indicator, and push
channel state transitions. Runs until interrupted.

The connection retries with exponential backoff when the service
drops it, and every reconnect refetches the queue so nothing missed
while offline is lost.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("follow", pflag.ContinueOnError)
			flags.StringVar(&params.filter, "filter", "all", "record type to show: all, form, email, or invoice")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Watch every record type",
				Command:     "docsift follow",
			},
			{
				Description: "Watch invoices only",
				Command:     "docsift follow --filter invoice",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			filter, err := parseFilter(params.filter)
			if err != nil {
				return err
			}

			// Callbacks fire on connection and cache goroutines. Hand
			// lines to the main goroutine for printing so output stays
			// serialized and the callbacks never block.
			lines := make(chan string, 64)
			emit := func(line string) {
				select {
				case lines <- line:
				default:
				}
			}

			var session *review.Session
			session, err = review.NewSession(review.SessionConfig{
				APIURL:    cli.APIURL(),
				PushURL:   cli.PushURL(),
				Token:     cli.Token(),
				StatePath: cli.StatsFilePath(),
				Logger:    logger,
				OnSnapshot: func(records []extraction.Record) {
					emit(formatSnapshot(review.Project(records, filter), session.Stats()))
				},
				OnNewItems: func(active bool) {
					if active {
						emit("new items arriving")
					} else {
						emit("new items indicator cleared")
					}
				},
				OnConnectionState: func(state review.State, stateErr error) {
					if stateErr != nil {
						emit(fmt.Sprintf("push channel: %s (%v)", state, stateErr))
						return
					}
					emit("push channel: " + string(state))
				},
			})
			if err != nil {
				return err
			}

			session.Start()
			defer session.Stop("follow interrupted")

			fmt.Printf("following %s (filter: %s), interrupt to stop\n", cli.APIURL(), params.filter)
			for {
				select {
				case <-ctx.Done():
					// Print whatever is already queued before stopping.
					for {
						select {
						case line := <-lines:
							printFollowLine(line)
						default:
							return nil
						}
					}
				case line := <-lines:
					printFollowLine(line)
				}
			}
		},
	}
}

func printFollowLine(line string) {
	fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), line)
}

// formatSnapshot renders one queue snapshot as a multi-line block:
// a summary line with the session counters, then one indented line
// per record in review order.
func formatSnapshot(records []extraction.Record, stats *review.Stats) string {
	approved, rejected := stats.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "queue: %d pending (session: %d approved, %d rejected)",
		len(records), approved, rejected)
	for _, record := range records {
		fmt.Fprintf(&b, "\n          %s  %-7s  %.2f  %d warnings  %s",
			record.ID, record.Type, record.Confidence, len(record.Warnings), recordSubject(record))
	}
	return b.String()
}
