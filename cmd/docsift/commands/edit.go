// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/docsift/docsift/cmd/docsift/cli"
)

func editCommand() *cli.Command {
	var params struct {
		set  []string
		json bool
	}
	return &cli.Command{
		Name:    "edit",
		Summary: "Correct fields on a pending record",
		Usage:   "docsift edit <record-id> --set <field>=<value> [--set ...]",
		Description: `Apply field corrections to a pending record before approving it. The
record stays in the queue; the service re-validates it and updates
its warnings.

Values are parsed as JSON when possible, so numbers and booleans keep
their type (--set confidence=0.95). Anything that is not valid JSON
is taken as a string. Quote a value to force a string: --set
'priority="high"'.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("edit", pflag.ContinueOnError)
			flags.StringArrayVar(&params.set, "set", nil, "field=value update (repeatable)")
			flags.BoolVar(&params.json, "json", false, "print the updated record as JSON")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Fix a misread client name",
				Command:     `docsift edit 7c9e6679 --set client_name="Jane Doe"`,
			},
			{
				Description: "Correct an invoice total and date",
				Command:     "docsift edit 41f8aa21 --set total_amount=1210.00 --set date=2026-03-15",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one record ID, got %d", len(args))
			}
			if len(params.set) == 0 {
				return fmt.Errorf("at least one --set field=value is required")
			}
			updates, err := parseSetFlags(params.set)
			if err != nil {
				return err
			}

			mutator, err := reviewMutator(logger)
			if err != nil {
				return err
			}
			record, err := mutator.Edit(ctx, args[0], updates)
			if err != nil {
				return err
			}

			if params.json {
				return cli.WriteJSON(record)
			}
			fields := make([]string, 0, len(updates))
			for field := range updates {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			fmt.Printf("updated %s (%s)\n", record.ID, strings.Join(fields, ", "))
			return nil
		},
	}
}

// parseSetFlags converts repeated --set field=value flags into an
// update map. Values that parse as JSON keep their JSON type; anything
// else becomes a string.
func parseSetFlags(pairs []string) (map[string]any, error) {
	updates := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		field, rawValue, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --set %q (expected field=value)", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
			value = rawValue
		}
		updates[field] = value
	}
	return updates, nil
}
