// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/docsift/docsift/cmd/docsift/cli"
	"github.com/docsift/docsift/queue"
	"github.com/docsift/docsift/review"
)

func loginCommand() *cli.Command {
	var params struct {
		tokenFile string
		hash      bool
	}
	return &cli.Command{
		Name:    "login",
		Summary: "Store the review API token",
		Usage:   "docsift login [--token-file <path>] [--hash]",
		Description: `Prompt for the review API token, verify it against the service, and
store it under the state directory so later commands pick it up
automatically. The prompt hides input when stdin is a terminal;
otherwise the token is read from the first line of stdin.

With --hash, print the bcrypt hash of the token instead of storing
it. Put the hash in the service's auth_token_hash config field to
require the token on every request.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flags.StringVar(&params.tokenFile, "token-file", "", "read the token from a file instead of prompting")
			flags.BoolVar(&params.hash, "hash", false, "print the token's bcrypt hash and exit without storing")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Store the token for this user",
				Command:     "docsift login",
			},
			{
				Description: "Generate the hash for the service config",
				Command:     "docsift login --hash",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			token, err := readToken(params.tokenFile)
			if err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("empty token")
			}

			if params.hash {
				hash, err := queue.HashToken(token)
				if err != nil {
					return err
				}
				fmt.Println(hash)
				return nil
			}

			// Verify before saving: an authenticated probe fails fast
			// on a bad token or an unreachable service.
			client, err := review.NewClient(review.ClientConfig{
				BaseURL: cli.APIURL(),
				Token:   token,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			if _, err := client.PendingCount(ctx); err != nil {
				return fmt.Errorf("verifying token against %s: %w", cli.APIURL(), err)
			}

			path, err := cli.SaveToken(token)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Token verified and saved to %s\n", path)
			return nil
		},
	}
}

// readToken reads the token from the given file, or prompts on stdin.
func readToken(tokenFile string) (string, error) {
	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return "", fmt.Errorf("reading token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Token: ")
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	// Piped input (scripts, CI).
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
