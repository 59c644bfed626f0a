// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1}, // substitution
		{"abc", "ab", 1},  // deletion
		{"ab", "abc", 1},  // insertion
		{"abc", "bac", 2}, // transposition (counted as 2 edits)
		{"kitten", "sitting", 3},
		{"approve", "aprove", 1},
		{"reject", "rejct", 1},
		{"follow", "folow", 1},
	}

	for _, test := range tests {
		t.Run(test.a+"/"+test.b, func(t *testing.T) {
			got := levenshtein(test.a, test.b)
			if got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestLevenshtein_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"abc", "abd"},
		{"approve", "aprove"},
		{"stats", "stat"},
	}

	for _, pair := range pairs {
		forward := levenshtein(pair[0], pair[1])
		reverse := levenshtein(pair[1], pair[0])
		if forward != reverse {
			t.Errorf("levenshtein(%q, %q) = %d, but reverse = %d",
				pair[0], pair[1], forward, reverse)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "approve"},
		{Name: "reject"},
		{Name: "version"},
		{Name: "list"},
		{Name: "follow"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"aprove", "approve"},   // missing letter
		{"rejct", "reject"},     // missing letter
		{"versionn", "version"}, // extra letter
		{"lst", "list"},         // missing letters
		{"folow", "follow"},     // missing letter
		{"zzzzzzzzz", ""},       // nothing close
	}

	for _, test := range tests {
		got := suggestCommand(test.input, commands)
		if got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String("filter", "all", "")
	flagSet.Bool("json", false, "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--fitler", "form"}, "--filter"},
		{[]string{"--jsno"}, "--json"},
		{[]string{"--filter=form"}, ""}, // defined, nothing to suggest
		{[]string{"positional"}, ""},
		{[]string{"--zzzzzz"}, ""},
	}

	for _, test := range tests {
		got := suggestFlag(test.args, flagSet)
		if got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
