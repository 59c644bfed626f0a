// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"cmp"
	"slices"

	"github.com/docsift/docsift/extraction"
)

// Filter selects which record types a projection keeps.
type Filter string

// FilterAll keeps every record regardless of type.
const FilterAll Filter = "all"

// FilterType keeps only records of type t.
func FilterType(t extraction.RecordType) Filter { return Filter(t) }

// Project orders a queue snapshot for review: records with any
// validation warning come strictly before records with none, and
// within each group lower confidence comes first, so the items most
// in need of human attention lead. Records whose type does not match
// the filter are dropped.
//
// The sort is stable: records with equal warning presence and equal
// confidence keep their relative order from the snapshot. Project is
// pure; it never modifies the snapshot and recomputes from scratch on
// every call.
func Project(snapshot []extraction.Record, filter Filter) []extraction.Record {
	projected := make([]extraction.Record, 0, len(snapshot))
	for _, record := range snapshot {
		if filter == FilterAll || Filter(record.Type) == filter {
			projected = append(projected, record)
		}
	}

	slices.SortStableFunc(projected, func(a, b extraction.Record) int {
		if a.HasWarnings() != b.HasWarnings() {
			if a.HasWarnings() {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Confidence, b.Confidence)
	})
	return projected
}
