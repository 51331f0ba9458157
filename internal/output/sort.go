// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/propcache/internal/table"
)

type sortKey struct {
	idx        int
	descending bool
	caseSens   bool
}

// SortTable returns a copy of tbl ordered by spec, a comma-separated list of
// column names. A leading '-' sorts that column descending and a leading '!'
// compares strings case sensitively. Nulls always sort last. Unknown columns
// are ignored.
func SortTable(tbl *table.Table, spec string) (*table.Table, error) {
	schema := tbl.Schema()

	var keys []sortKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		k := sortKey{}
		for len(part) > 0 && (part[0] == '-' || part[0] == '!') {
			if part[0] == '-' {
				k.descending = true
			} else {
				k.caseSens = true
			}
			part = part[1:]
		}

		k.idx = schema.Index(part)
		if k.idx < 0 {
			log.Warnf("sort key not found: %s", part)
			continue
		}
		keys = append(keys, k)
	}

	order := make([]int, tbl.Len())
	for i := range order {
		order[i] = i
	}

	if len(keys) > 0 {
		rows := make([][]any, tbl.Len())
		for i := range rows {
			rows[i] = tbl.Row(i)
		}

		sort.SliceStable(order, func(a, b int) bool {
			ra, rb := rows[order[a]], rows[order[b]]
			for _, k := range keys {
				c := compare(ra[k.idx], rb[k.idx], k.caseSens)
				if c == 0 {
					continue
				}
				// Nulls stay at the bottom in either direction.
				if ra[k.idx] == nil || rb[k.idx] == nil {
					return c < 0
				}
				if k.descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	b := table.NewBuilder(schema)
	for _, i := range order {
		if err := b.Append(tbl.Row(i)...); err != nil {
			return nil, fmt.Errorf("failed to sort: %w", err)
		}
	}
	return b.Build()
}

// compare orders two cells of the same column. A null is greater than any
// value.
func compare(a, b any, caseSens bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch av := a.(type) {
	case string:
		bv := b.(string)
		if !caseSens {
			av, bv = strings.ToLower(av), strings.ToLower(bv)
		}
		return strings.Compare(av, bv)
	case int64:
		return cmp.Compare(av, b.(int64))
	case float64:
		return cmp.Compare(av, b.(float64))
	case time.Time:
		return av.Compare(b.(time.Time))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	}
	return 0
}
