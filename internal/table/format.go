// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"strconv"
	"time"
)

// DateLayout renders times that fall exactly on a UTC midnight.
const DateLayout = "2006-01-02"

// Text renders a cell value as plain text. Null renders as "".
func Text(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	case time.Time:
		if tv.Equal(tv.Truncate(24 * time.Hour)) {
			return tv.Format(DateLayout)
		}
		return tv.Format(time.RFC3339Nano)
	default:
		return ""
	}
}
