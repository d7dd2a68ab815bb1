// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package spec

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration accepts everything time.ParseDuration does ("300s", "2h")
// plus a trailing day suffix ("2d"), which no stdlib parser or example in
// this repo's dependency pack supplies. Only a single integer day count is
// supported; combine with other units by converting up front in the spec
// ("2d12h" is not accepted).
func ParseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
