// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import "github.com/pingcap/tidb/pkg/parser"

// normalizeSQL strips literals so that logs don't carry user data.
// The parser may panic on unusual input.
func normalizeSQL(sql string) (normalized string) {
	defer func() {
		if r := recover(); r != nil {
			normalized = ""
		}
	}()
	return parser.Normalize(sql, "ON")
}

func sqlDigest(sql string) (digest string) {
	defer func() {
		if r := recover(); r != nil {
			digest = ""
		}
	}()
	_, d := parser.NormalizeDigest(sql)
	return d.String()
}
