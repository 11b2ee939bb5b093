// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import "github.com/go-mysql-org/go-mysql/mysql"

const (
	// MaxPayloadLen is the max packet payload length.
	MaxPayloadLen = 1<<24 - 1

	// ServerMoreResultsExists is set in the status of the OK / EOF packet when
	// another result set follows the current one.
	ServerMoreResultsExists uint16 = mysql.SERVER_MORE_RESULTS_EXISTS
)
