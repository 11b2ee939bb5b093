// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	"github.com/pingcap/stmtexec/lib/util/errors"
)

var (
	// ErrProtocol means the server sent a packet that the current phase cannot interpret.
	// The connection is unusable afterwards.
	ErrProtocol = errors.New("protocol violation")
	// ErrParamCount means the arguments do not match the placeholders of the statement.
	ErrParamCount   = errors.New("parameter count mismatch")
	ErrConnBroken   = errors.New("connection is broken")
	ErrConnClosed   = errors.New("connection is closed")
	ErrMalformedRow = errors.New("malformed binary row")
)
