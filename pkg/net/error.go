// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"github.com/pingcap/stmtexec/lib/util/errors"
)

var (
	ErrReadConn         = errors.New("failed to read the connection")
	ErrWriteConn        = errors.New("failed to write the connection")
	ErrFlushConn        = errors.New("failed to flush the connection")
	ErrCloseConn        = errors.New("failed to close the connection")
	ErrInvalidSequence  = errors.New("invalid sequence")
	ErrMalformPacket    = errors.New("malformed packet")
	ErrUnsupportedParam = errors.New("unsupported parameter type")
)
