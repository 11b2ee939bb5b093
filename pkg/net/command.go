// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/mysql"
)

// Command is the first byte of a request packet.
type Command byte

// Only the commands sent by the statement executor are listed.
const (
	ComQuit        Command = Command(mysql.COM_QUIT)
	ComStmtPrepare Command = Command(mysql.COM_STMT_PREPARE)
	ComStmtExecute Command = Command(mysql.COM_STMT_EXECUTE)
	ComStmtClose   Command = Command(mysql.COM_STMT_CLOSE)
)

var commandStrs = map[Command]string{
	ComQuit:        "Quit",
	ComStmtPrepare: "StmtPrepare",
	ComStmtExecute: "StmtExecute",
	ComStmtClose:   "StmtClose",
}

func (f Command) Byte() byte {
	return byte(f)
}

func (f Command) String() string {
	if s, ok := commandStrs[f]; ok {
		return s
	}
	return fmt.Sprintf("Not a command: %x", byte(f))
}
