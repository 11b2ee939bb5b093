// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	"strconv"
	"strings"

	pnet "github.com/pingcap/stmtexec/pkg/net"
)

// Signature identifies an ordered column list by the name, type and flags of
// every column. Names are length-prefixed so that separators inside a name
// cannot make two different lists collide.
func Signature(cols []*pnet.ColumnDefinition) string {
	var sb strings.Builder
	for _, col := range cols {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(len(col.Name)))
		sb.WriteByte(':')
		sb.Write(col.Name)
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(col.Type), 10))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(uint64(col.Flag), 10))
	}
	return sb.String()
}
