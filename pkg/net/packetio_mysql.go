// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/mysql"
)

// WriteErrPacket writes an Error packet. It's only for testing.
func (p *packetIO) WriteErrPacket(code uint16, message ...any) error {
	data := make([]byte, 0, 9+len(message))
	data = append(data, ErrHeader.Byte())
	data = append(data, byte(code), byte(code>>8))

	data = append(data, '#')
	s, ok := mysql.MySQLState[code]
	if !ok {
		s = mysql.DEFAULT_MYSQL_STATE
	}
	data = append(data, s...)

	var msg string
	if format, ok := mysql.MySQLErrName[code]; ok {
		msg = fmt.Sprintf(format, message...)
	} else {
		msg = fmt.Sprint(message...)
	}
	data = append(data, msg...)
	return p.WritePacket(data, true)
}

// WriteOKPacket writes an OK packet. It's only for testing.
func (p *packetIO) WriteOKPacket(affectedRows, lastInsertID uint64, status uint16) error {
	data := make([]byte, 0, 11)
	data = append(data, OKHeader.Byte())
	data = DumpLengthEncodedInt(data, affectedRows)
	data = DumpLengthEncodedInt(data, lastInsertID)
	// ClientProtocol41 must be enabled.
	data = DumpUint16(data, status)
	data = append(data, 0, 0)
	return p.WritePacket(data, true)
}

// WriteEOFPacket writes an EOF packet. It's only for testing.
func (p *packetIO) WriteEOFPacket(status uint16) error {
	data := make([]byte, 0, 5)
	data = append(data, EOFHeader.Byte())
	data = append(data, 0, 0)
	// ClientProtocol41 must be enabled.
	data = DumpUint16(data, status)
	return p.WritePacket(data, true)
}
