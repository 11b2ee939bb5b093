// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"encoding/binary"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/pingcap/stmtexec/lib/util/errors"
	"github.com/siddontang/go/hack"
)

// ParseOKPacket transforms an OK packet into a Result object.
func ParseOKPacket(data []byte) (*gomysql.Result, error) {
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrMalformPacket, "empty OK packet")
	}
	var n int
	var pos = 1
	r := new(gomysql.Result)
	if r.AffectedRows, _, n = ParseLengthEncodedInt(data[pos:]); n == 0 {
		return nil, errors.Wrapf(ErrMalformPacket, "OK packet: affected rows")
	}
	pos += n
	if r.InsertId, _, n = ParseLengthEncodedInt(data[pos:]); n == 0 {
		return nil, errors.Wrapf(ErrMalformPacket, "OK packet: last insert id")
	}
	pos += n
	// Servers without CLIENT_PROTOCOL_41 may omit status and warnings.
	if len(data) >= pos+2 {
		r.Status = binary.LittleEndian.Uint16(data[pos:])
		pos += 2
	}
	if len(data) >= pos+2 {
		r.Warnings = binary.LittleEndian.Uint16(data[pos:])
	}
	return r, nil
}

// ParseErrorPacket transforms an error packet into a MyError object.
func ParseErrorPacket(data []byte) error {
	if len(data) < 3 {
		return errors.Wrapf(ErrMalformPacket, "ERR packet of %d bytes", len(data))
	}
	e := new(gomysql.MyError)
	pos := 1
	e.Code = binary.LittleEndian.Uint16(data[pos:])
	pos += 2
	if len(data) >= pos+6 && data[pos] == '#' {
		pos++
		e.State = hack.String(data[pos : pos+5])
		pos += 5
	}
	e.Message = hack.String(data[pos:])
	return e
}

// ParseEOFPacket returns the warning count and status flags of an EOF packet.
func ParseEOFPacket(data []byte) (warnings, status uint16) {
	if len(data) >= 5 {
		warnings = binary.LittleEndian.Uint16(data[1:])
		status = binary.LittleEndian.Uint16(data[3:])
	}
	return
}

// IsOKPacket returns true if it's an OK packet (but not ResultSet OK).
func IsOKPacket(data []byte) bool {
	return len(data) > 0 && data[0] == OKHeader.Byte()
}

// IsEOFPacket returns true if it's an EOF packet.
// A row packet may also begin with 0xfe, so we need to judge it with the packet length.
func IsEOFPacket(data []byte) bool {
	return len(data) > 0 && data[0] == EOFHeader.Byte() && len(data) <= 5
}

// IsErrorPacket returns true if it's an error packet.
func IsErrorPacket(data []byte) bool {
	return len(data) > 0 && data[0] == ErrHeader.Byte()
}
