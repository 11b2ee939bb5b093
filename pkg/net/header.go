// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import "github.com/go-mysql-org/go-mysql/mysql"

// Header is the first byte of a response packet.
type Header byte

const (
	OKHeader  Header = Header(mysql.OK_HEADER)
	ErrHeader Header = Header(mysql.ERR_HEADER)
	EOFHeader Header = Header(mysql.EOF_HEADER)
)

var headerStrings = map[Header]string{
	OKHeader:  "OK",
	ErrHeader: "ERR",
	EOFHeader: "EOF",
}

func (f Header) Byte() byte {
	return byte(f)
}

func (f Header) String() string {
	if s, ok := headerStrings[f]; ok {
		return s
	}
	return "DATA"
}
