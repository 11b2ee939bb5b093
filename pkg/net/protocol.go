// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"bytes"
	"encoding/binary"
	"math"
)

// ParseLengthEncodedInt decodes a length-encoded integer. n is 0 when b is too short.
func ParseLengthEncodedInt(b []byte) (num uint64, isNull bool, n int) {
	if len(b) == 0 {
		return 0, false, 0
	}
	switch b[0] {
	// 251: NULL
	case 0xfb:
		return 0, true, 1
	// 252: value of following 2
	case 0xfc:
		if len(b) < 3 {
			return 0, false, 0
		}
		return uint64(binary.LittleEndian.Uint16(b[1:])), false, 3
	// 253: value of following 3
	case 0xfd:
		if len(b) < 4 {
			return 0, false, 0
		}
		return uint64(b[1]) | uint64(b[2])<<8 | uint64(b[3])<<16, false, 4
	// 254: value of following 8
	case 0xfe:
		if len(b) < 9 {
			return 0, false, 0
		}
		return binary.LittleEndian.Uint64(b[1:]), false, 9
	}
	// 0-250: value of first byte
	return uint64(b[0]), false, 1
}

// ParseLengthEncodedBytes decodes a length-encoded string. n is 0 when b is too short.
func ParseLengthEncodedBytes(b []byte) (data []byte, isNull bool, n int) {
	num, isNull, off := ParseLengthEncodedInt(b)
	if off == 0 || isNull {
		return nil, isNull, off
	}
	if num > uint64(len(b)-off) {
		return nil, false, 0
	}
	end := off + int(num)
	return b[off:end], false, end
}

func ParseNullTermString(b []byte) (str []byte, remain []byte) {
	off := bytes.IndexByte(b, 0)
	if off == -1 {
		return nil, b
	}
	return b[:off], b[off+1:]
}

func DumpLengthEncodedInt(buffer []byte, n uint64) []byte {
	switch {
	case n <= 250:
		return append(buffer, byte(n))
	case n <= 0xffff:
		return append(buffer, 0xfc, byte(n), byte(n>>8))
	case n <= 0xffffff:
		return append(buffer, 0xfd, byte(n), byte(n>>8), byte(n>>16))
	}
	buffer = append(buffer, 0xfe)
	return binary.LittleEndian.AppendUint64(buffer, n)
}

func DumpLengthEncodedString(buffer []byte, data []byte) []byte {
	buffer = DumpLengthEncodedInt(buffer, uint64(len(data)))
	return append(buffer, data...)
}

func DumpUint16(buffer []byte, n uint16) []byte {
	return binary.LittleEndian.AppendUint16(buffer, n)
}

func DumpUint32(buffer []byte, n uint32) []byte {
	return binary.LittleEndian.AppendUint32(buffer, n)
}

func DumpUint64(buffer []byte, n uint64) []byte {
	return binary.LittleEndian.AppendUint64(buffer, n)
}

func DumpFloat64(buffer []byte, f float64) []byte {
	return DumpUint64(buffer, math.Float64bits(f))
}
