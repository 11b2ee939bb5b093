// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	"encoding/binary"
	"math"
	"time"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/pingcap/stmtexec/lib/util/errors"
	pnet "github.com/pingcap/stmtexec/pkg/net"
	"go.uber.org/atomic"
)

// The first 2 bits of the null bitmap of a binary row are reserved.
const rowNullBitmapOffset = 2

var decoderID atomic.Uint64

// Row is one decoded binary row. A NULL column is nil.
type Row []any

// valueReader reads one non-NULL value from the head of data and returns the
// number of bytes consumed. ok is false if data is too short.
type valueReader func(data []byte) (v any, n int, ok bool)

// RowDecoder decodes binary protocol rows of a fixed column layout.
// It is immutable and can be shared by every statement with the same Signature.
type RowDecoder struct {
	id      uint64
	readers []valueReader
}

// CompileRowDecoder picks a value reader for every column.
func CompileRowDecoder(cols []*pnet.ColumnDefinition) *RowDecoder {
	d := &RowDecoder{
		id:      decoderID.Inc(),
		readers: make([]valueReader, 0, len(cols)),
	}
	for _, col := range cols {
		d.readers = append(d.readers, readerFor(col.Type, col.Unsigned()))
	}
	return d
}

// ID distinguishes decoders compiled separately.
func (d *RowDecoder) ID() uint64 {
	return d.id
}

func (d *RowDecoder) Columns() int {
	return len(d.readers)
}

func (d *RowDecoder) Decode(data []byte) (Row, error) {
	if len(data) == 0 || data[0] != pnet.OKHeader.Byte() {
		return nil, errors.Wrapf(ErrMalformedRow, "unexpected row header")
	}
	pos := 1
	nullBitmapLen := (len(d.readers) + 7 + rowNullBitmapOffset) / 8
	if len(data) < pos+nullBitmapLen {
		return nil, errors.Wrapf(ErrMalformedRow, "row of %d bytes is shorter than the null bitmap", len(data))
	}
	nullBitmap := data[pos : pos+nullBitmapLen]
	pos += nullBitmapLen

	row := make(Row, len(d.readers))
	for i, read := range d.readers {
		bit := i + rowNullBitmapOffset
		if nullBitmap[bit/8]&(1<<uint(bit%8)) != 0 {
			continue
		}
		v, n, ok := read(data[pos:])
		if !ok {
			return nil, errors.Wrapf(ErrMalformedRow, "column %d is truncated", i)
		}
		row[i] = v
		pos += n
	}
	if pos != len(data) {
		return nil, errors.Wrapf(ErrMalformedRow, "%d trailing bytes", len(data)-pos)
	}
	return row, nil
}

func readerFor(tp byte, unsigned bool) valueReader {
	switch tp {
	case gomysql.MYSQL_TYPE_NULL:
		return readNull
	case gomysql.MYSQL_TYPE_TINY:
		if unsigned {
			return readUint8
		}
		return readInt8
	case gomysql.MYSQL_TYPE_SHORT, gomysql.MYSQL_TYPE_YEAR:
		if unsigned {
			return readUint16
		}
		return readInt16
	case gomysql.MYSQL_TYPE_INT24, gomysql.MYSQL_TYPE_LONG:
		if unsigned {
			return readUint32
		}
		return readInt32
	case gomysql.MYSQL_TYPE_LONGLONG:
		if unsigned {
			return readUint64
		}
		return readInt64
	case gomysql.MYSQL_TYPE_FLOAT:
		return readFloat32
	case gomysql.MYSQL_TYPE_DOUBLE:
		return readFloat64
	case gomysql.MYSQL_TYPE_DATE, gomysql.MYSQL_TYPE_NEWDATE, gomysql.MYSQL_TYPE_DATETIME, gomysql.MYSQL_TYPE_TIMESTAMP:
		return readDateTime
	case gomysql.MYSQL_TYPE_TIME:
		return readDuration
	}
	// strings, decimals, bits, enums, sets, json and geometry
	return readBytes
}

func readNull([]byte) (any, int, bool) {
	return nil, 0, true
}

func readInt8(data []byte) (any, int, bool) {
	if len(data) < 1 {
		return nil, 0, false
	}
	return int64(int8(data[0])), 1, true
}

func readUint8(data []byte) (any, int, bool) {
	if len(data) < 1 {
		return nil, 0, false
	}
	return uint64(data[0]), 1, true
}

func readInt16(data []byte) (any, int, bool) {
	if len(data) < 2 {
		return nil, 0, false
	}
	return int64(int16(binary.LittleEndian.Uint16(data))), 2, true
}

func readUint16(data []byte) (any, int, bool) {
	if len(data) < 2 {
		return nil, 0, false
	}
	return uint64(binary.LittleEndian.Uint16(data)), 2, true
}

func readInt32(data []byte) (any, int, bool) {
	if len(data) < 4 {
		return nil, 0, false
	}
	return int64(int32(binary.LittleEndian.Uint32(data))), 4, true
}

func readUint32(data []byte) (any, int, bool) {
	if len(data) < 4 {
		return nil, 0, false
	}
	return uint64(binary.LittleEndian.Uint32(data)), 4, true
}

func readInt64(data []byte) (any, int, bool) {
	if len(data) < 8 {
		return nil, 0, false
	}
	return int64(binary.LittleEndian.Uint64(data)), 8, true
}

func readUint64(data []byte) (any, int, bool) {
	if len(data) < 8 {
		return nil, 0, false
	}
	return binary.LittleEndian.Uint64(data), 8, true
}

func readFloat32(data []byte) (any, int, bool) {
	if len(data) < 4 {
		return nil, 0, false
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data)), 4, true
}

func readFloat64(data []byte) (any, int, bool) {
	if len(data) < 8 {
		return nil, 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8, true
}

func readBytes(data []byte) (any, int, bool) {
	str, isNull, n := pnet.ParseLengthEncodedBytes(data)
	if n == 0 || isNull {
		return nil, 0, false
	}
	// the packet buffer is not retained
	return append([]byte{}, str...), n, true
}

// readDateTime reads DATE, DATETIME and TIMESTAMP values in UTC.
func readDateTime(data []byte) (any, int, bool) {
	if len(data) < 1 {
		return nil, 0, false
	}
	length := int(data[0])
	if len(data) < 1+length {
		return nil, 0, false
	}
	var (
		year, day, hour, minute, sec, usec int
		month                              time.Month
	)
	b := data[1 : 1+length]
	switch length {
	case 0:
		return time.Time{}, 1, true
	case 11:
		usec = int(binary.LittleEndian.Uint32(b[7:]))
		fallthrough
	case 7:
		hour, minute, sec = int(b[4]), int(b[5]), int(b[6])
		fallthrough
	case 4:
		year = int(binary.LittleEndian.Uint16(b))
		month, day = time.Month(b[2]), int(b[3])
	default:
		return nil, 0, false
	}
	return time.Date(year, month, day, hour, minute, sec, usec*1000, time.UTC), 1 + length, true
}

func readDuration(data []byte) (any, int, bool) {
	if len(data) < 1 {
		return nil, 0, false
	}
	length := int(data[0])
	if len(data) < 1+length {
		return nil, 0, false
	}
	var d time.Duration
	b := data[1 : 1+length]
	switch length {
	case 0:
		return d, 1, true
	case 12:
		d += time.Duration(binary.LittleEndian.Uint32(b[8:])) * time.Microsecond
		fallthrough
	case 8:
		d += time.Duration(binary.LittleEndian.Uint32(b[1:])) * 24 * time.Hour
		d += time.Duration(b[5])*time.Hour + time.Duration(b[6])*time.Minute + time.Duration(b[7])*time.Second
	default:
		return nil, 0, false
	}
	if b[0] == 1 {
		d = -d
	}
	return d, 1 + length, true
}
