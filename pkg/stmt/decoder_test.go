// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	"math"
	"testing"
	"time"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	pnet "github.com/pingcap/stmtexec/pkg/net"
	"github.com/stretchr/testify/require"
)

func TestDecodeRow(t *testing.T) {
	cols := []*pnet.ColumnDefinition{
		newColumn("i8", gomysql.MYSQL_TYPE_TINY, 0),
		newColumn("u8", gomysql.MYSQL_TYPE_TINY, gomysql.UNSIGNED_FLAG),
		newColumn("i16", gomysql.MYSQL_TYPE_SHORT, 0),
		newColumn("year", gomysql.MYSQL_TYPE_YEAR, gomysql.UNSIGNED_FLAG),
		newColumn("i32", gomysql.MYSQL_TYPE_LONG, 0),
		newColumn("u32", gomysql.MYSQL_TYPE_INT24, gomysql.UNSIGNED_FLAG),
		newColumn("i64", gomysql.MYSQL_TYPE_LONGLONG, 0),
		newColumn("u64", gomysql.MYSQL_TYPE_LONGLONG, gomysql.UNSIGNED_FLAG),
		newColumn("f", gomysql.MYSQL_TYPE_FLOAT, 0),
		newColumn("d", gomysql.MYSQL_TYPE_DOUBLE, 0),
		newColumn("s", gomysql.MYSQL_TYPE_VAR_STRING, 0),
		newColumn("dec", gomysql.MYSQL_TYPE_NEWDECIMAL, 0),
		newColumn("null", gomysql.MYSQL_TYPE_LONGLONG, 0),
		newColumn("dt", gomysql.MYSQL_TYPE_DATETIME, 0),
		newColumn("date", gomysql.MYSQL_TYPE_DATE, 0),
		newColumn("zero", gomysql.MYSQL_TYPE_TIMESTAMP, 0),
		newColumn("time", gomysql.MYSQL_TYPE_TIME, 0),
		newColumn("ntype", gomysql.MYSQL_TYPE_NULL, 0),
	}
	decoder := CompileRowDecoder(cols)
	require.Equal(t, len(cols), decoder.Columns())

	// 18 columns + 2 reserved bits
	nullBitmap := make([]byte, 3)
	nullBitmap[(12+2)/8] |= 1 << ((12 + 2) % 8)
	data := append([]byte{0x00}, nullBitmap...)
	data = append(data, 0xff)
	data = append(data, 0xff)
	data = pnet.DumpUint16(data, uint16(0xfffe))
	data = pnet.DumpUint16(data, 2024)
	data = pnet.DumpUint32(data, uint32(0xfffffffd))
	data = pnet.DumpUint32(data, 70000)
	data = pnet.DumpUint64(data, math.MaxUint64)
	data = pnet.DumpUint64(data, math.MaxUint64)
	data = pnet.DumpUint32(data, math.Float32bits(1.5))
	data = pnet.DumpFloat64(data, -2.25)
	data = pnet.DumpLengthEncodedString(data, []byte("hello"))
	data = pnet.DumpLengthEncodedString(data, []byte("3.14"))
	data = append(data, 11, 0xe8, 0x07, 3, 4, 5, 6, 7)
	data = pnet.DumpUint32(data, 8)
	data = append(data, 4, 0xe8, 0x07, 12, 31)
	data = append(data, 0)
	data = append(data, 12, 1)
	data = pnet.DumpUint32(data, 1)
	data = append(data, 2, 3, 4)
	data = pnet.DumpUint32(data, 5)

	row, err := decoder.Decode(data)
	require.NoError(t, err)
	expected := Row{
		int64(-1),
		uint64(255),
		int64(-2),
		uint64(2024),
		int64(-3),
		uint64(70000),
		int64(-1),
		uint64(math.MaxUint64),
		float32(1.5),
		-2.25,
		[]byte("hello"),
		[]byte("3.14"),
		nil,
		time.Date(2024, 3, 4, 5, 6, 7, 8000, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Time{},
		-(26*time.Hour + 3*time.Minute + 4*time.Second + 5*time.Microsecond),
		nil,
	}
	require.Equal(t, expected, row)

	// values don't alias the packet
	for i := range data {
		data[i] = 0
	}
	require.Equal(t, []byte("hello"), row[10])
}

func TestDecodeMalformedRow(t *testing.T) {
	decoder := CompileRowDecoder([]*pnet.ColumnDefinition{
		newColumn("id", gomysql.MYSQL_TYPE_LONG, 0),
		newColumn("s", gomysql.MYSQL_TYPE_STRING, 0),
	})
	tests := [][]byte{
		nil,
		// EOF header
		{0xfe, 0, 0, 0, 0},
		// no null bitmap
		{0x00},
		// truncated int
		{0x00, 0x00, 1, 2},
		// truncated string
		{0x00, 0x00, 1, 2, 3, 4, 5, 'a'},
		// trailing bytes
		{0x00, 0x00, 1, 2, 3, 4, 1, 'a', 'b'},
	}
	for i, data := range tests {
		_, err := decoder.Decode(data)
		require.ErrorIs(t, err, ErrMalformedRow, "case %d", i)
	}

	decoder = CompileRowDecoder([]*pnet.ColumnDefinition{newColumn("dt", gomysql.MYSQL_TYPE_DATETIME, 0)})
	_, err := decoder.Decode([]byte{0x00, 0x00, 3, 1, 2, 3})
	require.ErrorIs(t, err, ErrMalformedRow)
	decoder = CompileRowDecoder([]*pnet.ColumnDefinition{newColumn("t", gomysql.MYSQL_TYPE_TIME, 0)})
	_, err = decoder.Decode([]byte{0x00, 0x00, 5, 0, 1, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformedRow)
}

func TestDecoderID(t *testing.T) {
	cols := []*pnet.ColumnDefinition{newColumn("id", gomysql.MYSQL_TYPE_LONG, 0)}
	d1, d2 := CompileRowDecoder(cols), CompileRowDecoder(cols)
	require.Greater(t, d2.ID(), d1.ID())

	empty := CompileRowDecoder(nil)
	row, err := empty.Decode([]byte{0x00, 0x00})
	require.NoError(t, err)
	require.Empty(t, row)
}
