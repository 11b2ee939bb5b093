// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/stretchr/testify/require"
)

func TestPrepareStmtResp(t *testing.T) {
	header := &StmtHeader{StmtID: 5, Columns: 3, Params: 2, Warnings: 1}
	got, err := ParsePrepareStmtResp(MakePrepareStmtResp(header))
	require.NoError(t, err)
	require.Equal(t, header, got)

	// some servers omit the warning count
	got, err = ParsePrepareStmtResp(MakePrepareStmtResp(header)[:10])
	require.NoError(t, err)
	require.Zero(t, got.Warnings)

	_, err = ParsePrepareStmtResp([]byte{OKHeader.Byte(), 1, 0})
	require.ErrorIs(t, err, ErrMalformPacket)
}

func TestSimpleRequests(t *testing.T) {
	require.Equal(t, append([]byte{ComStmtPrepare.Byte()}, "select ?"...), MakePrepareStmtRequest("select ?"))
	require.Equal(t, []byte{ComStmtClose.Byte(), 7, 0, 0, 0}, MakeCloseStmtRequest(7))
	require.Equal(t, []byte{ComQuit.Byte()}, MakeQuitRequest())
}

func TestExecuteStmtRequest(t *testing.T) {
	data, err := MakeExecuteStmtRequest(9, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{ComStmtExecute.Byte(), 9, 0, 0, 0, 0, 1, 0, 0, 0}, data)

	ts := time.Date(2024, 3, 4, 5, 6, 7, 8000, time.UTC)
	args := []any{int64(-1), uint32(2), "abc", nil, 1.5, true, []byte("x"), ts, -(25*time.Hour + time.Second), float32(0.5)}
	data, err = MakeExecuteStmtRequest(9, args)
	require.NoError(t, err)

	pos := 10
	nullBitmap := data[pos : pos+2]
	require.Equal(t, []byte{0x08, 0x00}, nullBitmap)
	pos += 2
	require.EqualValues(t, 1, data[pos])
	pos++
	types := data[pos : pos+2*len(args)]
	pos += 2 * len(args)
	expectedTypes := []struct {
		tp       byte
		unsigned bool
	}{
		{gomysql.MYSQL_TYPE_LONGLONG, false},
		{gomysql.MYSQL_TYPE_LONG, true},
		{gomysql.MYSQL_TYPE_VAR_STRING, false},
		{gomysql.MYSQL_TYPE_NULL, false},
		{gomysql.MYSQL_TYPE_DOUBLE, false},
		{gomysql.MYSQL_TYPE_TINY, false},
		{gomysql.MYSQL_TYPE_BLOB, false},
		{gomysql.MYSQL_TYPE_DATETIME, false},
		{gomysql.MYSQL_TYPE_TIME, false},
		{gomysql.MYSQL_TYPE_FLOAT, false},
	}
	for i, expected := range expectedTypes {
		require.Equal(t, expected.tp, types[2*i], "arg %d", i)
		require.Equal(t, expected.unsigned, types[2*i+1] == 0x80, "arg %d", i)
	}

	require.Equal(t, uint64(math.MaxUint64), binary.LittleEndian.Uint64(data[pos:]))
	pos += 8
	require.EqualValues(t, 2, binary.LittleEndian.Uint32(data[pos:]))
	pos += 4
	str, _, n := ParseLengthEncodedBytes(data[pos:])
	require.Equal(t, []byte("abc"), str)
	pos += n
	require.Equal(t, 1.5, math.Float64frombits(binary.LittleEndian.Uint64(data[pos:])))
	pos += 8
	require.EqualValues(t, 1, data[pos])
	pos++
	str, _, n = ParseLengthEncodedBytes(data[pos:])
	require.Equal(t, []byte("x"), str)
	pos += n
	require.Equal(t, []byte{11, 0xe8, 0x07, 3, 4, 5, 6, 7, 8, 0, 0, 0}, data[pos:pos+12])
	pos += 12
	require.Equal(t, []byte{8, 1, 1, 0, 0, 0, 1, 0, 1}, data[pos:pos+9])
	pos += 9
	require.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(data[pos:])))
	pos += 4
	require.Len(t, data, pos)

	_, err = MakeExecuteStmtRequest(9, []any{struct{}{}})
	require.ErrorIs(t, err, ErrUnsupportedParam)
}

func TestColumnDefinition(t *testing.T) {
	field := &gomysql.Field{
		Schema:  []byte("test"),
		Table:   []byte("t"),
		Name:    []byte("id"),
		OrgName: []byte("id"),
		Charset: 63,
		Type:    gomysql.MYSQL_TYPE_LONGLONG,
		Flag:    gomysql.UNSIGNED_FLAG | gomysql.NOT_NULL_FLAG,
	}
	col, err := ParseColumnDefinition(field.Dump())
	require.NoError(t, err)
	require.Equal(t, []byte("id"), col.Name)
	require.Equal(t, gomysql.MYSQL_TYPE_LONGLONG, col.Type)
	require.True(t, col.Unsigned())

	_, err = ParseColumnDefinition([]byte{0x05, 'a'})
	require.ErrorIs(t, err, ErrMalformPacket)
}

func TestResultSetHeader(t *testing.T) {
	header, err := ParseResultSetHeader(DumpLengthEncodedInt(nil, 3))
	require.NoError(t, err)
	require.EqualValues(t, 3, header.Columns)
	require.Nil(t, header.OK)

	ok := []byte{OKHeader.Byte(), 2, 0}
	ok = DumpUint16(ok, ServerMoreResultsExists)
	ok = DumpUint16(ok, 1)
	header, err = ParseResultSetHeader(ok)
	require.NoError(t, err)
	require.Zero(t, header.Columns)
	require.EqualValues(t, 2, header.OK.AffectedRows)
	require.Equal(t, ServerMoreResultsExists, header.OK.Status)
	require.EqualValues(t, 1, header.OK.Warnings)

	_, err = ParseResultSetHeader([]byte{3, 0})
	require.ErrorIs(t, err, ErrMalformPacket)
	_, err = ParseResultSetHeader(nil)
	require.ErrorIs(t, err, ErrMalformPacket)
}
