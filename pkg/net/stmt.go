// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"encoding/binary"
	"math"
	"time"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/pingcap/stmtexec/lib/util/errors"
)

// cursor flags of COM_STMT_EXECUTE
const cursorTypeNoCursor = 0x00

// StmtHeader is the first packet of a successful COM_STMT_PREPARE response.
type StmtHeader struct {
	StmtID   uint32
	Columns  uint16
	Params   uint16
	Warnings uint16
}

// ColumnDefinition is a Protocol::ColumnDefinition41 packet.
type ColumnDefinition struct {
	gomysql.Field
}

// Unsigned reports whether the column carries the UNSIGNED flag.
func (c *ColumnDefinition) Unsigned() bool {
	return c.Flag&gomysql.UNSIGNED_FLAG != 0
}

// ResultSetHeader is the first packet of a COM_STMT_EXECUTE response. When
// the statement produces no columns, OK holds the parsed OK packet.
type ResultSetHeader struct {
	Columns uint64
	OK      *gomysql.Result
}

func MakePrepareStmtRequest(sql string) []byte {
	data := make([]byte, 0, 1+len(sql))
	data = append(data, ComStmtPrepare.Byte())
	return append(data, sql...)
}

func MakeCloseStmtRequest(stmtID uint32) []byte {
	data := make([]byte, 0, 5)
	data = append(data, ComStmtClose.Byte())
	return DumpUint32(data, stmtID)
}

func MakeQuitRequest() []byte {
	return []byte{ComQuit.Byte()}
}

// MakeExecuteStmtRequest builds COM_STMT_EXECUTE for a statement with len(args)
// parameters, always sending the parameter types.
func MakeExecuteStmtRequest(stmtID uint32, args []any) ([]byte, error) {
	data := make([]byte, 0, 64)
	data = append(data, ComStmtExecute.Byte())
	data = DumpUint32(data, stmtID)
	data = append(data, cursorTypeNoCursor)
	// iteration count, always 1
	data = DumpUint32(data, 1)
	if len(args) == 0 {
		return data, nil
	}

	nullBitmapOff := len(data)
	data = append(data, make([]byte, (len(args)+7)/8)...)
	// new-params-bound flag
	data = append(data, 0x01)
	typesOff := len(data)
	data = append(data, make([]byte, 2*len(args))...)

	for i, arg := range args {
		tp, unsigned := byte(gomysql.MYSQL_TYPE_NULL), false
		switch v := arg.(type) {
		case nil:
			data[nullBitmapOff+i/8] |= 1 << uint(i%8)
		case int:
			tp = gomysql.MYSQL_TYPE_LONGLONG
			data = DumpUint64(data, uint64(v))
		case int8:
			tp = gomysql.MYSQL_TYPE_TINY
			data = append(data, byte(v))
		case int16:
			tp = gomysql.MYSQL_TYPE_SHORT
			data = DumpUint16(data, uint16(v))
		case int32:
			tp = gomysql.MYSQL_TYPE_LONG
			data = DumpUint32(data, uint32(v))
		case int64:
			tp = gomysql.MYSQL_TYPE_LONGLONG
			data = DumpUint64(data, uint64(v))
		case uint:
			tp, unsigned = gomysql.MYSQL_TYPE_LONGLONG, true
			data = DumpUint64(data, uint64(v))
		case uint8:
			tp, unsigned = gomysql.MYSQL_TYPE_TINY, true
			data = append(data, v)
		case uint16:
			tp, unsigned = gomysql.MYSQL_TYPE_SHORT, true
			data = DumpUint16(data, v)
		case uint32:
			tp, unsigned = gomysql.MYSQL_TYPE_LONG, true
			data = DumpUint32(data, v)
		case uint64:
			tp, unsigned = gomysql.MYSQL_TYPE_LONGLONG, true
			data = DumpUint64(data, v)
		case float32:
			tp = gomysql.MYSQL_TYPE_FLOAT
			data = DumpUint32(data, math.Float32bits(v))
		case float64:
			tp = gomysql.MYSQL_TYPE_DOUBLE
			data = DumpFloat64(data, v)
		case bool:
			tp = gomysql.MYSQL_TYPE_TINY
			if v {
				data = append(data, 1)
			} else {
				data = append(data, 0)
			}
		case string:
			tp = gomysql.MYSQL_TYPE_VAR_STRING
			data = DumpLengthEncodedString(data, []byte(v))
		case []byte:
			if v == nil {
				data[nullBitmapOff+i/8] |= 1 << uint(i%8)
				break
			}
			tp = gomysql.MYSQL_TYPE_BLOB
			data = DumpLengthEncodedString(data, v)
		case time.Time:
			tp = gomysql.MYSQL_TYPE_DATETIME
			data = dumpBinaryDateTime(data, v)
		case time.Duration:
			tp = gomysql.MYSQL_TYPE_TIME
			data = dumpBinaryTime(data, v)
		default:
			return nil, errors.Wrapf(ErrUnsupportedParam, "parameter %d has type %T", i, arg)
		}
		data[typesOff+2*i] = tp
		if unsigned {
			data[typesOff+2*i+1] = 0x80
		}
	}
	return data, nil
}

func dumpBinaryDateTime(data []byte, t time.Time) []byte {
	if t.IsZero() {
		return append(data, 0)
	}
	if t.Nanosecond() == 0 {
		data = append(data, 7)
	} else {
		data = append(data, 11)
	}
	data = DumpUint16(data, uint16(t.Year()))
	data = append(data, byte(t.Month()), byte(t.Day()), byte(t.Hour()), byte(t.Minute()), byte(t.Second()))
	if t.Nanosecond() != 0 {
		data = DumpUint32(data, uint32(t.Nanosecond()/1000))
	}
	return data
}

func dumpBinaryTime(data []byte, d time.Duration) []byte {
	if d == 0 {
		return append(data, 0)
	}
	var neg byte
	if d < 0 {
		neg = 1
		d = -d
	}
	days := uint32(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := byte(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := byte(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := byte(d / time.Second)
	d -= time.Duration(seconds) * time.Second
	micros := uint32(d / time.Microsecond)
	if micros == 0 {
		data = append(data, 8, neg)
	} else {
		data = append(data, 12, neg)
	}
	data = DumpUint32(data, days)
	data = append(data, hours, minutes, seconds)
	if micros != 0 {
		data = DumpUint32(data, micros)
	}
	return data
}

// ParsePrepareStmtResp parses the header packet of a COM_STMT_PREPARE response.
func ParsePrepareStmtResp(data []byte) (*StmtHeader, error) {
	// OK header, statement id, columns, params, filler
	if len(data) < 10 || data[0] != OKHeader.Byte() {
		return nil, errors.Wrapf(ErrMalformPacket, "prepare response of %d bytes", len(data))
	}
	header := &StmtHeader{
		StmtID:  binary.LittleEndian.Uint32(data[1:]),
		Columns: binary.LittleEndian.Uint16(data[5:]),
		Params:  binary.LittleEndian.Uint16(data[7:]),
	}
	if len(data) >= 12 {
		header.Warnings = binary.LittleEndian.Uint16(data[10:])
	}
	return header, nil
}

// MakePrepareStmtResp is the inverse of ParsePrepareStmtResp. It's only used for testing.
func MakePrepareStmtResp(header *StmtHeader) []byte {
	data := []byte{OKHeader.Byte()}
	data = DumpUint32(data, header.StmtID)
	data = DumpUint16(data, header.Columns)
	data = DumpUint16(data, header.Params)
	data = append(data, 0x00)
	return DumpUint16(data, header.Warnings)
}

func ParseColumnDefinition(data []byte) (col *ColumnDefinition, err error) {
	// go-mysql indexes fixed-length fields without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			col, err = nil, errors.Wrapf(ErrMalformPacket, "column definition: %v", r)
		}
	}()
	col = new(ColumnDefinition)
	if err = col.Parse(gomysql.FieldData(data)); err != nil {
		return nil, errors.Wrap(ErrMalformPacket, err)
	}
	return col, nil
}

// ParseResultSetHeader parses the first packet of a result set, which is either
// an OK packet or the column count.
func ParseResultSetHeader(data []byte) (*ResultSetHeader, error) {
	if IsOKPacket(data) {
		ok, err := ParseOKPacket(data)
		if err != nil {
			return nil, err
		}
		return &ResultSetHeader{OK: ok}, nil
	}
	columns, isNull, n := ParseLengthEncodedInt(data)
	if n == 0 || isNull || n != len(data) {
		return nil, errors.Wrapf(ErrMalformPacket, "result set header of %d bytes", len(data))
	}
	return &ResultSetHeader{Columns: columns}, nil
}
