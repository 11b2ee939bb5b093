// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	"encoding/binary"
	"net"
	"strconv"
	"testing"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/pingcap/stmtexec/lib/config"
	"github.com/pingcap/stmtexec/lib/util/logger"
	pnet "github.com/pingcap/stmtexec/pkg/net"
	"github.com/pingcap/stmtexec/pkg/testkit"
)

// serverIO is the server side of a pipe connection.
type serverIO interface {
	pnet.PacketIO
	WriteEOFPacket(status uint16) error
	WriteOKPacket(affectedRows, lastInsertID uint64, status uint16) error
	WriteErrPacket(code uint16, message ...any) error
}

type mockColumn struct {
	name string
	tp   byte
	flag uint16
}

// mockResultSet is answered with an OK packet if it has no columns.
type mockResultSet struct {
	cols         []mockColumn
	rows         [][]any
	affectedRows uint64
	// the packet sent in place of the EOF after the fields
	fieldsEOF []byte
}

type mockStmt struct {
	sql     string
	params  int
	cols    []mockColumn
	results []mockResultSet
	// respond to COM_STMT_EXECUTE with an error
	errCode uint16
	// send a row in place of the EOF after the parameters
	paramsEOF []byte
	// send a row in place of the EOF after the fields
	colsEOF []byte
	// never respond to COM_STMT_EXECUTE
	hang bool
}

type receivedCmd struct {
	cmd    pnet.Command
	stmtID uint32
	sql    string
}

type mockBackend struct {
	stmts    []*mockStmt
	byID     map[uint32]*mockStmt
	nextID   uint32
	received []receivedCmd
}

func newMockBackend(stmts ...*mockStmt) *mockBackend {
	return &mockBackend{
		stmts:  stmts,
		byID:   make(map[uint32]*mockStmt),
		nextID: 1,
	}
}

func (mb *mockBackend) commands() []pnet.Command {
	cmds := make([]pnet.Command, 0, len(mb.received))
	for _, r := range mb.received {
		cmds = append(cmds, r.cmd)
	}
	return cmds
}

// serve answers commands until the client quits or the connection breaks.
func (mb *mockBackend) serve(pkt serverIO) error {
	for {
		pkt.ResetSequence()
		data, err := pkt.ReadPacket()
		if err != nil {
			return err
		}
		cmd := pnet.Command(data[0])
		switch cmd {
		case pnet.ComQuit:
			mb.received = append(mb.received, receivedCmd{cmd: cmd})
			return nil
		case pnet.ComStmtPrepare:
			sql := string(data[1:])
			mb.received = append(mb.received, receivedCmd{cmd: cmd, sql: sql})
			err = mb.respondPrepare(pkt, sql)
		case pnet.ComStmtExecute:
			stmtID := binary.LittleEndian.Uint32(data[1:])
			mb.received = append(mb.received, receivedCmd{cmd: cmd, stmtID: stmtID})
			err = mb.respondExecute(pkt, stmtID)
		case pnet.ComStmtClose:
			mb.received = append(mb.received, receivedCmd{cmd: cmd, stmtID: binary.LittleEndian.Uint32(data[1:])})
		default:
			err = pkt.WriteErrPacket(gomysql.ER_UNKNOWN_COM_ERROR)
		}
		if err != nil {
			return err
		}
	}
}

func (mb *mockBackend) findStmt(sql string) *mockStmt {
	for _, s := range mb.stmts {
		if s.sql == sql {
			return s
		}
	}
	return nil
}

func (mb *mockBackend) respondPrepare(pkt serverIO, sql string) error {
	s := mb.findStmt(sql)
	if s == nil {
		return pkt.WriteErrPacket(gomysql.ER_PARSE_ERROR, "syntax error", sql, 1)
	}
	id := mb.nextID
	mb.nextID++
	mb.byID[id] = s
	header := &pnet.StmtHeader{StmtID: id, Columns: uint16(len(s.cols)), Params: uint16(s.params)}
	if err := pkt.WritePacket(pnet.MakePrepareStmtResp(header), s.params == 0 && len(s.cols) == 0); err != nil {
		return err
	}
	if s.params > 0 {
		for i := 0; i < s.params; i++ {
			if err := pkt.WritePacket(dumpColumn(mockColumn{name: "?", tp: gomysql.MYSQL_TYPE_LONGLONG, flag: gomysql.BINARY_FLAG}), false); err != nil {
				return err
			}
		}
		if s.paramsEOF != nil {
			if err := pkt.WritePacket(s.paramsEOF, true); err != nil {
				return err
			}
		} else if err := pkt.WriteEOFPacket(0); err != nil {
			return err
		}
	}
	if len(s.cols) > 0 {
		for _, col := range s.cols {
			if err := pkt.WritePacket(dumpColumn(col), false); err != nil {
				return err
			}
		}
		if s.colsEOF != nil {
			if err := pkt.WritePacket(s.colsEOF, true); err != nil {
				return err
			}
		} else if err := pkt.WriteEOFPacket(0); err != nil {
			return err
		}
	}
	return nil
}

func (mb *mockBackend) respondExecute(pkt serverIO, stmtID uint32) error {
	s, ok := mb.byID[stmtID]
	if !ok {
		return pkt.WriteErrPacket(gomysql.ER_UNKNOWN_STMT_HANDLER, 10, strconv.Itoa(int(stmtID)), "stmt_execute")
	}
	if s.hang {
		return nil
	}
	if s.errCode > 0 {
		return pkt.WriteErrPacket(s.errCode, "test", "t")
	}
	for i, rs := range s.results {
		var status uint16
		if i < len(s.results)-1 {
			status |= pnet.ServerMoreResultsExists
		}
		if len(rs.cols) == 0 {
			if err := pkt.WriteOKPacket(rs.affectedRows, 0, status); err != nil {
				return err
			}
			continue
		}
		if err := pkt.WritePacket(pnet.DumpLengthEncodedInt(nil, uint64(len(rs.cols))), false); err != nil {
			return err
		}
		for _, col := range rs.cols {
			if err := pkt.WritePacket(dumpColumn(col), false); err != nil {
				return err
			}
		}
		if rs.fieldsEOF != nil {
			if err := pkt.WritePacket(rs.fieldsEOF, false); err != nil {
				return err
			}
		} else if err := pkt.WriteEOFPacket(0); err != nil {
			return err
		}
		for _, row := range rs.rows {
			if err := pkt.WritePacket(dumpBinaryRow(row), false); err != nil {
				return err
			}
		}
		if err := pkt.WriteEOFPacket(status); err != nil {
			return err
		}
	}
	return nil
}

func dumpColumn(col mockColumn) []byte {
	field := &gomysql.Field{
		Schema:  []byte("test"),
		Table:   []byte("t"),
		Name:    []byte(col.name),
		OrgName: []byte(col.name),
		Charset: 63,
		Type:    col.tp,
		Flag:    col.flag,
	}
	return field.Dump()
}

// dumpBinaryRow encodes int64, uint64, string and nil values.
func dumpBinaryRow(values []any) []byte {
	nullBitmap := make([]byte, (len(values)+7+2)/8)
	var body []byte
	for i, value := range values {
		switch v := value.(type) {
		case nil:
			nullBitmap[(i+2)/8] |= 1 << uint((i+2)%8)
		case int64:
			body = pnet.DumpUint64(body, uint64(v))
		case uint64:
			body = pnet.DumpUint64(body, v)
		case string:
			body = pnet.DumpLengthEncodedString(body, []byte(v))
		}
	}
	data := append([]byte{0x00}, nullBitmap...)
	return append(data, body...)
}

var (
	colID   = mockColumn{name: "id", tp: gomysql.MYSQL_TYPE_LONGLONG, flag: gomysql.NOT_NULL_FLAG}
	colName = mockColumn{name: "name", tp: gomysql.MYSQL_TYPE_VAR_STRING}
)

// runConn runs client against a Conn that talks to the backend.
func runConn(t *testing.T, backend *mockBackend, capacity int, client func(t *testing.T, conn *Conn)) {
	lg, _ := logger.CreateLoggerForTest(t)
	testkit.TestPipeConn(t,
		func(t *testing.T, c net.Conn) {
			conn := NewConn(pnet.NewPacketIO(c, lg), lg, config.Stmt{CacheCapacity: capacity})
			client(t, conn)
			_ = conn.Close()
		},
		func(t *testing.T, c net.Conn) {
			_ = backend.serve(pnet.NewPacketIO(c, lg))
		},
		1,
	)
}
