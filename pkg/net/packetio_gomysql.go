// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"net"
	"time"

	"github.com/go-mysql-org/go-mysql/packet"
	"github.com/pingcap/stmtexec/lib/util/errors"
)

var _ PacketIO = (*goMySQLPacketIO)(nil)
var _ DeadlineSetter = (*goMySQLPacketIO)(nil)

// goMySQLPacketIO adapts a go-mysql packet connection, typically one that a
// go-mysql client has already authenticated.
type goMySQLPacketIO struct {
	conn *packet.Conn
}

func NewGoMySQLPacketIO(conn *packet.Conn) *goMySQLPacketIO {
	return &goMySQLPacketIO{conn: conn}
}

func (p *goMySQLPacketIO) ReadPacket() ([]byte, error) {
	data, err := p.conn.ReadPacket()
	if err != nil {
		return nil, errors.WithStack(errors.Wrap(ErrReadConn, err))
	}
	return data, nil
}

// WritePacket ignores flush because go-mysql writes each packet through.
func (p *goMySQLPacketIO) WritePacket(data []byte, _ bool) error {
	// go-mysql fills the header in place.
	buf := make([]byte, 4, 4+len(data))
	buf = append(buf, data...)
	if err := p.conn.WritePacket(buf); err != nil {
		return errors.WithStack(errors.Wrap(ErrWriteConn, err))
	}
	return nil
}

func (p *goMySQLPacketIO) ResetSequence() {
	p.conn.ResetSequence()
}

func (p *goMySQLPacketIO) SetDeadline(t time.Time) error {
	if err := p.conn.SetDeadline(t); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.WithStack(err)
	}
	return nil
}

func (p *goMySQLPacketIO) Close() error {
	if err := p.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Collect(ErrCloseConn, err)
	}
	return nil
}
