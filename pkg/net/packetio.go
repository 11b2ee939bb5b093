// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/pingcap/stmtexec/lib/util/errors"
	"go.uber.org/zap"
)

const (
	defaultWriterSize = 16 * 1024
	defaultReaderSize = 16 * 1024
)

// PacketIO reads and writes MySQL packets. Payloads never include the 4-byte header.
type PacketIO interface {
	ReadPacket() ([]byte, error)
	WritePacket(data []byte, flush bool) error
	ResetSequence()
	Close() error
}

// DeadlineSetter is implemented by transports that can interrupt blocked reads.
type DeadlineSetter interface {
	SetDeadline(t time.Time) error
}

// ByteCounter is implemented by transports that count the bytes they read and write, headers included.
type ByteCounter interface {
	InBytes() uint64
	OutBytes() uint64
}

var _ PacketIO = (*packetIO)(nil)
var _ DeadlineSetter = (*packetIO)(nil)
var _ ByteCounter = (*packetIO)(nil)

// packetIO frames packets over a buffered net.Conn.
type packetIO struct {
	rawConn  net.Conn
	rw       *bufio.ReadWriter
	logger   *zap.Logger
	wrap     error
	sequence uint8
	inBytes  uint64
	outBytes uint64
}

func NewPacketIO(conn net.Conn, lg *zap.Logger, opts ...PacketIOption) *packetIO {
	p := &packetIO{
		rawConn: conn,
		rw:      bufio.NewReadWriter(bufio.NewReaderSize(conn, defaultReaderSize), bufio.NewWriterSize(conn, defaultWriterSize)),
		logger:  lg,
	}
	p.ApplyOpts(opts...)
	return p
}

func (p *packetIO) ApplyOpts(opts ...PacketIOption) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *packetIO) wrapErr(err error) error {
	if p.wrap != nil {
		err = errors.Wrap(p.wrap, err)
	}
	return errors.WithStack(err)
}

func (p *packetIO) ResetSequence() {
	p.sequence = 0
}

// GetSequence is used in tests to assert that the sequences on the client and server are equal.
func (p *packetIO) GetSequence() uint8 {
	return p.sequence
}

func (p *packetIO) readOnePacket() ([]byte, bool, error) {
	var header [4]byte
	if _, err := io.ReadFull(p.rw, header[:]); err != nil {
		return nil, false, errors.Wrap(ErrReadConn, err)
	}
	p.inBytes += 4
	sequence := header[3]
	if sequence != p.sequence {
		return nil, false, errors.Wrapf(ErrInvalidSequence, "expected %d, actual %d", p.sequence, sequence)
	}
	p.sequence++

	length := int(uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16)
	data := make([]byte, length)
	if _, err := io.ReadFull(p.rw, data); err != nil {
		return nil, false, errors.Wrap(ErrReadConn, err)
	}
	p.inBytes += uint64(length)
	return data, length == MaxPayloadLen, nil
}

// ReadPacket reads data and removes the header
func (p *packetIO) ReadPacket() (data []byte, err error) {
	for more := true; more; {
		var buf []byte
		buf, more, err = p.readOnePacket()
		if err != nil {
			err = p.wrapErr(err)
			return
		}
		data = append(data, buf...)
	}
	return data, nil
}

func (p *packetIO) writeOnePacket(data []byte) (int, bool, error) {
	more := false
	length := len(data)
	if length >= MaxPayloadLen {
		// we need another packet, this is true even if
		// the current packet is of len(MaxPayloadLen) exactly
		length = MaxPayloadLen
		more = true
	}

	var header [4]byte
	header[0] = byte(length)
	header[1] = byte(length >> 8)
	header[2] = byte(length >> 16)
	header[3] = p.sequence
	p.sequence++

	if _, err := p.rw.Write(header[:]); err != nil {
		return 0, more, errors.Wrap(ErrWriteConn, err)
	}
	if _, err := p.rw.Write(data[:length]); err != nil {
		return 0, more, errors.Wrap(ErrWriteConn, err)
	}
	p.outBytes += uint64(length) + 4
	return length, more, nil
}

// WritePacket writes data without a header
func (p *packetIO) WritePacket(data []byte, flush bool) (err error) {
	for more := true; more; {
		var n int
		n, more, err = p.writeOnePacket(data)
		if err != nil {
			err = p.wrapErr(err)
			return
		}
		data = data[n:]
	}
	if flush {
		return p.Flush()
	}
	return nil
}

func (p *packetIO) InBytes() uint64 {
	return p.inBytes
}

func (p *packetIO) OutBytes() uint64 {
	return p.outBytes
}

func (p *packetIO) Flush() error {
	if err := p.rw.Flush(); err != nil {
		return p.wrapErr(errors.Wrap(ErrFlushConn, err))
	}
	return nil
}

// SetDeadline interrupts pending reads and writes once t passes.
func (p *packetIO) SetDeadline(t time.Time) error {
	if err := p.rawConn.SetDeadline(t); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.WithStack(err)
	}
	return nil
}

func (p *packetIO) Close() error {
	var errs []error
	if err := p.rawConn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		p.logger.Debug("close connection failed", zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Collect(ErrCloseConn, errs...)
}
