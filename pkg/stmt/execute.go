// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	"github.com/pingcap/stmtexec/lib/util/errors"
	"github.com/pingcap/stmtexec/pkg/metrics"
	pnet "github.com/pingcap/stmtexec/pkg/net"
	"go.uber.org/zap"
)

// execState is the phase of an execution, i.e. what the next packet is expected to be.
type execState int

const (
	stateStart execState = iota
	statePrepareHeader
	stateReadParameter
	stateParametersEOF
	stateReadField
	stateFieldsEOF
	stateResultSetHeader
	stateReadResultField
	stateResultFieldsEOF
	stateRow
	stateDone
)

func (s execState) String() string {
	switch s {
	case stateStart:
		return "Start"
	case statePrepareHeader:
		return "PrepareHeader"
	case stateReadParameter:
		return "ReadParameter"
	case stateParametersEOF:
		return "ParametersEOF"
	case stateReadField:
		return "ReadField"
	case stateFieldsEOF:
		return "FieldsEOF"
	case stateResultSetHeader:
		return "ResultSetHeader"
	case stateReadResultField:
		return "ReadResultField"
	case stateResultFieldsEOF:
		return "ResultFieldsEOF"
	case stateRow:
		return "Row"
	case stateDone:
		return "Done"
	}
	return "Unknown"
}

// executor drives one Execute call. It's owned by the call and dropped afterwards.
type executor struct {
	conn  *Conn
	sql   string
	args  []any
	opts  executeOptions
	state execState

	// info is the cached statement, or the staged one until the prepare
	// response is complete.
	info   *PreparedStatementInfo
	header *pnet.StmtHeader
	params []*pnet.ColumnDefinition
	fields []*pnet.ColumnDefinition

	// the result set being read
	resultFieldCount int
	readFields       int
	resultFields     []*pnet.ColumnDefinition
	trustCached      bool
	decoder          *RowDecoder
	current          *ResultSet
	result           Result
}

func newExecutor(conn *Conn, sql string, args []any, opts []ExecuteOption) *executor {
	e := &executor{
		conn:  conn,
		sql:   sql,
		args:  args,
		state: stateStart,
	}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

// start sends the first request. A cached statement is executed directly.
func (e *executor) start() error {
	if info, ok := e.conn.stmts.Get(e.sql); ok {
		metrics.StmtCacheCounter.WithLabelValues(metrics.LblHit).Inc()
		e.conn.stats.stmtCacheHits.Inc()
		e.info = info
		if err := e.checkParamCount(); err != nil {
			return err
		}
		return e.dispatch()
	}
	metrics.StmtCacheCounter.WithLabelValues(metrics.LblMiss).Inc()
	e.conn.stats.prepares.Inc()
	if err := e.conn.writeCommand(pnet.MakePrepareStmtRequest(e.sql)); err != nil {
		return err
	}
	e.state = statePrepareHeader
	return nil
}

// handle consumes the next packet of the response and moves to the next state.
func (e *executor) handle(pkt []byte) error {
	switch e.state {
	case statePrepareHeader:
		return e.handlePrepareHeader(pkt)
	case stateReadParameter:
		col, err := parseColumn(pkt)
		if err != nil {
			return err
		}
		e.params = append(e.params, col)
		if len(e.params) == int(e.header.Params) {
			e.state = stateParametersEOF
		}
		return nil
	case stateParametersEOF:
		if !pnet.IsEOFPacket(pkt) {
			return errors.Wrapf(ErrProtocol, "expected EOF after %d parameter definitions", len(e.params))
		}
		if e.header.Columns > 0 {
			e.state = stateReadField
			return nil
		}
		return e.commitStatement()
	case stateReadField:
		col, err := parseColumn(pkt)
		if err != nil {
			return err
		}
		e.fields = append(e.fields, col)
		if len(e.fields) == int(e.header.Columns) {
			e.info.attachDecoder(e.fields, e.resolveDecoder(e.fields))
			e.state = stateFieldsEOF
		}
		return nil
	case stateFieldsEOF:
		if !pnet.IsEOFPacket(pkt) {
			return errors.Wrapf(ErrProtocol, "expected EOF after %d field definitions", len(e.fields))
		}
		return e.commitStatement()
	case stateResultSetHeader:
		return e.handleResultSetHeader(pkt)
	case stateReadResultField:
		e.readFields++
		if !e.trustCached {
			col, err := parseColumn(pkt)
			if err != nil {
				return err
			}
			e.resultFields = append(e.resultFields, col)
		}
		if e.readFields == e.resultFieldCount {
			e.adoptFields()
			e.state = stateResultFieldsEOF
		}
		return nil
	case stateResultFieldsEOF:
		if !pnet.IsEOFPacket(pkt) {
			return errors.Wrapf(ErrProtocol, "expected EOF after %d result fields", e.resultFieldCount)
		}
		e.state = stateRow
		return nil
	case stateRow:
		return e.handleRow(pkt)
	}
	return errors.Wrapf(ErrProtocol, "unexpected packet in state %s", e.state)
}

func (e *executor) handlePrepareHeader(pkt []byte) error {
	if pnet.IsErrorPacket(pkt) {
		return pnet.ParseErrorPacket(pkt)
	}
	header, err := pnet.ParsePrepareStmtResp(pkt)
	if err != nil {
		return errors.Wrap(ErrProtocol, err)
	}
	e.header = header
	e.info = &PreparedStatementInfo{
		StmtID:     header.StmtID,
		ParamCount: int(header.Params),
		FieldCount: int(header.Columns),
	}
	switch {
	case header.Params > 0:
		e.state = stateReadParameter
	case header.Columns > 0:
		e.state = stateReadField
	default:
		return e.commitStatement()
	}
	return nil
}

// commitStatement caches the statement once its metadata is complete and then
// executes it. The statement stays cached even if the arguments don't fit.
func (e *executor) commitStatement() error {
	e.info.Params = e.params
	e.info = e.conn.stmts.Add(e.sql, e.info)
	e.conn.logPrepared(e.sql, e.info)
	if err := e.checkParamCount(); err != nil {
		return err
	}
	return e.dispatch()
}

func (e *executor) checkParamCount() error {
	if len(e.args) != e.info.ParamCount {
		return errors.Wrapf(ErrParamCount, "statement %d expects %d parameters, got %d", e.info.StmtID, e.info.ParamCount, len(e.args))
	}
	return nil
}

func (e *executor) dispatch() error {
	request, err := pnet.MakeExecuteStmtRequest(e.info.StmtID, e.args)
	if err != nil {
		return err
	}
	e.conn.stats.executions.Inc()
	if err := e.conn.writeCommand(request); err != nil {
		return err
	}
	e.state = stateResultSetHeader
	return nil
}

func (e *executor) handleResultSetHeader(pkt []byte) error {
	if pnet.IsErrorPacket(pkt) {
		return pnet.ParseErrorPacket(pkt)
	}
	header, err := pnet.ParseResultSetHeader(pkt)
	if err != nil {
		return errors.Wrap(ErrProtocol, err)
	}
	if header.OK != nil {
		rs := &ResultSet{OK: header.OK}
		if e.opts.observer.OnFields != nil {
			e.opts.observer.OnFields(len(e.result.Sets), nil)
		}
		e.finishResultSet(rs, header.OK.Status)
		return nil
	}
	e.resultFieldCount = int(header.Columns)
	e.readFields = 0
	e.resultFields = nil
	// The server sends the fields again but the ones from the prepare
	// response are trusted, unless the layout obviously differs.
	// A different column count means another result set of a CALL that the
	// cached decoder cannot read at all. Drift that keeps the count is still trusted.
	decoder := e.info.Decoder()
	e.trustCached = decoder != nil && decoder.Columns() == e.resultFieldCount
	e.state = stateReadResultField
	return nil
}

func (e *executor) adoptFields() {
	var fields []*pnet.ColumnDefinition
	if e.trustCached {
		fields, e.decoder = e.info.Fields, e.info.Decoder()
	} else {
		fields, e.decoder = e.resultFields, e.resolveDecoder(e.resultFields)
	}
	e.current = &ResultSet{Fields: fields}
	if e.opts.observer.OnFields != nil {
		e.opts.observer.OnFields(len(e.result.Sets), fields)
	}
}

func (e *executor) handleRow(pkt []byte) error {
	switch {
	case pnet.IsEOFPacket(pkt):
		_, status := pnet.ParseEOFPacket(pkt)
		rs := e.current
		e.current, e.decoder = nil, nil
		e.finishResultSet(rs, status)
		return nil
	case pnet.IsErrorPacket(pkt):
		return pnet.ParseErrorPacket(pkt)
	}
	row, err := e.decoder.Decode(pkt)
	if err != nil {
		return errors.Wrap(ErrProtocol, err)
	}
	e.current.Rows = append(e.current.Rows, row)
	return nil
}

func (e *executor) finishResultSet(rs *ResultSet, status uint16) {
	idx := len(e.result.Sets)
	e.result.Sets = append(e.result.Sets, rs)
	metrics.ResultSetCounter.Inc()
	if e.opts.observer.OnResult != nil {
		e.opts.observer.OnResult(idx, rs)
	}
	if status&pnet.ServerMoreResultsExists != 0 {
		e.state = stateResultSetHeader
		return
	}
	e.state = stateDone
}

// resolveDecoder shares the decoder of an identical column layout, or compiles one.
// A decoder only depends on the fields so it's cached even if a later phase fails.
func (e *executor) resolveDecoder(fields []*pnet.ColumnDefinition) *RowDecoder {
	signature := Signature(fields)
	if decoder, ok := e.conn.parsers.Get(signature); ok {
		metrics.ParserCacheCounter.WithLabelValues(metrics.LblHit).Inc()
		e.conn.stats.parserCacheHits.Inc()
		return decoder
	}
	metrics.ParserCacheCounter.WithLabelValues(metrics.LblMiss).Inc()
	decoder := e.conn.parsers.Add(signature, CompileRowDecoder(fields))
	e.conn.lg.Debug("compiled row decoder", zap.Uint64("decoder", decoder.ID()), zap.Int("columns", len(fields)))
	return decoder
}

func parseColumn(pkt []byte) (*pnet.ColumnDefinition, error) {
	col, err := pnet.ParseColumnDefinition(pkt)
	if err != nil {
		return nil, errors.Wrap(ErrProtocol, err)
	}
	return col, nil
}
