// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	"context"
	"sync"
	"time"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/pingcap/stmtexec/lib/config"
	"github.com/pingcap/stmtexec/lib/util/errors"
	"github.com/pingcap/stmtexec/pkg/metrics"
	pnet "github.com/pingcap/stmtexec/pkg/net"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Stats is a snapshot of the counters of a Conn.
type Stats struct {
	Executions      uint64
	Prepares        uint64
	StmtCacheHits   uint64
	ParserCacheHits uint64
}

type connStats struct {
	executions      atomic.Uint64
	prepares        atomic.Uint64
	stmtCacheHits   atomic.Uint64
	parserCacheHits atomic.Uint64
}

// Conn executes prepared statements over an authenticated connection and
// caches the statements and row decoders for the lifetime of the connection.
// Calls are serialized.
type Conn struct {
	mu      sync.Mutex
	pkt     pnet.PacketIO
	lg      *zap.Logger
	stmts   *StatementCache
	parsers *ParserCache
	stats   connStats
	// broken is set once the response stream can no longer be followed.
	broken error
	closed bool
}

func NewConn(pkt pnet.PacketIO, lg *zap.Logger, cfg config.Stmt) *Conn {
	return &Conn{
		pkt:     pkt,
		lg:      lg.Named("stmt"),
		stmts:   NewStatementCache(cfg.CacheCapacity),
		parsers: NewParserCache(),
	}
}

// Execute prepares sql unless it's cached, executes it with args and reads all the result sets.
// A server error is returned as *mysql.MyError and leaves the connection usable.
func (c *Conn) Execute(ctx context.Context, sql string, args []any, opts ...ExecuteOption) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	startTime := time.Now()
	res, err := c.executeLocked(ctx, sql, args, opts)
	lbl := metrics.LblOK
	if err != nil {
		lbl = metrics.LblError
	}
	metrics.ExecuteDurationHistogram.WithLabelValues(lbl).Observe(metrics.SinceSeconds(startTime))
	return res, err
}

// ExecuteFunc is like Execute but reports the outcome to onResult, exactly once.
func (c *Conn) ExecuteFunc(ctx context.Context, sql string, args []any, onResult func(*Result, error), opts ...ExecuteOption) {
	onResult(c.Execute(ctx, sql, args, opts...))
}

func (c *Conn) executeLocked(ctx context.Context, sql string, args []any, opts []ExecuteOption) (*Result, error) {
	switch {
	case c.closed:
		return nil, ErrConnClosed
	case c.broken != nil:
		return nil, errors.Wrap(ErrConnBroken, c.broken)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	interrupted := c.watchContext(ctx)
	e := newExecutor(c, sql, args, opts)
	err := c.run(ctx, e)
	if interrupted() && err != nil {
		err = errors.WithStack(context.Cause(ctx))
		c.broken = err
	}
	if err != nil {
		c.onError(sql, e, err)
		return nil, err
	}
	return &e.result, nil
}

func (c *Conn) run(ctx context.Context, e *executor) error {
	if err := e.start(); err != nil {
		return err
	}
	for e.state != stateDone {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		pkt, err := c.pkt.ReadPacket()
		if err != nil {
			return err
		}
		if err := e.handle(pkt); err != nil {
			return err
		}
	}
	return nil
}

// onError decides whether the connection survives err. The response stream is
// complete after a server error or a rejected argument list. Otherwise, it's
// unknown which packets are still in flight.
func (c *Conn) onError(sql string, e *executor, err error) {
	var myErr *gomysql.MyError
	switch {
	case errors.As(err, &myErr):
		c.lg.Debug("server returned error", zap.Stringer("state", e.state), zap.String("sql", normalizeSQL(sql)), zap.Error(err))
		return
	case errors.Is(err, ErrParamCount), errors.Is(err, pnet.ErrUnsupportedParam):
		return
	}
	if c.broken == nil {
		c.broken = err
	}
	c.lg.Warn("execute failed, the connection is broken", zap.Stringer("state", e.state), zap.String("sql", normalizeSQL(sql)), zap.Error(err))
}

// watchContext interrupts the transport when ctx is done. The returned function
// stops watching and reports whether the transport was interrupted.
func (c *Conn) watchContext(ctx context.Context) func() bool {
	ds, ok := c.pkt.(pnet.DeadlineSetter)
	if !ok || ctx.Done() == nil {
		return func() bool { return false }
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		if err := ds.SetDeadline(time.Now()); err != nil {
			c.lg.Warn("interrupt connection failed", zap.Error(err))
		}
	})
	return func() bool {
		if stop() {
			return false
		}
		<-fired
		if err := ds.SetDeadline(time.Time{}); err != nil {
			c.lg.Warn("reset connection deadline failed", zap.Error(err))
		}
		return true
	}
}

// writeCommand sends a command, preceded by closing the statements that were
// evicted. COM_STMT_CLOSE has no response.
func (c *Conn) writeCommand(data []byte) error {
	for _, stmtID := range c.stmts.TakeEvicted() {
		c.pkt.ResetSequence()
		if err := c.pkt.WritePacket(pnet.MakeCloseStmtRequest(stmtID), false); err != nil {
			return err
		}
		c.lg.Debug("closed statement", zap.Uint32("stmt_id", stmtID))
	}
	c.pkt.ResetSequence()
	return c.pkt.WritePacket(data, true)
}

func (c *Conn) logPrepared(sql string, info *PreparedStatementInfo) {
	if ce := c.lg.Check(zap.DebugLevel, "prepared statement"); ce != nil {
		ce.Write(zap.Uint32("stmt_id", info.StmtID),
			zap.Int("params", info.ParamCount),
			zap.Int("fields", info.FieldCount),
			zap.String("digest", sqlDigest(sql)),
			zap.String("sql", normalizeSQL(sql)))
	}
}

// Invalidate drops the cached statement of sql. It's closed on the server before the next command.
func (c *Conn) Invalidate(sql string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stmts.Remove(sql)
}

func (c *Conn) Stats() Stats {
	return Stats{
		Executions:      c.stats.executions.Load(),
		Prepares:        c.stats.prepares.Load(),
		StmtCacheHits:   c.stats.stmtCacheHits.Load(),
		ParserCacheHits: c.stats.parserCacheHits.Load(),
	}
}

// Close closes all cached statements, quits and closes the transport.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	if c.broken == nil {
		c.stmts.Reset()
		if err := c.writeCommand(pnet.MakeQuitRequest()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.pkt.Close(); err != nil {
		errs = append(errs, err)
	}
	if bc, ok := c.pkt.(pnet.ByteCounter); ok {
		c.lg.Debug("connection closed", zap.Uint64("in_bytes", bc.InBytes()), zap.Uint64("out_bytes", bc.OutBytes()))
	}
	return errors.Collect(pnet.ErrCloseConn, errs...)
}
