// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	glist "github.com/bahlo/generic-list-go"
	pnet "github.com/pingcap/stmtexec/pkg/net"
)

// PreparedStatementInfo is the metadata of a statement prepared on the server.
type PreparedStatementInfo struct {
	StmtID     uint32
	ParamCount int
	FieldCount int
	Params     []*pnet.ColumnDefinition
	// Fields and the decoder are set together, at most once.
	Fields  []*pnet.ColumnDefinition
	decoder *RowDecoder
}

// Decoder returns nil until the field list of the statement is known.
func (s *PreparedStatementInfo) Decoder() *RowDecoder {
	return s.decoder
}

func (s *PreparedStatementInfo) attachDecoder(fields []*pnet.ColumnDefinition, decoder *RowDecoder) {
	if s.decoder != nil {
		return
	}
	s.Fields = fields
	s.decoder = decoder
}

type stmtEntry struct {
	sql  string
	info *PreparedStatementInfo
}

// StatementCache maps SQL texts to prepared statements.
// It is unbounded when the capacity is not positive. Otherwise the least recently
// used statements are evicted and their ids are kept until TakeEvicted, so that
// the owner can close them on the server.
// It's not thread-safe.
type StatementCache struct {
	capacity int
	entries  map[string]*glist.Element[*stmtEntry]
	lru      *glist.List[*stmtEntry]
	evicted  []uint32
}

func NewStatementCache(capacity int) *StatementCache {
	return &StatementCache{
		capacity: capacity,
		entries:  make(map[string]*glist.Element[*stmtEntry]),
		lru:      glist.New[*stmtEntry](),
	}
}

func (c *StatementCache) Get(sql string) (*PreparedStatementInfo, bool) {
	e, ok := c.entries[sql]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(e)
	return e.Value.info, true
}

// Add inserts info unless sql is already cached, and returns the cached one.
func (c *StatementCache) Add(sql string, info *PreparedStatementInfo) *PreparedStatementInfo {
	if e, ok := c.entries[sql]; ok {
		c.lru.MoveToFront(e)
		return e.Value.info
	}
	c.entries[sql] = c.lru.PushFront(&stmtEntry{sql: sql, info: info})
	for c.capacity > 0 && c.lru.Len() > c.capacity {
		c.removeElement(c.lru.Back())
	}
	return info
}

// Remove drops sql from the cache. The statement id is queued for closing.
func (c *StatementCache) Remove(sql string) bool {
	e, ok := c.entries[sql]
	if !ok {
		return false
	}
	c.removeElement(e)
	return true
}

// Reset drops all statements and queues all of their ids for closing.
func (c *StatementCache) Reset() {
	for e := c.lru.Front(); e != nil; e = c.lru.Front() {
		c.removeElement(e)
	}
}

func (c *StatementCache) removeElement(e *glist.Element[*stmtEntry]) {
	entry := c.lru.Remove(e)
	delete(c.entries, entry.sql)
	c.evicted = append(c.evicted, entry.info.StmtID)
}

// TakeEvicted returns the ids of the removed statements and forgets them.
func (c *StatementCache) TakeEvicted() []uint32 {
	ids := c.evicted
	c.evicted = nil
	return ids
}

func (c *StatementCache) Len() int {
	return c.lru.Len()
}

// ParserCache shares row decoders among statements with the same Signature.
// It's not thread-safe.
type ParserCache struct {
	decoders map[string]*RowDecoder
}

func NewParserCache() *ParserCache {
	return &ParserCache{
		decoders: make(map[string]*RowDecoder),
	}
}

func (c *ParserCache) Get(signature string) (*RowDecoder, bool) {
	d, ok := c.decoders[signature]
	return d, ok
}

// Add inserts decoder unless signature is already cached, and returns the cached one.
func (c *ParserCache) Add(signature string, decoder *RowDecoder) *RowDecoder {
	if d, ok := c.decoders[signature]; ok {
		return d
	}
	c.decoders[signature] = decoder
	return decoder
}

func (c *ParserCache) Len() int {
	return len(c.decoders)
}
