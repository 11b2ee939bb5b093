// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package stmt

import (
	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	pnet "github.com/pingcap/stmtexec/pkg/net"
)

// ResultSet is one result set of an execution. A result set without columns,
// such as the acknowledgement of a DML, has no fields and carries the OK packet instead.
type ResultSet struct {
	Fields []*pnet.ColumnDefinition
	Rows   []Row
	OK     *gomysql.Result
}

// Result is everything that one execution produced, in the order of the server.
type Result struct {
	Sets []*ResultSet
}

func (r *Result) Count() int {
	return len(r.Sets)
}

// Single returns the result set when exactly one was produced.
func (r *Result) Single() (*ResultSet, bool) {
	if len(r.Sets) != 1 {
		return nil, false
	}
	return r.Sets[0], true
}

func (r *Result) Rows() [][]Row {
	rows := make([][]Row, 0, len(r.Sets))
	for _, rs := range r.Sets {
		rows = append(rows, rs.Rows)
	}
	return rows
}

func (r *Result) Fields() [][]*pnet.ColumnDefinition {
	fields := make([][]*pnet.ColumnDefinition, 0, len(r.Sets))
	for _, rs := range r.Sets {
		fields = append(fields, rs.Fields)
	}
	return fields
}

// Observer is notified of every result set as the response streams in.
// idx starts from 0 and increases with each result set.
type Observer struct {
	OnFields func(idx int, fields []*pnet.ColumnDefinition)
	OnResult func(idx int, rs *ResultSet)
}

type executeOptions struct {
	observer Observer
}

type ExecuteOption func(*executeOptions)

func WithObserver(observer Observer) ExecuteOption {
	return func(opts *executeOptions) {
		opts.observer = observer
	}
}
