// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pingcap/stmtexec/pkg/stmt"
)

const nullArg = `\N`

func parseArgs(args []string) []any {
	params := make([]any, 0, len(args))
	for _, arg := range args {
		if arg == nullArg {
			params = append(params, nil)
			continue
		}
		params = append(params, arg)
	}
	return params
}

func printResult(w io.Writer, res *stmt.Result) error {
	for i, rs := range res.Sets {
		if res.Count() > 1 {
			fmt.Fprintf(w, "-- result set %d\n", i+1)
		}
		if rs.OK != nil {
			fmt.Fprintf(w, "affected rows: %d, last insert id: %d\n", rs.OK.AffectedRows, rs.OK.InsertId)
			continue
		}
		table := tablewriter.NewWriter(w)
		names := make([]any, 0, len(rs.Fields))
		for _, field := range rs.Fields {
			names = append(names, string(field.Name))
		}
		table.Header(names...)
		for _, row := range rs.Rows {
			values := make([]string, 0, len(row))
			for _, v := range row {
				values = append(values, formatValue(v))
			}
			if err := table.Append(values); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d rows\n", len(rs.Rows))
	}
	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05.999999")
	default:
		return fmt.Sprint(v)
	}
}
