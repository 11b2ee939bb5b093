// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	LblRes   = "res"
	LblHit   = "hit"
	LblMiss  = "miss"
	LblOK    = "ok"
	LblError = "error"
)

var (
	StmtCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleStmtExec,
			Subsystem: LabelStmt,
			Name:      "stmt_cache",
			Help:      "Counter of statement cache lookups.",
		}, []string{LblRes})

	ParserCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleStmtExec,
			Subsystem: LabelStmt,
			Name:      "parser_cache",
			Help:      "Counter of row decoder cache lookups.",
		}, []string{LblRes})

	ExecuteDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ModuleStmtExec,
			Subsystem: LabelStmt,
			Name:      "execute_duration_seconds",
			Help:      "Bucketed histogram of time (s) for executing prepared statements.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 20), // 100us ~ 52s
		}, []string{LblRes})

	ResultSetCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: ModuleStmtExec,
			Subsystem: LabelStmt,
			Name:      "result_sets",
			Help:      "Counter of received result sets.",
		})
)

func stmtCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		StmtCacheCounter,
		ParserCacheCounter,
		ExecuteDurationHistogram,
		ResultSetCounter,
	}
}
