// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"time"

	"github.com/pingcap/stmtexec/lib/config"
	"github.com/pingcap/stmtexec/lib/util/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func buildEncoder(cfg *config.Log) zapcore.Encoder {
	encfg := zap.NewProductionEncoderConfig()
	encfg.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(t.Format("2006/01/02 15:04:05.000 -07:00"))
	}
	encfg.EncodeLevel = func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(l.CapitalString())
	}
	if cfg.Encoder == "json" {
		return zapcore.NewJSONEncoder(encfg)
	}
	return zapcore.NewConsoleEncoder(encfg)
}

// BuildLogger builds the process logger. The returned Syncer must be closed on exit.
func BuildLogger(cfg *config.Log) (*zap.Logger, Syncer, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, nil, errors.Wrap(config.ErrInvalidConfigValue, err)
	}
	syncer, err := buildSyncer(&cfg.LogOnline)
	if err != nil {
		return nil, nil, err
	}
	lg := zap.New(zapcore.NewCore(buildEncoder(cfg), syncer, level),
		zap.ErrorOutput(syncer), zap.AddStacktrace(zapcore.FatalLevel), zap.AddCaller())
	return lg, syncer, nil
}
