// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"os"

	"github.com/pingcap/stmtexec/lib/config"
	"github.com/pingcap/stmtexec/lib/util/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSize = 300 // MB
)

var _ Syncer = (*rotateLogger)(nil)
var _ Syncer = (*stdoutLogger)(nil)

// Syncer is a WriteSyncer that must be closed when the logger is dropped.
type Syncer interface {
	zapcore.WriteSyncer
	Close() error
}

type rotateLogger struct {
	*lumberjack.Logger
}

func (lg *rotateLogger) Sync() error {
	return nil
}

type stdoutLogger struct {
	zapcore.WriteSyncer
}

func (lg *stdoutLogger) Close() error {
	return nil
}

func buildSyncer(cfg *config.LogOnline) (Syncer, error) {
	if len(cfg.LogFile.Filename) == 0 {
		stdLogger, _, err := zap.Open("stdout")
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &stdoutLogger{stdLogger}, nil
	}
	if st, err := os.Stat(cfg.LogFile.Filename); err == nil && st.IsDir() {
		return nil, errors.New("can't use directory as log file name")
	}
	maxSize := cfg.LogFile.MaxSize
	if maxSize == 0 {
		maxSize = defaultLogMaxSize
	}
	return &rotateLogger{&lumberjack.Logger{
		Filename:   cfg.LogFile.Filename,
		MaxSize:    maxSize,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAge:     cfg.LogFile.MaxDays,
		LocalTime:  true,
	}}, nil
}
