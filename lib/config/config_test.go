// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	Backend: Backend{
		Addr:     "127.0.0.1:3306",
		User:     "u1",
		Password: "p1",
		DB:       "test",
	},
	Stmt: Stmt{
		CacheCapacity: 16,
	},
	Log: Log{
		Encoder: "json",
		LogOnline: LogOnline{
			Level: "debug",
			LogFile: LogFile{
				Filename:   "stmt.log",
				MaxSize:    10,
				MaxDays:    1,
				MaxBackups: 1,
			},
		},
	},
}

func TestConfigRoundTrip(t *testing.T) {
	data, err := testConfig.ToBytes()
	require.NoError(t, err)
	var cfg Config
	require.NoError(t, toml.Unmarshal(data, &cfg))
	require.Equal(t, testConfig, cfg)
}

func TestCheckConfig(t *testing.T) {
	tests := []struct {
		pre func(*Config)
		err bool
	}{
		{
			pre: func(c *Config) {},
		},
		{
			pre: func(c *Config) { c.Backend.Addr = "" },
			err: true,
		},
		{
			pre: func(c *Config) { c.Stmt.CacheCapacity = -1 },
			err: true,
		},
		{
			pre: func(c *Config) { c.Log.Encoder = "tidb" },
			err: true,
		},
		{
			pre: func(c *Config) { c.Log.Encoder = "" },
		},
	}
	for i, test := range tests {
		cfg := NewConfig()
		test.pre(cfg)
		err := cfg.Check()
		if test.err {
			require.ErrorIs(t, err, ErrInvalidConfigValue, "case %d", i)
		} else {
			require.NoError(t, err, "case %d", i)
		}
	}
}

func TestConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stmtexec.toml")
	content := `
[backend]
addr = "10.0.0.1:4000"
user = "app"

[stmt]
cache-capacity = 128

[log]
level = "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1:4000", cfg.Backend.Addr)
	require.Equal(t, "app", cfg.Backend.User)
	require.Equal(t, 128, cfg.Stmt.CacheCapacity)
	require.Equal(t, "warn", cfg.Log.Level)
	// defaults are kept for missing keys
	require.Equal(t, "console", cfg.Log.Encoder)
	require.Equal(t, 300, cfg.Log.LogFile.MaxSize)

	require.NoError(t, os.WriteFile(path, []byte("[stmt]\ncache-capacity = -2\n"), 0o600))
	_, err = NewConfigFromFile(path)
	require.ErrorIs(t, err, ErrInvalidConfigValue)

	require.NoError(t, os.WriteFile(path, []byte("[stmt\n"), 0o600))
	_, err = NewConfigFromFile(path)
	require.ErrorIs(t, err, ErrInvalidConfigValue)

	_, err = NewConfigFromFile(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}
