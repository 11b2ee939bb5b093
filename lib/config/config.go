// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/stmtexec/lib/util/errors"
)

var (
	ErrInvalidConfigValue = errors.New("invalid config value")
)

type Config struct {
	Backend Backend `yaml:"backend,omitempty" toml:"backend,omitempty" json:"backend,omitempty"`
	Stmt    Stmt    `yaml:"stmt,omitempty" toml:"stmt,omitempty" json:"stmt,omitempty"`
	Log     Log     `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`
}

// Backend is the server that statements are prepared and executed on.
type Backend struct {
	Addr     string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty"`
	User     string `yaml:"user,omitempty" toml:"user,omitempty" json:"user,omitempty"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty" json:"password,omitempty"`
	DB       string `yaml:"db,omitempty" toml:"db,omitempty" json:"db,omitempty"`
}

type Stmt struct {
	// CacheCapacity bounds the number of prepared statements kept per connection.
	// The least recently executed statement is closed on the server when the bound is exceeded.
	// 0 means unbounded.
	CacheCapacity int `yaml:"cache-capacity,omitempty" toml:"cache-capacity,omitempty" json:"cache-capacity,omitempty"`
}

type LogOnline struct {
	Level   string  `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	LogFile LogFile `yaml:"log-file,omitempty" toml:"log-file,omitempty" json:"log-file,omitempty"`
}

type Log struct {
	Encoder   string `yaml:"encoder,omitempty" toml:"encoder,omitempty" json:"encoder,omitempty"`
	LogOnline `yaml:",inline" toml:",inline" json:",inline"`
}

type LogFile struct {
	Filename   string `yaml:"filename,omitempty" toml:"filename,omitempty" json:"filename,omitempty"`
	MaxSize    int    `yaml:"max-size,omitempty" toml:"max-size,omitempty" json:"max-size,omitempty"`
	MaxDays    int    `yaml:"max-days,omitempty" toml:"max-days,omitempty" json:"max-days,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty" toml:"max-backups,omitempty" json:"max-backups,omitempty"`
}

func NewConfig() *Config {
	var cfg Config

	cfg.Backend.Addr = "127.0.0.1:4000"
	cfg.Backend.User = "root"

	cfg.Log.Level = "info"
	cfg.Log.Encoder = "console"
	cfg.Log.LogFile.MaxSize = 300
	cfg.Log.LogFile.MaxDays = 3
	cfg.Log.LogFile.MaxBackups = 3

	return &cfg
}

// NewConfigFromFile overlays the file on the default config.
func NewConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg := NewConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfigValue, "parse %s: %s", path, err.Error())
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Clone() *Config {
	newCfg := *cfg
	return &newCfg
}

func (cfg *Config) Check() error {
	if cfg.Backend.Addr == "" {
		return errors.Wrapf(ErrInvalidConfigValue, "backend.addr is empty")
	}
	if cfg.Stmt.CacheCapacity < 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "stmt.cache-capacity must be non-negative")
	}
	switch cfg.Log.Encoder {
	case "json", "console":
	case "":
		cfg.Log.Encoder = "console"
	default:
		return errors.Wrapf(ErrInvalidConfigValue, "unsupported log.encoder %s", cfg.Log.Encoder)
	}
	return nil
}

func (cfg *Config) ToBytes() ([]byte, error) {
	b := new(bytes.Buffer)
	err := toml.NewEncoder(b).Encode(cfg)
	return b.Bytes(), errors.WithStack(err)
}
