// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"time"

	"github.com/go-mysql-org/go-mysql/client"
	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/pingcap/stmtexec/lib/config"
	"github.com/pingcap/stmtexec/lib/util/cmd"
	"github.com/pingcap/stmtexec/lib/util/errors"
	"github.com/pingcap/stmtexec/lib/util/logger"
	"github.com/pingcap/stmtexec/lib/util/retry"
	"github.com/pingcap/stmtexec/pkg/metrics"
	pnet "github.com/pingcap/stmtexec/pkg/net"
	"github.com/pingcap/stmtexec/pkg/stmt"
	"github.com/pingcap/stmtexec/pkg/util/versioninfo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     os.Args[0],
		Short:   "prepare a statement on a MySQL-compatible server and execute it",
		Version: versioninfo.Version(),
	}
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	configFile := rootCmd.PersistentFlags().String("config", "", "the TOML config file, flags override the file")
	addr := rootCmd.PersistentFlags().String("addr", "", "the server address, e.g. 127.0.0.1:4000")
	user := rootCmd.PersistentFlags().String("user", "", "the user to log in")
	password := rootCmd.PersistentFlags().String("password", "", "the password to log in")
	db := rootCmd.PersistentFlags().String("db", "", "the default database")
	sql := rootCmd.PersistentFlags().String("sql", "", "the statement to prepare, with ? as parameter markers")
	args := rootCmd.PersistentFlags().StringSlice("args", nil, `the parameters, \N means NULL`)
	repeat := rootCmd.PersistentFlags().Int("repeat", 1, "how many times to execute the statement")
	cacheCap := rootCmd.PersistentFlags().Int("cache-capacity", 0, "the capacity of the prepared statement cache, 0 means unbounded")
	logLevel := rootCmd.PersistentFlags().String("log-level", "", "the log level")
	pushAddr := rootCmd.PersistentFlags().String("metrics-push-addr", "", "the prometheus pushgateway address, metrics are not pushed if empty")
	pushInterval := rootCmd.PersistentFlags().Duration("metrics-push-interval", 15*time.Second, "the interval to push metrics while executing")
	connectRetries := rootCmd.PersistentFlags().Uint64("connect-retries", 3, "how many times to retry connecting, 0 means retrying until canceled")
	quiet := rootCmd.PersistentFlags().Bool("quiet", false, "do not print result sets")

	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg := config.NewConfig()
		if *configFile != "" {
			var err error
			if cfg, err = config.NewConfigFromFile(*configFile); err != nil {
				return err
			}
		}
		flags := cmd.PersistentFlags()
		if flags.Changed("addr") {
			cfg.Backend.Addr = *addr
		}
		if flags.Changed("user") {
			cfg.Backend.User = *user
		}
		if flags.Changed("password") {
			cfg.Backend.Password = *password
		}
		if flags.Changed("db") {
			cfg.Backend.DB = *db
		}
		if flags.Changed("cache-capacity") {
			cfg.Stmt.CacheCapacity = *cacheCap
		}
		if flags.Changed("log-level") {
			cfg.Log.Level = *logLevel
		}
		if err := cfg.Check(); err != nil {
			return err
		}
		if *sql == "" {
			return errors.Wrapf(config.ErrInvalidConfigValue, "--sql is required")
		}
		if *repeat <= 0 {
			return errors.Wrapf(config.ErrInvalidConfigValue, "--repeat must be positive")
		}

		lg, syncer, err := logger.BuildLogger(&cfg.Log)
		if err != nil {
			return err
		}
		defer func() {
			_ = lg.Sync()
			_ = syncer.Close()
		}()
		metrics.RegisterStmtMetrics()
		pusher := metrics.StartPusher(cmd.Context(), *pushAddr, metrics.ModuleStmtExec, *pushInterval, lg)

		var mc *client.Conn
		err = retry.RetryNotify(cmd.Context(), func() error {
			var connErr error
			mc, connErr = client.Connect(cfg.Backend.Addr, cfg.Backend.User, cfg.Backend.Password, cfg.Backend.DB)
			var myErr *gomysql.MyError
			if errors.As(connErr, &myErr) {
				// access denied and unknown database won't go away by retrying
				return retry.Permanent(connErr)
			}
			return connErr
		}, time.Second, *connectRetries, func(err error, _ time.Duration) {
			lg.Warn("connect failed, retrying", zap.String("addr", cfg.Backend.Addr), zap.Error(err))
		})
		if err != nil {
			return errors.Collect(errors.New("connect"), errors.WithStack(err), pusher.Close())
		}
		conn := stmt.NewConn(pnet.NewGoMySQLPacketIO(mc.Conn), lg, cfg.Stmt)
		lg.Info("connected", zap.String("addr", cfg.Backend.Addr), zap.Int("cache_capacity", cfg.Stmt.CacheCapacity))

		params := parseArgs(*args)
		start := time.Now()
		for i := 0; i < *repeat; i++ {
			var res *stmt.Result
			if res, err = conn.Execute(cmd.Context(), *sql, params); err != nil {
				break
			}
			if !*quiet {
				if err = printResult(cmd.OutOrStdout(), res); err != nil {
					break
				}
			}
		}
		stats := conn.Stats()
		lg.Info("finished", zap.Duration("elapsed", time.Since(start)), zap.Uint64("executions", stats.Executions),
			zap.Uint64("prepares", stats.Prepares), zap.Uint64("stmt_cache_hits", stats.StmtCacheHits),
			zap.Uint64("parser_cache_hits", stats.ParserCacheHits))
		err = errors.Collect(errors.New("execute statement"), err, conn.Close())
		if pushErr := pusher.Close(); pushErr != nil {
			lg.Warn("push metrics failed", zap.Error(pushErr))
		}
		return err
	}

	cmd.RunRootCommand(rootCmd)
}
