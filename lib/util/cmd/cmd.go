// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// RunRootCommand runs rootCmd with a context that is canceled on SIGINT, SIGTERM or SIGQUIT.
// An in-flight statement observes the cancellation and the command exits with an error.
func RunRootCommand(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
