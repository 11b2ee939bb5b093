// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package testkit

import (
	"net"
	"testing"

	"github.com/pingcap/stmtexec/lib/util/waitgroup"
	"github.com/stretchr/testify/require"
)

// TestPipeConn runs a against the client end and b against the server end of
// an in-memory connection. Both ends are closed after each loop.
func TestPipeConn(t *testing.T, a, b func(*testing.T, net.Conn), loop int) {
	var wg waitgroup.WaitGroup
	for i := 0; i < loop; i++ {
		cli, srv := net.Pipe()
		if ddl, ok := t.Deadline(); ok {
			require.NoError(t, cli.SetDeadline(ddl))
			require.NoError(t, srv.SetDeadline(ddl))
		}
		wg.Run(func() {
			a(t, cli)
			if err := cli.Close(); err != nil {
				require.ErrorIs(t, err, net.ErrClosed)
			}
		})
		wg.Run(func() {
			b(t, srv)
			if err := srv.Close(); err != nil {
				require.ErrorIs(t, err, net.ErrClosed)
			}
		})
		wg.Wait()
	}
}

func TestTCPConn(t *testing.T, a, b func(*testing.T, net.Conn), loop int) {
	listener, addr := StartListener(t, "")
	defer func() {
		require.NoError(t, listener.Close())
	}()
	var wg waitgroup.WaitGroup
	for i := 0; i < loop; i++ {
		wg.Run(func() {
			cli, err := net.Dial("tcp", addr)
			require.NoError(t, err)
			if ddl, ok := t.Deadline(); ok {
				require.NoError(t, cli.SetDeadline(ddl))
			}
			a(t, cli)
			if err := cli.Close(); err != nil {
				require.ErrorIs(t, err, net.ErrClosed)
			}
		})
		wg.Run(func() {
			srv, err := listener.Accept()
			require.NoError(t, err)
			if ddl, ok := t.Deadline(); ok {
				require.NoError(t, srv.SetDeadline(ddl))
			}
			b(t, srv)
			if err := srv.Close(); err != nil {
				require.ErrorIs(t, err, net.ErrClosed)
			}
		})
		wg.Wait()
	}
}

func StartListener(t *testing.T, addr string) (net.Listener, string) {
	if len(addr) == 0 {
		addr = "127.0.0.1:0"
	}
	listener, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	return listener, listener.Addr().String()
}
