// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors_test

import (
	"fmt"
	"testing"

	serr "github.com/pingcap/stmtexec/lib/util/errors"
	"github.com/stretchr/testify/require"
)

func TestStdAPI(t *testing.T) {
	e1 := serr.New("t")
	e2 := fmt.Errorf("%w: f", e1)

	require.True(t, e1 == serr.Unwrap(e2))
	require.True(t, serr.Is(e2, e1))
	require.True(t, serr.As(e2, &e1))
}

func TestWrap(t *testing.T) {
	cls := serr.New("protocol")
	cause := serr.New("short packet")
	e := serr.Wrap(cls, cause)
	require.ErrorIs(t, e, cls)
	require.Equal(t, cause, serr.Unwrap(e))
	require.Equal(t, "protocol: short packet", e.Error())

	require.Nil(t, serr.Wrap(nil, cause))
	require.Nil(t, serr.Wrap(cls, nil))
}

func TestWrapf(t *testing.T) {
	cls := serr.New("protocol")
	cause := serr.New("eof")
	e := serr.Wrapf(cls, "expect %s: %w", "EOF", cause)
	require.ErrorIs(t, e, cls)
	require.ErrorIs(t, e, cause)
	require.Equal(t, "protocol: expect EOF: eof", e.Error())
	require.Nil(t, serr.Wrapf(nil, "x"))
}

func TestWithStack(t *testing.T) {
	cause := serr.New("io")
	e := serr.WithStack(cause)
	require.ErrorIs(t, e, cause)
	require.Equal(t, "io", e.Error())
	require.Equal(t, "io", fmt.Sprintf("%v", e))
	require.Contains(t, fmt.Sprintf("%+v", e), "TestWithStack")
	require.Same(t, e, serr.WithStack(e), "stack is recorded only once")
	require.Nil(t, serr.WithStack(nil))
}

func TestCollect(t *testing.T) {
	cls := serr.New("close")
	e1 := serr.New("a")
	e2 := serr.New("b")
	e := serr.Collect(cls, e1, nil, e2)
	require.ErrorIs(t, e, cls)
	require.ErrorIs(t, e, e1)
	require.ErrorIs(t, e, e2)
	require.Equal(t, []error{e1, e2}, e.(*serr.MError).Cause())
	require.Equal(t, "close:\n\ta\n\tb", e.Error())
	require.NoError(t, serr.Collect(cls, nil, nil))
	require.NoError(t, serr.Collect(cls))
}
