// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"runtime"
)

const defaultStackDepth = 32

var (
	_ error         = &Error{}
	_ fmt.Formatter = &Error{}
)

// Error attaches the call stack to an error. `%+v` prints the stack, `%s` and `%v` don't.
type Error struct {
	err   error
	trace stacktrace
}

// WithStack records the caller's stack on err. It returns nil for a nil err
// and leaves errors that already carry a stack untouched.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	e = &Error{err: err, trace: make(stacktrace, defaultStackDepth)}
	n := runtime.Callers(2, e.trace)
	e.trace = e.trace[:n]
	return e
}

func (e *Error) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		if st.Flag('+') {
			fmt.Fprintf(st, "%+v", e.err)
			e.trace.Format(st, 'v')
			return
		}
		fmt.Fprintf(st, "%v", e.err)
	case 's':
		fmt.Fprintf(st, "%s", e.err)
	}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *Error) As(target any) bool {
	return errors.As(e.err, target)
}

func (e *Error) Unwrap() error {
	return e.err
}
