// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
)

var _ error = &WError{}

// WError pairs a classifying error with the error that actually happened.
// Is matches the classifying error and Unwrap returns the underlying one.
type WError struct {
	uerr error
	cerr error
}

func (e *WError) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		if st.Flag('+') {
			fmt.Fprintf(st, "%+v: %+v", e.cerr, e.uerr)
			return
		}
		fmt.Fprintf(st, "%v: %v", e.cerr, e.uerr)
	case 's':
		fmt.Fprintf(st, "%s: %s", e.cerr, e.uerr)
	}
}

func (e *WError) Error() string {
	return fmt.Sprintf("%s", e)
}

func (e *WError) Is(target error) bool {
	return errors.Is(e.cerr, target)
}

func (e *WError) Unwrap() error {
	return e.uerr
}

// Wrap classifies uerr as cerr: `Is(Wrap(cerr, uerr), cerr)` holds and
// Unwrap returns uerr. Wrapping with a nil cerr or a nil uerr returns nil.
func Wrap(cerr error, uerr error) error {
	if cerr == nil || uerr == nil {
		return nil
	}
	return &WError{
		uerr: uerr,
		cerr: cerr,
	}
}

// Wrapf is like Wrap, with the underlying error built by `fmt.Errorf()`.
func Wrapf(cerr error, msg string, args ...any) error {
	if cerr == nil {
		return nil
	}
	return &WError{
		uerr: fmt.Errorf(msg, args...),
		cerr: cerr,
	}
}
