// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors wraps the standard errors package with cause-preserving
// wrappers. Sentinel errors are compared with Is; context is attached with
// Wrap/Wrapf so that callers can still match the sentinel.
package errors

import (
	"errors"
	"fmt"
)

func New(text string) error {
	return errors.New(text)
}

func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}
