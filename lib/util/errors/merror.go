// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"strings"
)

var _ error = &MError{}

// MError groups several errors that happened during one operation under a
// classifying error.
type MError struct {
	cerr error
	uerr []error
}

func (e *MError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.cerr.Error())
	sb.WriteString(":")
	for _, ue := range e.uerr {
		sb.WriteString("\n\t")
		sb.WriteString(ue.Error())
	}
	return sb.String()
}

func (e *MError) Format(st fmt.State, verb rune) {
	if verb == 'v' && st.Flag('+') {
		fmt.Fprintf(st, "%+v:", e.cerr)
		for _, ue := range e.uerr {
			fmt.Fprintf(st, "\n\t%+v", ue)
		}
		return
	}
	_, _ = st.Write([]byte(e.Error()))
}

func (e *MError) Is(target error) bool {
	if errors.Is(e.cerr, target) {
		return true
	}
	for _, ue := range e.uerr {
		if errors.Is(ue, target) {
			return true
		}
	}
	return false
}

// Cause returns the collected errors.
func (e *MError) Cause() []error {
	return e.uerr
}

// Collect drops nil errors from uerr and returns nil if none remain.
func Collect(cerr error, uerr ...error) error {
	n := 0
	for _, e := range uerr {
		if e != nil {
			uerr[n] = e
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &MError{
		uerr: uerr[:n],
		cerr: cerr,
	}
}
