// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
)

var _ fmt.Formatter = stacktrace(nil)

type stacktrace []uintptr

func (st stacktrace) Format(s fmt.State, _ rune) {
	frames := runtime.CallersFrames(st)
	for {
		fr, more := frames.Next()
		fn := fr.Function
		if fn == "" {
			fn = "unknown"
		}
		_, _ = io.WriteString(s, "\n"+fn+"\n\t"+fr.File+":"+strconv.Itoa(fr.Line))
		if !more {
			return
		}
	}
}
