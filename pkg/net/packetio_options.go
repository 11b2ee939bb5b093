// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package net

type PacketIOption = func(*packetIO)

// WithWrapError classifies every transport error of the packetIO as err.
func WithWrapError(err error) func(pi *packetIO) {
	return func(pi *packetIO) {
		pi.wrap = err
	}
}
