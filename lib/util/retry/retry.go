// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	InfiniteCnt = 0
)

// NewBackOff returns a constant backoff bounded by retryCnt and ctx.
func NewBackOff(ctx context.Context, retryInterval time.Duration, retryCnt uint64) backoff.BackOff {
	var bo backoff.BackOff
	bo = backoff.NewConstantBackOff(retryInterval)
	if ctx != nil {
		bo = backoff.WithContext(bo, ctx)
	}
	if retryCnt != InfiniteCnt {
		bo = backoff.WithMaxRetries(bo, retryCnt)
	}
	return bo
}

// RetryNotify runs o until it succeeds, returns a permanent error, or the backoff gives up.
// notify is called on every failure except the last one.
func RetryNotify(ctx context.Context, o backoff.Operation, retryInterval time.Duration, retryCnt uint64, notify backoff.Notify) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return backoff.RetryNotify(o, NewBackOff(ctx, retryInterval, retryCnt), notify)
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
