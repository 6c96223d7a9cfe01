package utils

import (
	"context"
	"time"
)

// Poll 立即检查一次条件,随后每隔 interval 检查,直到条件满足或超过 timeout
// 上下文取消视为超时
func Poll(ctx context.Context, clock Clock, timeout, interval time.Duration, cond func() bool) bool {
	deadline := clock.Now().Add(timeout)
	for {
		if cond() {
			return true
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return false
		}

		wait := interval
		if wait <= 0 || wait > remaining {
			wait = remaining
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			return false
		}
	}
}

// Retry 最多尝试 attempts 次,每次尝试前先等待 interval
func Retry(ctx context.Context, clock Clock, attempts int, interval time.Duration, cond func() bool) bool {
	for i := 0; i < attempts; i++ {
		if err := clock.Sleep(ctx, interval); err != nil {
			return false
		}
		if cond() {
			return true
		}
	}
	return false
}
