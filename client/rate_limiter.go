package client

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// RateLimiter throttles download throughput in bytes per second.
// A nil *RateLimiter means unlimited.
type RateLimiter struct {
	lim *rate.Limiter
}

// NewRateLimiter returns nil when bytesPerSecond is not positive.
func NewRateLimiter(bytesPerSecond int64) *RateLimiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return &RateLimiter{lim: rate.NewLimiter(rate.Limit(bytesPerSecond), int(bytesPerSecond))}
}

// Rate returns the configured bytes per second, or 0 when unlimited.
func (rl *RateLimiter) Rate() int64 {
	if rl == nil {
		return 0
	}
	return int64(rl.lim.Limit())
}

// Wrap returns r unchanged when rl is nil.
func (rl *RateLimiter) Wrap(ctx context.Context, r io.Reader) io.Reader {
	if rl == nil {
		return r
	}
	return &limitedReader{ctx: ctx, under: r, lim: rl.lim}
}

type limitedReader struct {
	ctx   context.Context
	under io.Reader
	lim   *rate.Limiter
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	// Reads never exceed the burst, otherwise WaitN would refuse them.
	if burst := lr.lim.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := lr.under.Read(p)
	if n > 0 {
		if werr := lr.lim.WaitN(lr.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
