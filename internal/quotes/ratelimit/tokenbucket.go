package ratelimit

import (
    "context"
    "sync"
    "time"

    "github.com/shopspring/decimal"

    "stockalertbot/internal/quotes"
)

// TokenBucket is a stdlib-only token bucket limiter.
// - rate: tokens per second
// - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
    rate     float64
    capacity float64

    mu     sync.Mutex
    tokens float64
    last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
    if tokensPerSecond <= 0 {
        tokensPerSecond = 0.0000001
    }
    if burst <= 0 {
        burst = 1
    }
    return &TokenBucket{
        rate:     tokensPerSecond,
        capacity: float64(burst),
        tokens:   float64(burst), // start full to allow an initial burst
        last:     time.Now(),
    }
}

// wait blocks until one token is available or context is canceled.
func (tb *TokenBucket) wait(ctx context.Context) error {
    for {
        tb.mu.Lock()
        now := time.Now()
        elapsed := now.Sub(tb.last).Seconds()
        if elapsed > 0 {
            tb.tokens += elapsed * tb.rate
            if tb.tokens > tb.capacity {
                tb.tokens = tb.capacity
            }
            tb.last = now
        }
        if tb.tokens >= 1 {
            tb.tokens -= 1
            tb.mu.Unlock()
            return nil
        }
        deficit := 1 - tb.tokens
        tb.mu.Unlock()
        // time needed to accumulate one token
        waitDur := time.Duration(deficit / tb.rate * 1e9)
        if waitDur <= 0 {
            waitDur = time.Millisecond
        }
        timer := time.NewTimer(waitDur)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}

// TokenBucketSource gates every upstream call on a shared bucket.
type TokenBucketSource struct {
    S  quotes.Source
    TB *TokenBucket
}

func (t *TokenBucketSource) Name() string { return t.S.Name() }

func (t *TokenBucketSource) Search(ctx context.Context, query string, page int) ([]string, error) {
    if t.TB != nil {
        if err := t.TB.wait(ctx); err != nil {
            return nil, err
        }
    }
    return t.S.Search(ctx, query, page)
}

func (t *TokenBucketSource) Price(ctx context.Context, instrument string) (decimal.Decimal, error) {
    if t.TB != nil {
        if err := t.TB.wait(ctx); err != nil {
            return decimal.Decimal{}, err
        }
    }
    return t.S.Price(ctx, instrument)
}
