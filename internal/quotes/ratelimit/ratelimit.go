package ratelimit

import (
    "context"
    "sync"
    "time"

    "github.com/shopspring/decimal"

    "stockalertbot/internal/quotes"
)

// MinInterval wraps a source and enforces a minimum time between upstream
// calls. Concurrent calls wait until the interval has elapsed since the last
// call, or return early if the context is canceled.
type MinInterval struct {
    S        quotes.Source
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) Search(ctx context.Context, query string, page int) ([]string, error) {
    if err := m.wait(ctx); err != nil {
        return nil, err
    }
    names, err := m.S.Search(ctx, query, page)
    m.touch()
    return names, err
}

func (m *MinInterval) Price(ctx context.Context, instrument string) (decimal.Decimal, error) {
    if err := m.wait(ctx); err != nil {
        return decimal.Decimal{}, err
    }
    p, err := m.S.Price(ctx, instrument)
    m.touch()
    return p, err
}

func (m *MinInterval) wait(ctx context.Context) error {
    if m.Interval <= 0 {
        return nil
    }
    m.mu.Lock()
    wait := time.Until(m.last.Add(m.Interval))
    m.mu.Unlock()
    if wait <= 0 {
        return nil
    }
    t := time.NewTimer(wait)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}

func (m *MinInterval) touch() {
    if m.Interval <= 0 {
        return
    }
    m.mu.Lock()
    m.last = time.Now()
    m.mu.Unlock()
}
