package cache

import (
    "context"
    "strings"
    "sync"
    "time"

    "github.com/shopspring/decimal"

    "stockalertbot/internal/quotes"
)

// entry stores one cached price with expiry.
type entry struct {
    expiresAt time.Time
    price     decimal.Decimal
}

// Source caches prices per instrument for a TTL. Searches pass through
// untouched; the evaluator re-asks for the same instruments every cycle, so
// only Price is worth caching.
type Source struct {
    S        quotes.Source
    TTL      time.Duration
    MaxItems int

    mu    sync.RWMutex
    items map[string]entry // key: lower-cased instrument
}

func (c *Source) Name() string { return c.S.Name() }

func (c *Source) Search(ctx context.Context, query string, page int) ([]string, error) {
    return c.S.Search(ctx, query, page)
}

func (c *Source) Price(ctx context.Context, instrument string) (decimal.Decimal, error) {
    if c.S == nil || c.TTL <= 0 {
        return c.S.Price(ctx, instrument)
    }
    key := strings.ToLower(instrument)
    now := time.Now()

    c.mu.RLock()
    e, ok := c.items[key]
    c.mu.RUnlock()
    if ok && now.Before(e.expiresAt) {
        return e.price, nil
    }

    price, err := c.S.Price(ctx, instrument)
    if err != nil {
        // Serve a stale value over an upstream failure when we have one.
        if ok {
            return e.price, nil
        }
        return decimal.Decimal{}, err
    }

    c.mu.Lock()
    if c.items == nil {
        c.items = make(map[string]entry)
    }
    c.items[key] = entry{expiresAt: now.Add(c.TTL), price: price}
    if c.MaxItems > 0 && len(c.items) > c.MaxItems {
        // best-effort cap: drop expired first, then arbitrary keys
        for k, v := range c.items {
            if len(c.items) <= c.MaxItems {
                break
            }
            if now.After(v.expiresAt) {
                delete(c.items, k)
            }
        }
        for k := range c.items {
            if len(c.items) <= c.MaxItems {
                break
            }
            delete(c.items, k)
        }
    }
    c.mu.Unlock()

    return price, nil
}
