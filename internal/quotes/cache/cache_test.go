package cache

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/require"

    "stockalertbot/internal/quotes"
)

// countingSource counts upstream Price calls and serves a fixed table.
type countingSource struct {
    prices map[string]decimal.Decimal
    calls  int
    err    error
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Search(ctx context.Context, query string, page int) ([]string, error) {
    return nil, nil
}

func (c *countingSource) Price(ctx context.Context, instrument string) (decimal.Decimal, error) {
    c.calls++
    if c.err != nil {
        return decimal.Decimal{}, c.err
    }
    p, ok := c.prices[instrument]
    if !ok {
        return decimal.Decimal{}, quotes.ErrUnavailable
    }
    return p, nil
}

func TestPrice_CachedWithinTTL(t *testing.T) {
    t.Parallel()
    upstream := &countingSource{prices: map[string]decimal.Decimal{"Trident": decimal.NewFromInt(24)}}
    c := &Source{S: upstream, TTL: time.Minute}

    for i := 0; i < 3; i++ {
        p, err := c.Price(context.Background(), "Trident")
        require.NoError(t, err)
        require.True(t, p.Equal(decimal.NewFromInt(24)))
    }
    require.Equal(t, 1, upstream.calls)
}

func TestPrice_KeyIsCaseInsensitive(t *testing.T) {
    t.Parallel()
    upstream := &countingSource{prices: map[string]decimal.Decimal{"Trident": decimal.NewFromInt(24)}}
    c := &Source{S: upstream, TTL: time.Minute}

    _, err := c.Price(context.Background(), "Trident")
    require.NoError(t, err)
    _, err = c.Price(context.Background(), "TRIDENT")
    require.NoError(t, err)
    require.Equal(t, 1, upstream.calls)
}

func TestPrice_ZeroTTLPassesThrough(t *testing.T) {
    t.Parallel()
    upstream := &countingSource{prices: map[string]decimal.Decimal{"Trident": decimal.NewFromInt(24)}}
    c := &Source{S: upstream}

    for i := 0; i < 2; i++ {
        _, err := c.Price(context.Background(), "Trident")
        require.NoError(t, err)
    }
    require.Equal(t, 2, upstream.calls)
}

func TestPrice_ServesStaleOnUpstreamFailure(t *testing.T) {
    t.Parallel()
    upstream := &countingSource{prices: map[string]decimal.Decimal{"Trident": decimal.NewFromInt(24)}}
    c := &Source{S: upstream, TTL: time.Nanosecond}

    _, err := c.Price(context.Background(), "Trident")
    require.NoError(t, err)

    time.Sleep(time.Millisecond)
    upstream.err = errors.New("boom")

    p, err := c.Price(context.Background(), "Trident")
    require.NoError(t, err)
    require.True(t, p.Equal(decimal.NewFromInt(24)))
}

func TestPrice_ErrorWithNothingCached(t *testing.T) {
    t.Parallel()
    upstream := &countingSource{err: errors.New("boom")}
    c := &Source{S: upstream, TTL: time.Minute}

    _, err := c.Price(context.Background(), "Trident")
    require.Error(t, err)
}
