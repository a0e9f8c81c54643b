package memory

import (
    "context"
    "testing"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/require"

    "stockalertbot/internal/quotes"
)

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
    t.Parallel()
    s := New(5)

    names, err := s.Search(context.Background(), "jupiter", 0)
    require.NoError(t, err)
    require.Equal(t, []string{"Jupiter Wagons", "Jupiter Life Line Hospitals", "Jupiter Infomedia"}, names)
}

func TestSearch_Pagination(t *testing.T) {
    t.Parallel()
    s := New(2)

    page0, err := s.Search(context.Background(), "jupiter", 0)
    require.NoError(t, err)
    require.Equal(t, []string{"Jupiter Wagons", "Jupiter Life Line Hospitals"}, page0)

    page1, err := s.Search(context.Background(), "jupiter", 1)
    require.NoError(t, err)
    require.Equal(t, []string{"Jupiter Infomedia"}, page1)

    page2, err := s.Search(context.Background(), "jupiter", 2)
    require.NoError(t, err)
    require.Empty(t, page2)
}

func TestSearch_NoMatchAndEmptyQuery(t *testing.T) {
    t.Parallel()
    s := New(5)

    names, err := s.Search(context.Background(), "no such company", 0)
    require.NoError(t, err)
    require.Empty(t, names)

    names, err = s.Search(context.Background(), "   ", 0)
    require.NoError(t, err)
    require.Empty(t, names)
}

func TestPrice(t *testing.T) {
    t.Parallel()
    s := New(5, Entry{Name: "Acme Corp", Price: decimal.NewFromInt(42)})

    p, err := s.Price(context.Background(), "acme corp")
    require.NoError(t, err)
    require.True(t, p.Equal(decimal.NewFromInt(42)))

    _, err = s.Price(context.Background(), "Unknown Ltd")
    require.ErrorIs(t, err, quotes.ErrUnavailable)
}
