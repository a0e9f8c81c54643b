package memory

import (
    "context"
    "strings"

    "github.com/shopspring/decimal"

    "stockalertbot/internal/quotes"
)

// Entry is one row of the static quote table.
type Entry struct {
    Name  string
    Price decimal.Decimal
}

// DefaultTable returns the built-in demo table used when no market-data API
// is configured.
func DefaultTable() []Entry {
    return []Entry{
        {Name: "Jupiter Wagons", Price: decimal.NewFromInt(330)},
        {Name: "Suzlon Energy", Price: decimal.NewFromInt(55)},
        {Name: "Trident", Price: decimal.NewFromInt(24)},
        {Name: "Jupiter Life Line Hospitals", Price: decimal.NewFromInt(1450)},
        {Name: "Jupiter Infomedia", Price: decimal.NewFromInt(21)},
        {Name: "Tata Motors", Price: decimal.NewFromInt(975)},
        {Name: "Tata Power", Price: decimal.NewFromInt(410)},
        {Name: "Tata Steel", Price: decimal.NewFromInt(160)},
    }
}

// Source serves quotes from a fixed in-memory table. Matching is
// case-insensitive; search is a substring match over the table in order.
type Source struct {
    pageSize int
    names    []string
    prices   map[string]decimal.Decimal // key: lower-cased name
}

// New builds a Source over the given entries, or DefaultTable when none are
// provided. pageSize caps the number of names returned per search page.
func New(pageSize int, entries ...Entry) *Source {
    if pageSize <= 0 {
        pageSize = 5
    }
    if len(entries) == 0 {
        entries = DefaultTable()
    }
    s := &Source{
        pageSize: pageSize,
        names:    make([]string, 0, len(entries)),
        prices:   make(map[string]decimal.Decimal, len(entries)),
    }
    for _, e := range entries {
        key := strings.ToLower(e.Name)
        if _, dup := s.prices[key]; dup {
            continue
        }
        s.names = append(s.names, e.Name)
        s.prices[key] = e.Price
    }
    return s
}

func (s *Source) Name() string { return "Memory" }

func (s *Source) Search(ctx context.Context, query string, page int) ([]string, error) {
    q := strings.ToLower(strings.TrimSpace(query))
    if q == "" || page < 0 {
        return nil, nil
    }
    matches := make([]string, 0, s.pageSize)
    skip := page * s.pageSize
    for _, name := range s.names {
        if !strings.Contains(strings.ToLower(name), q) {
            continue
        }
        if skip > 0 {
            skip--
            continue
        }
        matches = append(matches, name)
        if len(matches) == s.pageSize {
            break
        }
    }
    return matches, nil
}

func (s *Source) Price(ctx context.Context, instrument string) (decimal.Decimal, error) {
    p, ok := s.prices[strings.ToLower(strings.TrimSpace(instrument))]
    if !ok {
        return decimal.Decimal{}, quotes.ErrUnavailable
    }
    return p, nil
}
