package stockapi

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/require"

    "stockalertbot/internal/httpx"
    "stockalertbot/internal/quotes"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
    t.Helper()
    srv := httptest.NewServer(handler)
    t.Cleanup(srv.Close)
    return New(Config{BaseURL: srv.URL, APIKey: "test-key", PageSize: 2}, httpx.New(5*time.Second))
}

func TestSearch(t *testing.T) {
    t.Parallel()
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/search", r.URL.Path)
        require.Equal(t, "acme", r.URL.Query().Get("q"))
        require.Equal(t, "1", r.URL.Query().Get("page"))
        require.Equal(t, "2", r.URL.Query().Get("limit"))
        require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
        w.Write([]byte(`{"results":[{"name":"Acme Corp"},{"name":"Acme Holdings"}]}`))
    })

    names, err := c.Search(context.Background(), "acme", 1)
    require.NoError(t, err)
    require.Equal(t, []string{"Acme Corp", "Acme Holdings"}, names)
}

func TestSearch_UpstreamError(t *testing.T) {
    t.Parallel()
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "nope", http.StatusInternalServerError)
    })

    _, err := c.Search(context.Background(), "acme", 0)
    require.Error(t, err)
}

func TestPrice(t *testing.T) {
    t.Parallel()
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/quote", r.URL.Path)
        require.Equal(t, "Acme Corp", r.URL.Query().Get("instrument"))
        w.Write([]byte(`{"instrument":"Acme Corp","price":95.5}`))
    })

    p, err := c.Price(context.Background(), "Acme Corp")
    require.NoError(t, err)
    require.True(t, p.Equal(decimal.RequireFromString("95.5")))
}

func TestPrice_NotFound(t *testing.T) {
    t.Parallel()
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        http.NotFound(w, r)
    })

    _, err := c.Price(context.Background(), "Unknown Ltd")
    require.ErrorIs(t, err, quotes.ErrUnavailable)
}

func TestPrice_BadPayload(t *testing.T) {
    t.Parallel()
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(`{"instrument":"Acme Corp","price":"not a number"}`))
    })

    _, err := c.Price(context.Background(), "Acme Corp")
    require.Error(t, err)
}
