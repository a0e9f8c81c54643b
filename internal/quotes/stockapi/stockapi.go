package stockapi

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"

    "github.com/shopspring/decimal"

    "stockalertbot/internal/httpx"
    "stockalertbot/internal/quotes"
)

type Config struct {
    Name     string
    BaseURL  string
    APIKey   string
    PageSize int
}

// Client implements quotes.Source against a JSON market-data API with two
// endpoints: GET /search?q=&page=&limit= and GET /quote?instrument=.
type Client struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Client {
    if cfg.Name == "" {
        cfg.Name = "StockAPI"
    }
    if cfg.PageSize <= 0 {
        cfg.PageSize = 5
    }
    return &Client{cfg: cfg, client: hc}
}

func (c *Client) Name() string { return c.cfg.Name }

type searchResponse struct {
    Results []struct {
        Name string `json:"name"`
    } `json:"results"`
}

func (c *Client) Search(ctx context.Context, query string, page int) ([]string, error) {
    q := url.Values{}
    q.Set("q", query)
    q.Set("page", strconv.Itoa(page))
    q.Set("limit", strconv.Itoa(c.cfg.PageSize))

    var body searchResponse
    if err := c.get(ctx, "/search", q, &body); err != nil {
        return nil, fmt.Errorf("%s search: %w", c.cfg.Name, err)
    }
    names := make([]string, 0, len(body.Results))
    for _, r := range body.Results {
        if r.Name != "" {
            names = append(names, r.Name)
        }
    }
    return names, nil
}

type quoteResponse struct {
    Instrument string      `json:"instrument"`
    Price      json.Number `json:"price"`
}

func (c *Client) Price(ctx context.Context, instrument string) (decimal.Decimal, error) {
    q := url.Values{}
    q.Set("instrument", instrument)

    var body quoteResponse
    if err := c.get(ctx, "/quote", q, &body); err != nil {
        return decimal.Decimal{}, err
    }
    price, err := decimal.NewFromString(body.Price.String())
    if err != nil {
        return decimal.Decimal{}, fmt.Errorf("%s quote for %q: bad price %q", c.cfg.Name, instrument, body.Price)
    }
    return price, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
    u := c.cfg.BaseURL + path + "?" + query.Encode()
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
    if err != nil {
        return err
    }
    if c.cfg.APIKey != "" {
        req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
    }
    resp, err := c.client.Do(ctx, req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    switch {
    case resp.StatusCode == http.StatusNotFound:
        _, _ = io.Copy(io.Discard, resp.Body)
        return quotes.ErrUnavailable
    case resp.StatusCode != http.StatusOK:
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
        return fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return fmt.Errorf("decode response: %w", err)
    }
    return nil
}
