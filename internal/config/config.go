package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"

    "github.com/joho/godotenv"
)

type Telegram struct {
    Token          string `json:"token"`
    PollTimeoutSec int    `json:"poll_timeout_sec"`
}

type Quotes struct {
    // Source selects the implementation: "memory" or "api".
    Source                string `json:"source"`
    APIURL                string `json:"api_url"`
    APIKey                string `json:"api_key"`
    PageSize              int    `json:"page_size"`
    CacheTTLSeconds       int    `json:"cache_ttl_sec"`
    CacheMaxItems         int    `json:"cache_max_items"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
}

type Evaluator struct {
    IntervalSec int    `json:"interval_sec"`
    // Direction is "at_or_below" (buy the dip, default) or "at_or_above".
    Direction string `json:"direction"`
    OneShot   bool   `json:"one_shot"`
}

type Config struct {
    LogLevel          string    `json:"log_level"`
    RequestTimeoutSec int       `json:"request_timeout_sec"`
    Telegram          Telegram  `json:"telegram"`
    Quotes            Quotes    `json:"quotes"`
    Evaluator         Evaluator `json:"evaluator"`
}

func Default() Config {
    return Config{
        LogLevel:          "info",
        RequestTimeoutSec: 10,
        Telegram: Telegram{
            PollTimeoutSec: 30,
        },
        Quotes: Quotes{
            Source:          "memory",
            PageSize:        5,
            CacheTTLSeconds: 15,
            CacheMaxItems:   10000,
        },
        Evaluator: Evaluator{
            IntervalSec: 30,
            Direction:   "at_or_below",
            OneShot:     true,
        },
    }
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. A .env file, when present, and environment
// variables override file values.
func Load(path string) (Config, error) {
    _ = godotenv.Load()

    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

// Validate reports startup-fatal problems.
func (c Config) Validate() error {
    if c.Telegram.Token == "" {
        return errors.New("missing TELEGRAM_TOKEN: set it in your environment or .env file")
    }
    switch c.Evaluator.Direction {
    case "at_or_below", "at_or_above":
    default:
        return fmt.Errorf("invalid TRIGGER_DIRECTION %q (want at_or_below or at_or_above)", c.Evaluator.Direction)
    }
    if c.Quotes.Source != "memory" && c.Quotes.Source != "api" {
        return fmt.Errorf("invalid QUOTE_SOURCE %q (want memory or api)", c.Quotes.Source)
    }
    if c.Quotes.Source == "api" && c.Quotes.APIURL == "" {
        return errors.New("QUOTE_SOURCE=api requires QUOTE_API_URL")
    }
    return nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("LOG_LEVEL"); v != "" {
        cfg.LogLevel = v
    }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x > 0 {
            cfg.RequestTimeoutSec = x
        }
    }
    if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
        cfg.Telegram.Token = v
    }
    if v := os.Getenv("POLL_TIMEOUT_SEC"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x > 0 {
            cfg.Telegram.PollTimeoutSec = x
        }
    }
    if v := os.Getenv("QUOTE_SOURCE"); v != "" {
        cfg.Quotes.Source = strings.ToLower(v)
    }
    if v := os.Getenv("QUOTE_API_URL"); v != "" {
        cfg.Quotes.APIURL = v
    }
    if v := os.Getenv("QUOTE_API_KEY"); v != "" {
        cfg.Quotes.APIKey = v
    }
    if v := os.Getenv("PAGE_SIZE"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x > 0 {
            cfg.Quotes.PageSize = x
        }
    }
    if v := os.Getenv("QUOTE_CACHE_TTL_SEC"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x >= 0 {
            cfg.Quotes.CacheTTLSeconds = x
        }
    }
    if v := os.Getenv("QUOTE_CACHE_MAX_ITEMS"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x > 0 {
            cfg.Quotes.CacheMaxItems = x
        }
    }
    if v := os.Getenv("QUOTE_MAX_RPM"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x >= 0 {
            cfg.Quotes.MaxRequestsPerMinute = x
        }
    }
    if v := os.Getenv("QUOTE_MIN_INTERVAL_SEC"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x >= 0 {
            cfg.Quotes.MinRequestIntervalSec = x
        }
    }
    if v := os.Getenv("QUOTE_BURST"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x > 0 {
            cfg.Quotes.Burst = x
        }
    }
    if v := os.Getenv("EVAL_INTERVAL_SEC"); v != "" {
        var x int
        fmt.Sscanf(v, "%d", &x)
        if x > 0 {
            cfg.Evaluator.IntervalSec = x
        }
    }
    if v := os.Getenv("TRIGGER_DIRECTION"); v != "" {
        cfg.Evaluator.Direction = strings.ToLower(v)
    }
    if v := os.Getenv("ONE_SHOT"); v != "" {
        switch strings.ToLower(v) {
        case "1", "true", "yes", "y":
            cfg.Evaluator.OneShot = true
        case "0", "false", "no", "n":
            cfg.Evaluator.OneShot = false
        }
    }
}
