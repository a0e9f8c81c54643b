package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog"
    "golang.org/x/sync/errgroup"

    "stockalertbot/internal/config"
    "stockalertbot/internal/conversation"
    "stockalertbot/internal/evaluator"
    "stockalertbot/internal/httpx"
    "stockalertbot/internal/quotes"
    "stockalertbot/internal/quotes/cache"
    "stockalertbot/internal/quotes/memory"
    "stockalertbot/internal/quotes/ratelimit"
    "stockalertbot/internal/quotes/stockapi"
    "stockalertbot/internal/registry"
    "stockalertbot/internal/telegram"
)

func main() {
    log := zerolog.New(os.Stderr).With().Timestamp().Logger()

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        log.Fatal().Err(err).Msg("config")
    }
    if err := cfg.Validate(); err != nil {
        log.Fatal().Err(err).Msg("config")
    }
    if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
        log = log.Level(level)
    }

    httpClient := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)

    source := buildSource(cfg, httpClient)

    client, err := telegram.NewClient(cfg.Telegram.Token, telegram.WithHTTPClient(httpClient.HTTP))
    if err != nil {
        log.Fatal().Err(err).Msg("telegram client")
    }
    bot := telegram.NewBot(client, log, cfg.Telegram.PollTimeoutSec)

    reg := registry.New()
    ctrl := conversation.New(reg, source, bot, log, cfg.Quotes.PageSize)

    policy := evaluator.Policy{Persist: !cfg.Evaluator.OneShot}
    if cfg.Evaluator.Direction == "at_or_above" {
        policy.Direction = evaluator.AtOrAbove
    }
    eval := evaluator.New(reg, source, bot,
        time.Duration(cfg.Evaluator.IntervalSec)*time.Second, policy, log)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    errGroup, errCtx := errgroup.WithContext(ctx)
    errGroup.Go(func() error {
        return bot.Run(errCtx, ctrl)
    })
    errGroup.Go(func() error {
        return eval.Run(errCtx)
    })

    log.Info().
        Str("quote_source", source.Name()).
        Int("eval_interval_sec", cfg.Evaluator.IntervalSec).
        Msg("stock alert bot started")

    if err := errGroup.Wait(); err != nil {
        log.Fatal().Err(err).Msg("stopped")
    }
    log.Info().Msg("stopped")
}

// buildSource assembles the quote source with rate limiting and caching
// according to config: base source, then limiter, then cache outermost.
func buildSource(cfg config.Config, httpClient *httpx.Client) quotes.Source {
    var source quotes.Source
    switch cfg.Quotes.Source {
    case "api":
        source = stockapi.New(stockapi.Config{
            BaseURL:  cfg.Quotes.APIURL,
            APIKey:   cfg.Quotes.APIKey,
            PageSize: cfg.Quotes.PageSize,
        }, httpClient)
    default:
        source = memory.New(cfg.Quotes.PageSize)
    }

    // Prefer token bucket with burst if RPM is set, otherwise min-interval.
    if cfg.Quotes.MaxRequestsPerMinute > 0 {
        rate := float64(cfg.Quotes.MaxRequestsPerMinute) / 60.0
        burst := cfg.Quotes.Burst
        if burst <= 0 {
            burst = 1
        }
        source = &ratelimit.TokenBucketSource{S: source, TB: ratelimit.NewTokenBucket(rate, burst)}
    } else if cfg.Quotes.MinRequestIntervalSec > 0 {
        source = &ratelimit.MinInterval{S: source, Interval: time.Duration(cfg.Quotes.MinRequestIntervalSec) * time.Second}
    }
    if cfg.Quotes.CacheTTLSeconds > 0 {
        source = &cache.Source{S: source, TTL: time.Duration(cfg.Quotes.CacheTTLSeconds) * time.Second, MaxItems: cfg.Quotes.CacheMaxItems}
    }
    return source
}
