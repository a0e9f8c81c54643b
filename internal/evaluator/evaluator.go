package evaluator

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/rs/zerolog"
    "github.com/shopspring/decimal"
    "golang.org/x/sync/errgroup"

    "stockalertbot/internal/registry"
)

// Direction selects which side of the threshold fires an alert.
type Direction int

const (
    // AtOrBelow fires when the price falls to or below the threshold.
    AtOrBelow Direction = iota
    // AtOrAbove fires when the price rises to or above the threshold.
    AtOrAbove
)

// Policy controls trigger semantics. The zero value is the default
// behaviour: one-shot, buy-the-dip.
type Policy struct {
    Direction Direction
    // Persist keeps a fired watch active; it will notify again on every
    // cycle the condition holds. Default (false) is one-shot: notify once,
    // remove the watch.
    Persist bool
}

// Source is the price lookup the evaluator needs. Satisfied by
// quotes.Source.
type Source interface {
    Price(ctx context.Context, instrument string) (decimal.Decimal, error)
}

// Notifier delivers a push message to a chat. At-least-once, fire-and-forget
// from the evaluator's perspective.
type Notifier interface {
    Notify(ctx context.Context, userID int64, text string) error
}

// Evaluator periodically scans the registry and fires notifications for
// watches whose trigger condition holds.
type Evaluator struct {
    registry *registry.Registry
    source   Source
    notifier Notifier
    interval time.Duration
    policy   Policy
    maxConc  int
    log      zerolog.Logger
}

func New(reg *registry.Registry, source Source, notifier Notifier, interval time.Duration, policy Policy, log zerolog.Logger) *Evaluator {
    if interval <= 0 {
        interval = 30 * time.Second
    }
    return &Evaluator{
        registry: reg,
        source:   source,
        notifier: notifier,
        interval: interval,
        policy:   policy,
        maxConc:  4,
        log:      log.With().Str("component", "evaluator").Logger(),
    }
}

// Run executes one cycle per interval until the context is canceled.
func (e *Evaluator) Run(ctx context.Context) error {
    ticker := time.NewTicker(e.interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            e.log.Info().Msg("evaluator stopped")
            return nil
        case <-ticker.C:
            e.Cycle(ctx)
        }
    }
}

// Cycle runs one full evaluation pass. A failing lookup skips only its own
// instrument; the rest of the pass proceeds.
func (e *Evaluator) Cycle(ctx context.Context) {
    watches := e.registry.ActiveSnapshot()
    if len(watches) == 0 {
        return
    }

    // Group by instrument so ten users watching the same stock cost one
    // quote lookup.
    groups := map[string][]registry.Watch{}
    for _, w := range watches {
        key := strings.ToLower(w.Instrument)
        groups[key] = append(groups[key], w)
    }

    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(e.maxConc)
    for _, group := range groups {
        group := group
        g.Go(func() error {
            e.evaluate(gctx, group)
            return nil
        })
    }
    _ = g.Wait()
}

// evaluate fetches one instrument's price and settles every watch in the
// group against it.
func (e *Evaluator) evaluate(ctx context.Context, group []registry.Watch) {
    instrument := group[0].Instrument
    price, err := e.source.Price(ctx, instrument)
    if err != nil {
        e.log.Warn().Err(err).Str("instrument", instrument).Msg("skipping instrument this cycle")
        return
    }

    for _, w := range group {
        if !e.triggered(price, w.TriggerPrice) {
            continue
        }
        text := fmt.Sprintf("🚨 ALERT: %s has reached ₹%s!", w.Instrument, price.String())
        if e.policy.Persist {
            if err := e.notifier.Notify(ctx, w.UserID, text); err != nil {
                e.log.Error().Err(err).Int64("user", w.UserID).Msg("notify failed")
            }
            continue
        }
        // One-shot: claim the fire first so a racing cycle can never
        // deliver the same watch twice, then remove it.
        if !e.registry.MarkFired(w.UserID, w.ID) {
            continue
        }
        if err := e.notifier.Notify(ctx, w.UserID, text); err != nil {
            e.log.Error().Err(err).Int64("user", w.UserID).Msg("notify failed")
        }
        e.registry.RemoveByID(w.UserID, w.ID)
    }
}

func (e *Evaluator) triggered(current, threshold decimal.Decimal) bool {
    switch e.policy.Direction {
    case AtOrAbove:
        return current.Cmp(threshold) >= 0
    default:
        return current.Cmp(threshold) <= 0
    }
}
