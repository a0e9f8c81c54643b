package conversation

import (
    "context"
    "fmt"
    "strings"
    "sync"

    "github.com/rs/zerolog"
    "github.com/shopspring/decimal"

    "stockalertbot/internal/quotes"
    "stockalertbot/internal/registry"
)

// Stage is the per-user position in the conversation flow.
type Stage int

const (
    StageMainMenu Stage = iota
    StageAwaitingQuery
    StageSelectingStock
    StageActiveSelection
    StageAwaitingThreshold
    StageSelectingRemoval
)

// Action tokens rendered as main-menu and sub-menu options.
const (
    tokenSearch     = "search"
    tokenList       = "existing_alerts"
    tokenRemove     = "remove"
    tokenSetAlert   = "set_alert"
    tokenViewPrice  = "view_price"
    tokenShowMore   = "show_more"
    tokenBack       = "back"
    tokenPickPrefix = "pick:"
    tokenRmPrefix   = "rm:"
)

// Session is the transient per-user conversation state. A session that
// returns to the main menu is reset to its zero value.
type Session struct {
    Stage      Stage
    Query      string
    Page       int
    Candidates []string
    Instrument string
}

// Prompter renders text plus an optional ordered option set to a user.
type Prompter interface {
    Prompt(ctx context.Context, userID int64, text string, options []Option) error
}

// Controller drives one finite-state machine per user, turning inbound
// events into registry mutations and outbound prompts.
type Controller struct {
    registry *registry.Registry
    source   quotes.Source
    prompter Prompter
    log      zerolog.Logger
    pageSize int

    mu       sync.Mutex
    sessions map[int64]*Session
}

func New(reg *registry.Registry, source quotes.Source, prompter Prompter, log zerolog.Logger, pageSize int) *Controller {
    if pageSize <= 0 {
        pageSize = 5
    }
    return &Controller{
        registry: reg,
        source:   source,
        prompter: prompter,
        log:      log.With().Str("component", "conversation").Logger(),
        pageSize: pageSize,
        sessions: map[int64]*Session{},
    }
}

// session returns the user's session, creating a fresh main-menu one on
// first contact.
func (c *Controller) session(userID int64) *Session {
    c.mu.Lock()
    defer c.mu.Unlock()
    s, ok := c.sessions[userID]
    if !ok {
        s = &Session{}
        c.sessions[userID] = s
    }
    return s
}

// Stage reports the user's current stage. Mostly useful in tests.
func (c *Controller) Stage(userID int64) Stage {
    return c.session(userID).Stage
}

// Handle feeds one event through the user's FSM. Events for a given user are
// expected to arrive sequentially (one chat, one update stream).
func (c *Controller) Handle(ctx context.Context, ev Event) error {
    userID := ev.User()
    s := c.session(userID)

    switch ev := ev.(type) {
    case Command:
        // Any command resets the conversation.
        *s = Session{}
        return c.mainMenu(ctx, userID, "Welcome to Stock Alert Bot! Choose an option:")
    case Text:
        return c.handleText(ctx, userID, s, strings.TrimSpace(ev.Content))
    case Selection:
        return c.handleSelection(ctx, userID, s, ev.Token)
    default:
        return fmt.Errorf("unknown event type %T", ev)
    }
}

func (c *Controller) handleText(ctx context.Context, userID int64, s *Session, text string) error {
    switch s.Stage {
    case StageAwaitingQuery:
        if text == "" {
            return c.prompter.Prompt(ctx, userID, "Company name cannot be empty. Enter the stock name to search.", nil)
        }
        return c.runSearch(ctx, userID, s, text, 0)

    case StageAwaitingThreshold:
        price, err := decimal.NewFromString(text)
        if err != nil || !price.IsPositive() {
            return c.prompter.Prompt(ctx, userID,
                fmt.Sprintf("%q is not a valid price. Send a positive number, e.g. 320.", text), nil)
        }
        instrument := s.Instrument
        if err := c.registry.SetThreshold(userID, instrument, price); err != nil {
            *s = Session{}
            return c.mainMenu(ctx, userID,
                fmt.Sprintf("Could not set the alert for %s, it is no longer tracked.", instrument))
        }
        *s = Session{}
        return c.mainMenu(ctx, userID,
            fmt.Sprintf("Alert set for %s at ₹%s. You will be notified when the price reaches it.", instrument, price.String()))

    default:
        // Free text means nothing here; re-show the current menu instead of
        // dropping it silently.
        return c.reprompt(ctx, userID, s, "I was not expecting text here.")
    }
}

func (c *Controller) handleSelection(ctx context.Context, userID int64, s *Session, token string) error {
    switch s.Stage {
    case StageMainMenu:
        switch token {
        case tokenSearch:
            s.Stage = StageAwaitingQuery
            return c.prompter.Prompt(ctx, userID, "Enter the stock name to search (e.g. 'Jupiter Wagons').", nil)
        case tokenList:
            return c.renderAlerts(ctx, userID)
        case tokenRemove:
            watches := c.registry.List(userID)
            if len(watches) == 0 {
                return c.mainMenu(ctx, userID, "No alerts to remove.")
            }
            s.Stage = StageSelectingRemoval
            options := make([]Option, 0, len(watches)+1)
            for _, w := range watches {
                options = append(options, Option{Label: w.Instrument, Token: tokenRmPrefix + w.Instrument})
            }
            options = append(options, Option{Label: "Back", Token: tokenBack})
            return c.prompter.Prompt(ctx, userID, "Which alert should I remove?", options)
        }

    case StageSelectingStock:
        switch {
        case token == tokenShowMore:
            return c.runSearch(ctx, userID, s, s.Query, s.Page+1)
        case token == tokenBack:
            *s = Session{}
            return c.mainMenu(ctx, userID, "Back to the main menu.")
        case strings.HasPrefix(token, tokenPickPrefix):
            name := strings.TrimPrefix(token, tokenPickPrefix)
            if !containsFold(s.Candidates, name) {
                // Stale button from an earlier render.
                return c.promptCandidates(ctx, userID, s,
                    fmt.Sprintf("%s is not on the current list. Pick one of these:", name))
            }
            s.Instrument = name
            s.Stage = StageActiveSelection
            return c.promptActiveSelection(ctx, userID, s, fmt.Sprintf("What would you like to do with %s?", name))
        }

    case StageActiveSelection:
        switch token {
        case tokenSetAlert:
            if _, created := c.registry.Upsert(userID, s.Instrument); !created {
                instrument := s.Instrument
                *s = Session{}
                return c.mainMenu(ctx, userID, fmt.Sprintf("Already tracking %s.", instrument))
            }
            s.Stage = StageAwaitingThreshold
            return c.prompter.Prompt(ctx, userID,
                fmt.Sprintf("At what price should I alert you for %s?", s.Instrument), nil)
        case tokenViewPrice:
            instrument := s.Instrument
            price, err := c.source.Price(ctx, instrument)
            *s = Session{}
            if err != nil {
                c.log.Warn().Err(err).Str("instrument", instrument).Msg("price lookup failed")
                return c.mainMenu(ctx, userID, fmt.Sprintf("The price of %s is unavailable right now.", instrument))
            }
            return c.mainMenu(ctx, userID, fmt.Sprintf("%s is currently at ₹%s.", instrument, price.String()))
        case tokenBack:
            s.Stage = StageSelectingStock
            s.Instrument = ""
            return c.promptCandidates(ctx, userID, s, "Pick a stock:")
        }

    case StageSelectingRemoval:
        switch {
        case token == tokenBack:
            *s = Session{}
            return c.mainMenu(ctx, userID, "Back to the main menu.")
        case strings.HasPrefix(token, tokenRmPrefix):
            name := strings.TrimPrefix(token, tokenRmPrefix)
            *s = Session{}
            if err := c.registry.Remove(userID, name); err != nil {
                return c.mainMenu(ctx, userID, fmt.Sprintf("No alert found for %s.", name))
            }
            return c.mainMenu(ctx, userID, fmt.Sprintf("Removed the alert for %s.", name))
        }
    }

    // Token did not fit the stage (stale keyboard, spoofed data): re-show
    // whatever the user should be looking at.
    return c.reprompt(ctx, userID, s, "That option is not available right now.")
}

// runSearch queries the source and moves to (or stays in) candidate
// selection. page 0 is a fresh search, higher pages replace the rendered set.
func (c *Controller) runSearch(ctx context.Context, userID int64, s *Session, query string, page int) error {
    names, err := c.source.Search(ctx, query, page)
    if err != nil {
        c.log.Warn().Err(err).Str("query", query).Msg("search failed")
        names = nil
    }
    if len(names) == 0 {
        if page > 0 {
            // No further pages; keep the current render.
            return c.promptCandidates(ctx, userID, s, "No more matches. Pick one of these:")
        }
        *s = Session{}
        return c.mainMenu(ctx, userID, fmt.Sprintf("No stocks matched %q.", query))
    }
    s.Stage = StageSelectingStock
    s.Query = query
    s.Page = page
    s.Candidates = names
    return c.promptCandidates(ctx, userID, s, "Select a stock:")
}

func (c *Controller) promptCandidates(ctx context.Context, userID int64, s *Session, text string) error {
    options := make([]Option, 0, len(s.Candidates)+2)
    for _, name := range s.Candidates {
        options = append(options, Option{Label: name, Token: tokenPickPrefix + name})
    }
    if len(s.Candidates) == c.pageSize {
        options = append(options, Option{Label: "Show more", Token: tokenShowMore})
    }
    options = append(options, Option{Label: "Back", Token: tokenBack})
    return c.prompter.Prompt(ctx, userID, text, options)
}

func (c *Controller) promptActiveSelection(ctx context.Context, userID int64, s *Session, text string) error {
    return c.prompter.Prompt(ctx, userID, text, []Option{
        {Label: "Set alert", Token: tokenSetAlert},
        {Label: "View price", Token: tokenViewPrice},
        {Label: "Back", Token: tokenBack},
    })
}

func (c *Controller) renderAlerts(ctx context.Context, userID int64) error {
    watches := c.registry.List(userID)
    if len(watches) == 0 {
        return c.mainMenu(ctx, userID, "No alerts set.")
    }
    var b strings.Builder
    b.WriteString("Your alerts:\n")
    for _, w := range watches {
        if w.Status == registry.StatusPendingPrice {
            fmt.Fprintf(&b, "%s — no price set\n", w.Instrument)
            continue
        }
        fmt.Fprintf(&b, "%s — ₹%s\n", w.Instrument, w.TriggerPrice.String())
    }
    return c.mainMenu(ctx, userID, strings.TrimRight(b.String(), "\n"))
}

func (c *Controller) mainMenu(ctx context.Context, userID int64, text string) error {
    return c.prompter.Prompt(ctx, userID, text, []Option{
        {Label: "🔎 Search Stock", Token: tokenSearch},
        {Label: "📋 Existing Alerts", Token: tokenList},
        {Label: "🗑 Remove Alert", Token: tokenRemove},
    })
}

// reprompt re-renders the menu belonging to the user's current stage.
func (c *Controller) reprompt(ctx context.Context, userID int64, s *Session, text string) error {
    switch s.Stage {
    case StageAwaitingQuery:
        return c.prompter.Prompt(ctx, userID, text+" Enter the stock name to search.", nil)
    case StageSelectingStock:
        return c.promptCandidates(ctx, userID, s, text+" Pick a stock:")
    case StageActiveSelection:
        return c.promptActiveSelection(ctx, userID, s, text+" Choose an action:")
    case StageAwaitingThreshold:
        return c.prompter.Prompt(ctx, userID,
            text+fmt.Sprintf(" Send the alert price for %s.", s.Instrument), nil)
    case StageSelectingRemoval:
        *s = Session{}
        return c.mainMenu(ctx, userID, text)
    default:
        return c.mainMenu(ctx, userID, text+" Choose an option:")
    }
}

func containsFold(list []string, name string) bool {
    for _, v := range list {
        if strings.EqualFold(v, name) {
            return true
        }
    }
    return false
}
