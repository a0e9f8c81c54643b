package telegram

import (
    "context"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "stockalertbot/internal/conversation"
)

// handler consumes conversation events produced from Telegram updates.
type handler interface {
    Handle(ctx context.Context, ev conversation.Event) error
}

// Bot bridges the Bot API to the conversation controller: it long-polls for
// updates, translates them into events, and renders prompts and
// notifications back as messages. It implements conversation.Prompter and
// the evaluator's Notifier.
type Bot struct {
    client      *Client
    log         zerolog.Logger
    pollTimeout int
}

func NewBot(client *Client, log zerolog.Logger, pollTimeoutSec int) *Bot {
    if pollTimeoutSec <= 0 {
        pollTimeoutSec = 30
    }
    return &Bot{
        client:      client,
        log:         log.With().Str("component", "telegram").Logger(),
        pollTimeout: pollTimeoutSec,
    }
}

// Run verifies the token, then long-polls for updates until the context is
// canceled, feeding each update to h. Transport errors are logged and
// retried; they never stop the loop.
func (b *Bot) Run(ctx context.Context, h handler) error {
    me, err := b.client.GetMe(ctx)
    if err != nil {
        return err
    }
    b.log.Info().Str("username", me.Username).Msg("bot authorized")

    var offset int64
    for {
        if ctx.Err() != nil {
            b.log.Info().Msg("poller stopped")
            return nil
        }
        updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
        if err != nil {
            if ctx.Err() != nil {
                b.log.Info().Msg("poller stopped")
                return nil
            }
            b.log.Warn().Err(err).Msg("getUpdates failed, backing off")
            select {
            case <-ctx.Done():
                return nil
            case <-time.After(2 * time.Second):
            }
            continue
        }
        for _, u := range updates {
            if u.UpdateID >= offset {
                offset = u.UpdateID + 1
            }
            b.dispatch(ctx, h, u)
        }
    }
}

// dispatch converts one update into a conversation event.
func (b *Bot) dispatch(ctx context.Context, h handler, u Update) {
    var ev conversation.Event
    switch {
    case u.CallbackQuery != nil:
        cb := u.CallbackQuery
        if err := b.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
            b.log.Warn().Err(err).Msg("answerCallbackQuery failed")
        }
        userID := cb.From.ID
        if cb.Message != nil {
            userID = cb.Message.Chat.ID
        }
        ev = conversation.Selection{UserID: userID, Token: cb.Data}
    case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
        name := strings.TrimPrefix(u.Message.Text, "/")
        if i := strings.IndexAny(name, " @"); i >= 0 {
            name = name[:i]
        }
        ev = conversation.Command{UserID: u.Message.Chat.ID, Name: name}
    case u.Message != nil:
        ev = conversation.Text{UserID: u.Message.Chat.ID, Content: u.Message.Text}
    default:
        return
    }
    if err := h.Handle(ctx, ev); err != nil {
        b.log.Error().Err(err).Int64("user", ev.User()).Msg("handling update failed")
    }
}

// Prompt renders text with an optional inline keyboard, one option per row.
func (b *Bot) Prompt(ctx context.Context, userID int64, text string, options []conversation.Option) error {
    var keyboard [][]InlineKeyboardButton
    for _, o := range options {
        keyboard = append(keyboard, []InlineKeyboardButton{{Text: o.Label, CallbackData: o.Token}})
    }
    return b.client.SendMessage(ctx, userID, text, keyboard)
}

// Notify delivers a plain push message.
func (b *Bot) Notify(ctx context.Context, userID int64, text string) error {
    return b.client.SendMessage(ctx, userID, text, nil)
}
