package telegram

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
)

const defaultBaseURL = "https://api.telegram.org"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=telegram_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
    Do(req *http.Request) (*http.Response, error)
}

// Client is a minimal Telegram Bot API client covering what the bot needs:
// getMe, getUpdates long polling, sendMessage with inline keyboards and
// answerCallbackQuery.
type Client struct {
    // baseURL is the API host, swappable for tests.
    baseURL string
    // token is the bot access token.
    token string
    // httpClient performs the requests.
    httpClient HTTPClient
}

// ClientOption is a configuration option for the client.
type ClientOption func(*Client)

// WithBaseURL sets the API host.
func WithBaseURL(baseURL string) ClientOption {
    return func(c *Client) {
        c.baseURL = baseURL
    }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
    return func(c *Client) {
        c.httpClient = httpClient
    }
}

// NewClient creates a Bot API client. The token is required.
func NewClient(token string, options ...ClientOption) (*Client, error) {
    if token == "" {
        return nil, errors.New("telegram: token is required")
    }
    client := &Client{
        baseURL:    defaultBaseURL,
        token:      token,
        httpClient: http.DefaultClient,
    }
    for _, option := range options {
        option(client)
    }
    return client, nil
}

// User is the bot's own identity, from getMe.
type User struct {
    ID       int64  `json:"id"`
    Username string `json:"username"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
    ID int64 `json:"id"`
}

// Message is an inbound or outbound chat message.
type Message struct {
    MessageID int64  `json:"message_id"`
    Chat      Chat   `json:"chat"`
    Text      string `json:"text"`
}

// CallbackQuery is a button press on an inline keyboard.
type CallbackQuery struct {
    ID      string   `json:"id"`
    From    User     `json:"from"`
    Message *Message `json:"message"`
    Data    string   `json:"data"`
}

// Update is one item from getUpdates.
type Update struct {
    UpdateID      int64          `json:"update_id"`
    Message       *Message       `json:"message"`
    CallbackQuery *CallbackQuery `json:"callback_query"`
}

// InlineKeyboardButton is one button of an inline keyboard.
type InlineKeyboardButton struct {
    Text         string `json:"text"`
    CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
    InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
    OK          bool            `json:"ok"`
    Description string          `json:"description"`
    Result      json.RawMessage `json:"result"`
}

// GetMe verifies the token and returns the bot's identity.
func (c *Client) GetMe(ctx context.Context) (User, error) {
    var user User
    if err := c.call(ctx, "getMe", nil, &user); err != nil {
        return User{}, err
    }
    return user, nil
}

// GetUpdates long-polls for updates with ids >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
    payload := map[string]any{
        "offset":          offset,
        "timeout":         timeoutSec,
        "allowed_updates": []string{"message", "callback_query"},
    }
    var updates []Update
    if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
        return nil, err
    }
    return updates, nil
}

// SendMessage sends text to a chat, with an optional inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]InlineKeyboardButton) error {
    payload := map[string]any{
        "chat_id": chatID,
        "text":    text,
    }
    if len(keyboard) > 0 {
        payload["reply_markup"] = inlineKeyboardMarkup{InlineKeyboard: keyboard}
    }
    return c.call(ctx, "sendMessage", payload, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing a spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
    return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackQueryID}, nil)
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
    var body io.Reader
    if payload != nil {
        b, err := json.Marshal(payload)
        if err != nil {
            return fmt.Errorf("telegram %s: marshal: %w", method, err)
        }
        body = bytes.NewReader(b)
    }
    url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
    if err != nil {
        return fmt.Errorf("telegram %s: %w", method, err)
    }
    req.Header.Set("Content-Type", "application/json")

    resp, err := c.httpClient.Do(req)
    if err != nil {
        return fmt.Errorf("telegram %s: %w", method, err)
    }
    defer resp.Body.Close()

    var envelope apiResponse
    if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
        return fmt.Errorf("telegram %s: decode: %w", method, err)
    }
    if !envelope.OK {
        return fmt.Errorf("telegram %s: api error: %s", method, envelope.Description)
    }
    if out != nil {
        if err := json.Unmarshal(envelope.Result, out); err != nil {
            return fmt.Errorf("telegram %s: decode result: %w", method, err)
        }
    }
    return nil
}
