package conversation

// Event is an inbound chat event, transport-agnostic.
type Event interface {
    User() int64
}

// Command is a slash-style directive such as start or cancel.
type Command struct {
    UserID int64
    Name   string
}

func (c Command) User() int64 { return c.UserID }

// Text is free-form text in the current conversation context.
type Text struct {
    UserID  int64
    Content string
}

func (t Text) User() int64 { return t.UserID }

// Selection is a discrete choice from a previously rendered option set.
type Selection struct {
    UserID int64
    Token  string
}

func (s Selection) User() int64 { return s.UserID }

// Option is one selectable choice rendered alongside a prompt.
type Option struct {
    Label string
    Token string
}
