package models

import "time"

// Sender identifies who authored a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single entry of the message panel. It is never modified
// after being appended.
type Message struct {
	Content   string
	Sender    Sender
	Error     bool
	Timestamp time.Time
}

// NewUserMessage creates a message authored by the user
func NewUserMessage(content string, at time.Time) Message {
	return Message{Content: content, Sender: SenderUser, Timestamp: at}
}

// NewAssistantMessage creates a reply message
func NewAssistantMessage(content string, at time.Time) Message {
	return Message{Content: content, Sender: SenderAssistant, Timestamp: at}
}

// NewErrorMessage creates an inline error entry. Errors are always shown on
// the assistant side of the panel.
func NewErrorMessage(content string, at time.Time) Message {
	return Message{Content: content, Sender: SenderAssistant, Error: true, Timestamp: at}
}

// IsUser reports whether the user wrote the message
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Time returns the time of day as zero-padded HH:MM
func (m Message) Time() string {
	return FormatTimestamp(m.Timestamp)
}

// FormatTimestamp formats t as HH:MM in local time
func FormatTimestamp(t time.Time) string {
	return t.Format("15:04")
}
