// Package chat implements the chat controller: it validates input, keeps the
// append-only message list and the loading flag, and drives one send at a
// time through a Sender.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	apierrors "github.com/diogo/chatpanel/internal/errors"
	"github.com/diogo/chatpanel/internal/models"
)

// Sender delivers a message to the chat endpoint, retrying as it sees fit
type Sender interface {
	Send(ctx context.Context, message string) (*models.ChatResponse, error)
}

// View is notified of controller state changes. Front ends register one to
// keep their rendering in sync; every method is called outside the
// controller's lock.
type View interface {
	MessageAppended(msg models.Message)
	LoadingChanged(loading bool)
	InputCleared()
}

// Outcome describes what a submission led to
type Outcome int

const (
	// OutcomeIgnored means a send was already in flight
	OutcomeIgnored Outcome = iota
	// OutcomeRejected means local validation failed
	OutcomeRejected
	// OutcomePending means the message was accepted and awaits Complete
	OutcomePending
	// OutcomeReplied means an assistant reply was rendered
	OutcomeReplied
	// OutcomeFailed means an error message was rendered
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRejected:
		return "rejected"
	case OutcomePending:
		return "pending"
	case OutcomeReplied:
		return "replied"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Controller owns the message list and the loading state
type Controller struct {
	sender    Sender
	view      View
	maxLength int
	now       func() time.Time
	log       zerolog.Logger

	mu       sync.Mutex
	loading  bool
	messages []models.Message
}

// Option configures a Controller
type Option func(*Controller)

// WithView registers the view notified of state changes
func WithView(v View) Option {
	return func(c *Controller) {
		c.view = v
	}
}

// WithMaxLength sets the maximum message length in characters
func WithMaxLength(n int) Option {
	return func(c *Controller) {
		c.maxLength = n
	}
}

// WithClock sets the time source used for message timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New creates a Controller in the idle state
func New(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:    sender,
		maxLength: models.DefaultMaxMessageLength,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetView registers v, replacing any previous view
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
}

// Submit runs a full submission: Accept, Send, Complete. It blocks until the
// reply or the final error has been rendered. A call made while another
// submission is in flight is a no-op.
func (c *Controller) Submit(ctx context.Context, raw string) Outcome {
	text, outcome := c.Accept(raw)
	if outcome != OutcomePending {
		return outcome
	}

	resp, err := c.sender.Send(ctx, text)
	return c.Complete(resp, err)
}

// Accept performs the synchronous half of a submission. On success the user
// message is appended, the input cleared, loading set, and the trimmed text
// returned with OutcomePending; the caller must then send it and pass the
// result to Complete.
func (c *Controller) Accept(raw string) (string, Outcome) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		c.log.Debug().Msg("submit ignored while loading")
		return "", OutcomeIgnored
	}

	text := strings.TrimSpace(raw)
	if err := c.validate(text); err != nil {
		msg := c.appendLocked(models.NewErrorMessage(apierrors.UserMessage(err), c.now()))
		view := c.view
		c.mu.Unlock()

		c.log.Debug().Err(err).Msg("submit rejected")
		if view != nil {
			view.MessageAppended(msg)
		}
		return "", OutcomeRejected
	}

	msg := c.appendLocked(models.NewUserMessage(text, c.now()))
	c.loading = true
	view := c.view
	c.mu.Unlock()

	if view != nil {
		view.MessageAppended(msg)
		view.InputCleared()
		view.LoadingChanged(true)
	}
	return text, OutcomePending
}

// Complete renders the result of the send started by Accept and returns the
// controller to idle. Calls without a pending submission are ignored.
func (c *Controller) Complete(resp *models.ChatResponse, err error) Outcome {
	var msg models.Message
	outcome := OutcomeReplied
	at := c.now()

	switch {
	case err != nil:
		msg = models.NewErrorMessage(apierrors.UserMessage(err), at)
		outcome = OutcomeFailed
	case resp.IsSuccess():
		msg = models.NewAssistantMessage(resp.Text(), at)
	default:
		text := models.TextServerError
		if resp != nil && resp.Error != "" {
			text = resp.Error
		}
		msg = models.NewErrorMessage(text, at)
		outcome = OutcomeFailed
	}

	c.mu.Lock()
	if !c.loading {
		c.mu.Unlock()
		c.log.Warn().Msg("completion without a pending submit")
		return OutcomeIgnored
	}
	c.appendLocked(msg)
	c.loading = false
	view := c.view
	c.mu.Unlock()

	if err != nil {
		c.log.Error().Err(err).Msg("chat send failed")
	}
	if view != nil {
		view.MessageAppended(msg)
		view.LoadingChanged(false)
	}
	return outcome
}

// validate checks trimmed input against the local rules
func (c *Controller) validate(text string) error {
	if text == "" {
		return apierrors.NewEmptyMessageError()
	}
	if n := utf8.RuneCountInString(text); n > c.maxLength {
		return apierrors.NewMaxLengthError(n, c.maxLength)
	}
	return nil
}

func (c *Controller) appendLocked(msg models.Message) models.Message {
	c.messages = append(c.messages, msg)
	return msg
}

// CheckLength returns the character count of the raw input and whether it
// exceeds the maximum. Front ends use it for the live "invalid" marker.
func (c *Controller) CheckLength(raw string) (int, bool) {
	n := utf8.RuneCountInString(raw)
	return n, n > c.maxLength
}

// Loading reports whether a send is in flight
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Messages returns a copy of the rendered messages, oldest first
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of rendered messages
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// LastReply returns the most recent assistant reply that is not an error
func (c *Controller) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		m := c.messages[i]
		if m.Sender == models.SenderAssistant && !m.Error {
			return m.Content, true
		}
	}
	return "", false
}

// MaxLength returns the configured maximum message length
func (c *Controller) MaxLength() int {
	return c.maxLength
}
