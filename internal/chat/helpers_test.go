package chat

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"

	"github.com/diogo/chatpanel/internal/models"
)

// senderFunc adapts a function to Sender
type senderFunc func(ctx context.Context, message string) (*models.ChatResponse, error)

func (f senderFunc) Send(ctx context.Context, message string) (*models.ChatResponse, error) {
	return f(ctx, message)
}

// recordingView records every notification in order
type recordingView struct {
	mu     sync.Mutex
	events []string
	msgs   []models.Message
}

func (v *recordingView) MessageAppended(msg models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "append:"+string(msg.Sender))
	v.msgs = append(v.msgs, msg)
}

func (v *recordingView) LoadingChanged(loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if loading {
		v.events = append(v.events, "loading:on")
	} else {
		v.events = append(v.events, "loading:off")
	}
}

func (v *recordingView) InputCleared() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "clear")
}

// scriptedDoer is an api.HTTPDoer returning scripted status codes and bodies
type scriptedDoer struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   int
}

type scriptedReply struct {
	status int
	body   string
	err    error
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.calls
	d.calls++
	if idx >= len(d.replies) {
		idx = len(d.replies) - 1
	}
	r := d.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(r.body)),
	}, nil
}

func (d *scriptedDoer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// delayRecorder is an api.Sleeper that records delays without waiting
type delayRecorder struct {
	delays []time.Duration
}

func (r *delayRecorder) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 14, 7, 0, 0, time.Local)
}

func countErrors(msgs []models.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Error {
			n++
		}
	}
	return n
}

func countReplies(msgs []models.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Sender == models.SenderAssistant && !m.Error {
			n++
		}
	}
	return n
}
