package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/require"
)

// fakeReply is one scripted round trip of fakeDoer
type fakeReply struct {
	status int
	body   string
	err    error
}

// fakeDoer implements HTTPDoer with scripted replies and records requests
type fakeDoer struct {
	mu       sync.Mutex
	replies  []fakeReply
	requests []*http.Request
	bodies   []string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)

	idx := len(f.requests) - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	reply := f.replies[idx]
	if reply.err != nil {
		return nil, reply.err
	}

	return &http.Response{
		StatusCode: reply.status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(reply.body)),
	}, nil
}

func (f *fakeDoer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// recordingSleeper records requested delays without waiting
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return s.err
}

func newTestClient(t *testing.T, doer *fakeDoer, sleeper Sleeper, opts ...ClientOption) *Client {
	t.Helper()
	seq := 0
	base := []ClientOption{
		WithEndpoint("http://chat.test/chat"),
		WithHTTPClient(doer),
		WithSleeper(sleeper),
		WithRequestIDFunc(func() string {
			seq++
			return "req-" + string(rune('a'+seq-1))
		}),
	}
	client, err := NewClient(append(base, opts...)...)
	require.NoError(t, err)
	return client
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5001: connect: connection refused")

const successBody = `{"status":"success","response":"hi"}`
