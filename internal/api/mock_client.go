package api

import (
	"context"
	"sync"

	"github.com/diogo/chatpanel/internal/models"
)

// MockResult is one scripted outcome of MockClient.Send
type MockResult struct {
	Response *models.ChatResponse
	Err      error
}

// MockClient is a mock implementation of ChatClient for testing.
// Results are returned in order; the last one repeats once exhausted.
type MockClient struct {
	Results     []MockResult
	EndpointVal string

	// Block, when set, is waited on before each Send returns
	Block chan struct{}

	mu       sync.Mutex
	calls    int
	messages []string
}

// Ensure MockClient implements ChatClient
var _ ChatClient = (*MockClient)(nil)

// Send records the call and returns the next scripted result
func (m *MockClient) Send(ctx context.Context, message string) (*models.ChatResponse, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.messages = append(m.messages, message)
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(m.Results) == 0 {
		return &models.ChatResponse{Status: models.StatusSuccess}, nil
	}
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	r := m.Results[idx]
	return r.Response, r.Err
}

// Endpoint returns EndpointVal
func (m *MockClient) Endpoint() string {
	return m.EndpointVal
}

// Calls returns how many times Send was called
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Messages returns the messages passed to Send
func (m *MockClient) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}

// Success returns a scripted success envelope
func Success(text string) MockResult {
	return MockResult{Response: &models.ChatResponse{Status: models.StatusSuccess, Response: text}}
}

// Failure returns a scripted error
func Failure(err error) MockResult {
	return MockResult{Err: err}
}
