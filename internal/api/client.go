// Package api provides the client for the chat endpoint.
package api

import (
	"context"
	"fmt"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diogo/chatpanel/internal/models"
)

// HTTPDoer is the part of tls_client.HttpClient used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatClient defines the operations the controller and the CLI need
type ChatClient interface {
	Send(ctx context.Context, message string) (*models.ChatResponse, error)
	Endpoint() string
}

// Client talks to the chat endpoint
type Client struct {
	httpClient   HTTPDoer
	endpoint     string
	policy       RetryPolicy
	sleeper      Sleeper
	newRequestID func() string
	timeout      time.Duration
	log          zerolog.Logger
}

// Ensure Client implements ChatClient
var _ ChatClient = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithEndpoint sets the chat endpoint URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient replaces the default TLS client
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithRetryPolicy sets the retry policy
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithSleeper sets how the client waits between attempts
func WithSleeper(s Sleeper) ClientOption {
	return func(c *Client) {
		c.sleeper = s
	}
}

// WithRequestIDFunc sets the generator for X-Request-ID values
func WithRequestIDFunc(fn func() string) ClientOption {
	return func(c *Client) {
		c.newRequestID = fn
	}
}

// WithTimeout bounds each attempt
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new Client. Without WithHTTPClient a tls-client with
// a Chrome profile is created.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		endpoint:     models.DefaultEndpoint,
		policy:       DefaultRetryPolicy(),
		sleeper:      ContextSleeper{},
		newRequestID: func() string { return uuid.NewString() },
		timeout:      30 * time.Second,
		log:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}
	if client.policy.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries cannot be negative")
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(timeoutSeconds(client.timeout)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Endpoint returns the chat endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// RetryPolicy returns the active retry policy
func (c *Client) RetryPolicy() RetryPolicy {
	return c.policy
}

func timeoutSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
