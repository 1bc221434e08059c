package commands

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/diogo/chatpanel/internal/api"
	"github.com/diogo/chatpanel/internal/chat"
	"github.com/diogo/chatpanel/internal/config"
	"github.com/diogo/chatpanel/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// LoadConfig returns the file configuration with env overrides applied.
	LoadConfig func() (config.Config, error)

	// NewClient builds the chat client for the effective configuration.
	NewClient func(cfg config.Config, log zerolog.Logger) (api.ChatClient, error)

	// RunTUI runs the full-screen chat.
	RunTUI func(ctx context.Context, ctrl *chat.Controller, client api.ChatClient, opts tui.Options) error

	// IsTerminal reports whether the line renderer may animate a spinner.
	IsTerminal func() bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		LoadConfig: config.LoadConfig,
		NewClient:  newClient,
		RunTUI: func(ctx context.Context, ctrl *chat.Controller, client api.ChatClient, opts tui.Options) error {
			return tui.Run(ctx, ctrl, client, opts)
		},
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stderr.Fd()))
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// newClient builds the production client from configuration
func newClient(cfg config.Config, log zerolog.Logger) (api.ChatClient, error) {
	return api.NewClient(
		api.WithEndpoint(cfg.Endpoint),
		api.WithRetryPolicy(api.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay(),
		}),
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(log),
	)
}
