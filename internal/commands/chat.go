package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/chatpanel/internal/chat"
	"github.com/diogo/chatpanel/internal/config"
	"github.com/diogo/chatpanel/internal/logging"
	"github.com/diogo/chatpanel/internal/render"
	"github.com/diogo/chatpanel/internal/tui"
)

func newChatCmd(deps *Dependencies, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Press Enter to send, Ctrl+Y to copy the last reply.
Type '/exit', '/quit', press Esc or Ctrl+C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(deps, f)
			if err != nil {
				return err
			}
			return runChat(cmd, deps, cfg)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Dependencies, cfg config.Config) error {
	if cfg.TUITheme != "" && !render.SetTheme(cfg.TUITheme) {
		fmt.Fprintf(deps.Stderr, "Warning: unknown theme %q, using default\n", cfg.TUITheme)
	}
	tui.UpdateTheme()

	logPath, err := config.GetLogPath(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve log file: %w", err)
	}
	log, closeLog, err := logging.OpenFile(logPath, cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := deps.NewClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	ctrl := chat.New(client,
		chat.WithMaxLength(cfg.MaxMessageLength),
		chat.WithLogger(log),
	)

	log.Info().Str("endpoint", client.Endpoint()).Msg("chat session started")

	return deps.RunTUI(cmd.Context(), ctrl, client, tui.Options{
		Endpoint:        client.Endpoint(),
		CopyToClipboard: cfg.CopyToClipboard,
		Markdown:        cfg.Markdown,
	})
}
