// Package commands provides CLI commands for chatpanel.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/chatpanel/internal/config"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// flags holds the global flag values of one command tree
type flags struct {
	endpoint string
	verbose  bool
	file     string
}

// exitError carries a process exit status. Its message has already been
// shown to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCmd creates the command tree bound to deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "chatpanel [message]",
		Short: "Terminal chat client for a /chat endpoint",
		Long: `chatpanel sends messages to a chat backend and renders the replies.
Failed sends are retried with a linear backoff; rate-limited sends are not.

Examples:
  chatpanel chat                        Start interactive chat
  chatpanel "What is Go?"               Send a single message
  chatpanel -f message.md               Read the message from a file
  cat message.md | chatpanel            Read the message from stdin
  chatpanel config set endpoint http://localhost:5001/chat`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "chatpanel %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if f.file != "" {
				data, err := os.ReadFile(f.file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return runQuery(cmd.Context(), deps, f, string(data))
			}

			if hasPipedInput(deps.Stdin) {
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return runQuery(cmd.Context(), deps, f, string(data))
			}

			if len(args) > 0 {
				return runQuery(cmd.Context(), deps, f, args[0])
			}

			return cmd.Help()
		},
	}

	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVar(&f.endpoint, "endpoint", "", "Chat endpoint URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&f.verbose, "verbose", false, "Enable debug logging")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read message from file")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(deps, f))
	cmd.AddCommand(newConfigCmd(deps))

	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := NewDependencies()
	code := run(ctx, NewRootCmd(deps), deps.Stderr)
	stop()
	os.Exit(code)
}

// run executes cmd and maps its error to an exit status
func run(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// hasPipedInput reports whether r is a non-terminal stdin
func hasPipedInput(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadSettings returns the effective configuration: flags over env over
// file over defaults
func loadSettings(deps *Dependencies, f *flags) (config.Config, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	if f.endpoint != "" {
		cfg.Endpoint = f.endpoint
	}
	if f.verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
