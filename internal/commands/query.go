package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatpanel/internal/chat"
	"github.com/diogo/chatpanel/internal/logging"
	"github.com/diogo/chatpanel/internal/models"
	"github.com/diogo/chatpanel/internal/render"
)

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorTextDim = lipgloss.Color("#565f89")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorError   = lipgloss.Color("#f7768e")
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	messageStyle = lipgloss.NewStyle().Foreground(colorText)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	timeStyle    = lipgloss.NewStyle().Foreground(colorTextDim)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

// newSpinner creates a new animated spinner
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	char := spinnerStyle.Render(chars[s.frame%len(chars)])
	dots := strings.Repeat(".", (s.frame/3)%4)
	fmt.Fprintf(s.out, "\r\033[K%s %s%s", char, messageStyle.Render(s.message), dots)
}

// halt stops the animation and waits for the line to be cleared
func (s *spinner) halt() {
	s.mu.Lock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
	s.mu.Unlock()
	<-s.done
}

// lineView prints controller messages line by line. Replies go to out,
// errors to errOut. On a terminal replies are rendered as markdown and the
// loading indicator is animated on errOut.
type lineView struct {
	out     io.Writer
	errOut  io.Writer
	animate bool
	md      render.Options
	spin    *spinner
}

func (v *lineView) MessageAppended(msg models.Message) {
	if msg.IsUser() {
		return
	}
	v.stopSpinner()
	if msg.Error {
		fmt.Fprintf(v.errOut, "%s %s\n", errorStyle.Render("Error:"), msg.Content)
		return
	}
	if !v.animate {
		fmt.Fprintln(v.out, msg.Content)
		return
	}
	fmt.Fprintln(v.out, render.Reply(msg.Content, v.md))
	fmt.Fprintln(v.errOut, timeStyle.Render(msg.Time()))
}

func (v *lineView) LoadingChanged(loading bool) {
	if !v.animate {
		return
	}
	if loading {
		v.spin = newSpinner(v.errOut, "Waiting for reply")
		v.spin.start()
		return
	}
	v.stopSpinner()
}

// stopSpinner clears the indicator before anything else is printed
func (v *lineView) stopSpinner() {
	if v.spin != nil {
		v.spin.halt()
		v.spin = nil
	}
}

func (v *lineView) InputCleared() {}

// runQuery submits a single message through the controller and prints the
// outcome. Any rendered error maps to exit status 1.
func runQuery(ctx context.Context, deps *Dependencies, f *flags, message string) error {
	cfg, err := loadSettings(deps, f)
	if err != nil {
		return err
	}

	log := logging.Nop()
	if cfg.Verbose {
		log = logging.NewConsole(deps.Stderr, true)
	}

	client, err := deps.NewClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	animate := deps.IsTerminal()
	view := &lineView{
		out:     deps.Stdout,
		errOut:  deps.Stderr,
		animate: animate,
		md:      render.OptionsFromConfig(cfg.Markdown, 100),
	}

	ctrl := chat.New(client,
		chat.WithView(view),
		chat.WithMaxLength(cfg.MaxMessageLength),
		chat.WithLogger(log),
	)

	switch outcome := ctrl.Submit(ctx, message); outcome {
	case chat.OutcomeReplied:
		return nil
	default:
		log.Debug().Stringer("outcome", outcome).Msg("query did not produce a reply")
		return &exitError{code: 1}
	}
}
