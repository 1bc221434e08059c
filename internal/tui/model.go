package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatpanel/internal/chat"
	"github.com/diogo/chatpanel/internal/config"
	"github.com/diogo/chatpanel/internal/models"
	"github.com/diogo/chatpanel/internal/render"
)

// sendResultMsg carries the outcome of a send back into the update loop
type sendResultMsg struct {
	resp *models.ChatResponse
	err  error
}

var scrollKeys = map[string]bool{
	"up":     true,
	"down":   true,
	"pgup":   true,
	"pgdown": true,
}

// Options configures the chat TUI
type Options struct {
	Endpoint        string
	CopyToClipboard bool
	Markdown        config.MarkdownConfig
}

// panelEvents collects controller notifications between two updates.
// The controller is only driven from Update, so no locking is needed.
type panelEvents struct {
	appended     int
	inputCleared bool
	loading      *bool
}

func (e *panelEvents) MessageAppended(models.Message) { e.appended++ }
func (e *panelEvents) InputCleared()                  { e.inputCleared = true }
func (e *panelEvents) LoadingChanged(loading bool)    { e.loading = &loading }

func (e *panelEvents) reset() {
	*e = panelEvents{}
}

// Model represents the TUI state
type Model struct {
	ctrl   *chat.Controller
	sender chat.Sender
	events *panelEvents
	opts   Options
	ctx    context.Context

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ready  bool
	notice string

	copyFn func(string) error

	width  int
	height int
}

// NewModel creates the chat TUI model. The controller's view is replaced by
// the model's own event collector.
func NewModel(ctx context.Context, ctrl *chat.Controller, sender chat.Sender, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	// Over-length input is allowed in the field so it can be flagged and
	// rejected on submit.
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	events := &panelEvents{}
	ctrl.SetView(events)

	return Model{
		ctrl:     ctrl,
		sender:   sender,
		events:   events,
		opts:     opts,
		ctx:      ctx,
		textarea: ta,
		spinner:  s,
		copyFn:   clipboard.WriteAll,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 2
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			// An in-flight send always runs to completion
			if !m.ctrl.Loading() {
				return m, tea.Quit
			}
			return m, nil

		case "ctrl+y":
			m.copyLastReply()
			return m, nil

		case "enter":
			if m.ctrl.Loading() {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "/exit" || input == "/quit" {
				return m, tea.Quit
			}
			return m.submit()
		}

	case sendResultMsg:
		outcome := m.ctrl.Complete(msg.resp, msg.err)
		m.applyEvents()
		if outcome == chat.OutcomeReplied && m.opts.CopyToClipboard {
			m.copyLastReply()
		}
		return m, textarea.Blink

	case spinner.TickMsg:
		if m.ctrl.Loading() {
			m.spinner, cmd = m.spinner.Update(msg)
			m.updateViewport()
			cmds = append(cmds, cmd)
		}
	}

	// Keys reach the input only while it is enabled
	if !m.ctrl.Loading() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.notice = ""
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Letter keys belong to the input; only paging keys scroll the panel
	if key, ok := msg.(tea.KeyMsg); !ok || scrollKeys[key.String()] {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit hands the input to the controller and starts the send when accepted
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.notice = ""
	text, outcome := m.ctrl.Accept(m.textarea.Value())
	m.applyEvents()

	if outcome != chat.OutcomePending {
		return m, nil
	}

	return m, tea.Batch(m.send(text), m.spinner.Tick)
}

// send creates a command that runs the send-with-retry loop
func (m Model) send(text string) tea.Cmd {
	ctx := m.ctx
	sender := m.sender
	return func() tea.Msg {
		resp, err := sender.Send(ctx, text)
		return sendResultMsg{resp: resp, err: err}
	}
}

// applyEvents syncs input and panel with the controller notifications
func (m *Model) applyEvents() {
	if m.events.inputCleared {
		m.textarea.Reset()
	}
	if m.events.loading != nil {
		if *m.events.loading {
			m.textarea.Blur()
		} else {
			m.textarea.Focus()
		}
	}
	if m.events.appended > 0 || m.events.loading != nil {
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	m.events.reset()
}

func (m *Model) copyLastReply() {
	reply, ok := m.ctrl.LastReply()
	if !ok {
		m.notice = "Nothing to copy yet"
		return
	}
	if err := m.copyFn(reply); err != nil {
		m.notice = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.notice = "Reply copied to clipboard"
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.Endpoint),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	messagesContent := m.viewport.View()
	if m.ctrl.Len() == 0 && !m.ctrl.Loading() {
		messagesContent = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	sections = append(sections, m.renderInput(contentWidth))
	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	content := lipgloss.JoinVertical(lipgloss.Center,
		welcomeTitleStyle.Width(width).Align(lipgloss.Center).Render("Welcome"),
		welcomeStyle.Width(width).Render("Start a conversation by typing a message below"),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderInput draws the input panel with its live length counter.
// Over-length input switches the panel to the invalid style.
func (m Model) renderInput(width int) string {
	count, over := m.ctrl.CheckLength(m.textarea.Value())

	counter := counterStyle.Render(fmt.Sprintf("%d/%d", count, m.ctrl.MaxLength()))
	style := inputPanelStyle
	if over {
		counter = counterOverStyle.Render(fmt.Sprintf("%d/%d too long", count, m.ctrl.MaxLength()))
		style = invalidInputStyle
	}

	label := inputLabelStyle.Render("You")
	if m.ctrl.Loading() {
		label = hintStyle.Render("Waiting for reply...")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, label, " ", counter),
		m.textarea.View(),
	)
	return style.Width(width).Render(content)
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy reply"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	bar := strings.Join(items, "  │  ")
	if m.notice != "" {
		bar = noticeStyle.Render(m.notice) + "  │  " + bar
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the panel with all messages and, while a send is
// in flight, the loading indicator as its last entry
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	mdOpts := render.OptionsFromConfig(m.opts.Markdown, bubbleWidth-4)

	for i, msg := range m.ctrl.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}
		stamp := timeStyle.Render(msg.Time())

		switch {
		case msg.IsUser():
			content.WriteString(userLabelStyle.Render("You") + " " + stamp + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		case msg.Error:
			content.WriteString(errorLabelStyle.Render("⚠ Error") + " " + stamp + "\n")
			content.WriteString(errorBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		default:
			content.WriteString(assistantLabelStyle.Render("Assistant") + " " + stamp + "\n")
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(render.Reply(msg.Content, mdOpts)))
		}
		content.WriteString("\n")
	}

	if m.ctrl.Loading() {
		content.WriteString("\n" + m.spinner.View() + loadingStyle.Render(" Thinking..."))
	}

	m.viewport.SetContent(content.String())
}

// Run starts the chat TUI
func Run(ctx context.Context, ctrl *chat.Controller, sender chat.Sender, opts Options) error {
	m := NewModel(ctx, ctrl, sender, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
