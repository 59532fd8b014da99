// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	core "github.com/jeranaias/mobileai/internal/chat"
	"github.com/jeranaias/mobileai/internal/model"
	"github.com/jeranaias/mobileai/internal/storage"
	"github.com/jeranaias/mobileai/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// mode selects what the body of the screen shows.
type mode int

const (
	modeChat mode = iota
	modeSettings
	modeHistory
)

// Layout heights outside the viewport.
const (
	headerHeight = 1
	inputHeight  = 3
	inputChrome  = 1 // top border
	statusHeight = 1
)

// Watcher reports store changes. *storage.ConversationStore implements it.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Options configures a Model.
type Options struct {
	// Controller owns the conversation state. Required.
	Controller *core.Controller
	// Completer answers prompts. Required.
	Completer core.Completer
	// Watcher, when set, refreshes the history panel on store changes.
	Watcher Watcher

	Context        context.Context
	Theme          *styles.Theme
	ModelName      string
	ShowTimestamps bool
	Logger         *slog.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl      *core.Controller
	completer core.Completer
	watcher   Watcher
	logger    *slog.Logger
	theme     *styles.Theme

	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	mode    mode
	cursor  int
	history []model.Conversation
	// pendingDelete is the conversation awaiting delete confirmation.
	pendingDelete string

	status    string
	statusErr bool

	modelName      string
	showTimestamps bool
}

// New creates the chat screen model.
func New(opts Options) Model {
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	theme := opts.Theme
	if theme == nil {
		theme = styles.DefaultTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Ask me anything..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 4096
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	return Model{
		ctx:            ctx,
		cancel:         cancel,
		ctrl:           opts.Controller,
		completer:      opts.Completer,
		watcher:        opts.Watcher,
		logger:         logger.With("component", "tui"),
		theme:          theme,
		keys:           keys,
		help:           help.New(),
		viewport:       vp,
		input:          ta,
		spinner:        sp,
		modelName:      opts.ModelName,
		showTimestamps: opts.ShowTimestamps,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts cursor blinking and store change notification.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, startWatchCmd(m.ctx, m.watcher))
}

// Update handles a message and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case replyMsg:
		return m.handleReply(msg), nil

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case watchStartedMsg:
		return m, waitForChangeCmd(msg.ch)

	case watchFailedMsg:
		if errors.Is(msg.err, storage.ErrWatchUnsupported) {
			m.logger.Debug("store change notification unavailable", "error", msg.err)
		} else {
			m.logger.Warn("failed to watch store", "error", msg.err)
		}
		return m, nil

	case storeChangedMsg:
		m.ctrl.Reload(m.ctx)
		if m.mode == modeHistory {
			m.refreshHistory()
		}
		return m, waitForChangeCmd(msg.ch)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the screen.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - headerHeight - inputHeight - inputChrome - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight

	inputWidth := m.width - 2
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.SetWidth(inputWidth)
	m.help.Width = m.width

	m.renderer = m.newRenderer()
	m.ready = true
	m.refresh()
	return m
}

// newRenderer builds a markdown renderer wrapped to the bot bubble width.
// It uses a fixed style because querying the terminal while the program
// owns it would block.
func (m Model) newRenderer() *glamour.TermRenderer {
	style := "light"
	if m.theme.IsDark {
		style = "dark"
	}
	wrap := m.bubbleWidth() - 4
	if wrap < 10 {
		wrap = 10
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	switch m.mode {
	case modeSettings:
		return m.handleSettingsKey(msg)
	case modeHistory:
		return m.handleHistoryKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.StartNew()
		m.setStatus("Started a new conversation")
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.History):
		return m.openHistory(), nil

	case key.Matches(msg, m.keys.Settings):
		return m.openSettings(), nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SENDING
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	p, err := m.ctrl.Begin(m.input.Value())
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return m, nil
	case errors.Is(err, core.ErrBusy):
		m.setError("Still waiting for the previous reply")
		return m, nil
	case err != nil:
		m.setError(err.Error())
		return m, nil
	}

	m.input.Reset()
	m.clearStatus()
	m.refresh()
	return m, tea.Batch(completeCmd(m.ctx, m.completer, p), m.spinner.Tick)
}

func (m Model) handleReply(msg replyMsg) Model {
	if m.ctx.Err() != nil {
		return m
	}

	ex := m.ctrl.Finish(m.ctx, msg.pending, msg.reply, msg.err)
	switch {
	case ex.Err != nil:
		m.setError(describeError(ex.Err))
	case ex.Stale:
		m.setStatus("Reply saved to its earlier conversation")
	default:
		m.clearStatus()
	}

	if m.mode == modeHistory {
		m.refreshHistory()
	}
	m.refresh()
	return m
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// refresh re-renders the message list into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}
