package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"aipm/internal/logging"
	"aipm/internal/session"
	"aipm/internal/types"
)

const (
	inputHeight    = 3
	chromeLines    = 6
	minPanelWidth  = 20
	defaultMDWidth = 80
)

type ModelOptions struct {
	Kind          types.EntityKind
	MarkdownWidth int
	Streaming     bool
	Logger        logging.Logger
}

// Model is the terminal front end for one agent session. All session state
// lives in the controller; the model only polls snapshots and forwards user
// actions.
type Model struct {
	controller *session.Controller
	logger     logging.Logger
	kind       types.EntityKind

	input      textarea.Model
	transcript viewport.Model
	spin       spinner.Model

	snap          session.Snapshot
	renderedKey   string
	markdownWidth int
	streaming     bool
	width         int
	height        int
	ready         bool
	status        string
	quitting      bool
}

func NewModel(controller *session.Controller, opts ModelOptions) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	kind := opts.Kind
	if kind == "" {
		kind = types.EntityKindAssistant
	}
	mdWidth := opts.MarkdownWidth
	if mdWidth <= 0 {
		mdWidth = defaultMDWidth
	}

	input := textarea.New()
	input.Placeholder = "Describe what you want to create..."
	input.SetHeight(inputHeight - 2)
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		controller:    controller,
		logger:        logger,
		kind:          kind,
		input:         input,
		spin:          spin,
		markdownWidth: mdWidth,
		streaming:     opts.Streaming,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.spin.Tick, snapshotTick(), textarea.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshSnapshot(true)
		return m, nil

	case snapshotTickMsg:
		m.refreshSnapshot(false)
		return m, snapshotTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case startResultMsg:
		if msg.err != nil {
			m.logger.Error("session start failed", logging.F("err", msg.err))
			m.status = "start failed: " + msg.err.Error() + " (enter to retry)"
		} else {
			m.status = ""
		}
		m.refreshSnapshot(true)
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			m.logger.Warn("send failed", logging.F("err", msg.err))
			snap := m.controller.Snapshot()
			if strings.TrimSpace(m.input.Value()) == "" && snap.LastFailedInput != "" {
				m.input.SetValue(snap.LastFailedInput)
			}
		}
		m.refreshSnapshot(true)
		return m, nil

	case updateDraftResultMsg, confirmResultMsg:
		m.refreshSnapshot(true)
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		m.controller.Cancel()
		return m, tea.Quit

	case "enter":
		if !m.snap.Started {
			return m, m.startCmd()
		}
		if m.snap.Phase.Terminal() {
			m.status = "session complete; ctrl+c to exit"
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.snap.Pending() {
			return m, nil
		}
		if strings.HasPrefix(text, "/") {
			draft, err := applyDraftEdit(m.snap.Draft, text)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.input.Reset()
			m.status = ""
			return m, m.updateDraftCmd(draft)
		}
		m.input.Reset()
		m.status = ""
		return m, m.sendCmd(text)

	case "ctrl+y":
		if m.snap.ConfirmEnabled && !m.snap.Pending() {
			return m, m.confirmCmd()
		}
		m.status = "nothing to confirm yet"
		return m, nil

	case "ctrl+o":
		return m, m.copyLastReplyCmd()

	case "ctrl+t":
		m.streaming = !m.streaming
		if m.streaming {
			m.status = "streaming replies on"
		} else {
			m.status = "streaming replies off"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	width := m.width
	if width < minPanelWidth {
		width = minPanelWidth
	}
	transcriptHeight := m.height - inputHeight - chromeLines
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	if !m.ready {
		m.transcript = viewport.New(width, transcriptHeight)
		m.ready = true
	} else {
		m.transcript.Width = width
		m.transcript.Height = transcriptHeight
	}
	m.input.SetWidth(width)
	m.renderedKey = ""
}

// refreshSnapshot pulls the current controller snapshot and re-renders the
// transcript only when its content actually changed. Push events arrive on
// the controller's own goroutine, so polling is the sole render trigger.
func (m *Model) refreshSnapshot(force bool) {
	m.snap = m.controller.Snapshot()
	if !m.ready {
		return
	}
	key := transcriptKey(m.snap)
	if !force && key == m.renderedKey {
		return
	}
	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(m.renderTranscript())
	if atBottom || key != m.renderedKey {
		m.transcript.GotoBottom()
	}
	m.renderedKey = key
}

// transcriptKey fingerprints the parts of the snapshot the transcript shows.
func transcriptKey(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(string(snap.Phase))
	for _, msg := range snap.Messages {
		b.WriteByte('|')
		b.WriteString(string(msg.Role))
		b.WriteByte(':')
		b.WriteString(msg.Content)
		for _, tool := range msg.ToolsUsed {
			b.WriteByte('+')
			b.WriteString(tool)
		}
	}
	for _, entry := range snap.Feed {
		b.WriteByte('#')
		b.WriteString(entry.Message)
	}
	b.WriteByte('@')
	b.WriteString(snap.ActiveTool)
	b.WriteByte('!')
	b.WriteString(snap.LastError)
	return b.String()
}
