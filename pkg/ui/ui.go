package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/completion"
	"github.com/renatogalera/ai-chat/pkg/history"
)

// uiState represents the different states of the TUI.
type uiState int

const (
	stateInput uiState = iota
	stateStreaming
)

type (
	streamDeltaMsg struct{ delta string }
	streamDoneMsg  struct{ err error }
)

var (
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	logoText = `AI-CHAT`

	infoLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Margin(0, 1).
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	turnBoxStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(1)

	attachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1).
			Margin(0, 1)
)

type keys struct {
	Send  key.Binding
	Clear key.Binding
	Stop  key.Binding
	Quit  key.Binding
	Help  key.Binding
}

var keyMap = keys{
	Send: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "send"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "new conversation"),
	),
	Stop: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "stop reply"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", "help"),
	),
}

// Session is everything the chat view needs to talk to a provider.
type Session struct {
	Client   *completion.Client
	Buffer   *chat.MessageBuffer
	Options  chat.Options
	Provider string
	// HistoryFile, when set, is rewritten after every completed reply.
	HistoryFile string
}

// Model is the chat TUI. The MessageBuffer is owned by the goroutine running
// a call while state is stateStreaming and by Update otherwise.
type Model struct {
	state   uiState
	session Session

	turns   []history.Turn
	pending string
	// interrupted is the partial reply of a failed or stopped call. It is
	// shown but is not part of the conversation.
	interrupted string

	streamDeltaCh <-chan string
	streamDoneCh  <-chan error
	cancel        context.CancelFunc

	spinner  spinner.Model
	textarea textarea.Model
	help     help.Model

	errMsg string

	width  int
	height int
}

// NewChatModel creates the chat model. Entries already in the session
// buffer (e.g. a loaded history file) are shown as the transcript.
func NewChatModel(s Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ta := textarea.New()
	ta.Placeholder = "Ask something... (Ctrl+S to send)"
	ta.Prompt = "> "
	ta.SetWidth(80)
	ta.SetHeight(4)
	ta.ShowLineNumbers = false
	ta.Focus()

	m := Model{
		state:    stateInput,
		session:  s,
		spinner:  sp,
		textarea: ta,
		help:     help.New(),
	}
	if turns, err := history.Decode(s.Buffer.Entries()); err != nil {
		m.errMsg = fmt.Sprintf("Could not show previous messages: %v", err)
	} else {
		m.turns = turns
	}
	return m
}

// NewProgram creates a new Bubble Tea program with the given model.
func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// --- UPDATE ------------------------------------------------------------------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(max(min(m.width-4, 100), 20))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keyMap.Quit) {
			m.stopAndWait()
			return m, tea.Quit
		}
		if key.Matches(msg, keyMap.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

		if m.state == stateStreaming {
			if key.Matches(msg, keyMap.Stop) && m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keyMap.Send):
			return m.send()
		case key.Matches(msg, keyMap.Clear):
			m.clear()
			return m, nil
		}
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	case streamDeltaMsg:
		m.pending += msg.delta
		return m, readDeltaCmd(m.streamDeltaCh, m.streamDoneCh)

	case streamDoneMsg:
		return m.finish(msg.err), nil

	case spinner.TickMsg:
		if m.state == stateStreaming {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}
	if err := m.session.Buffer.AppendText(chat.RoleUser, text); err != nil {
		m.errMsg = fmt.Sprintf("Could not add message: %v", err)
		return m, nil
	}
	m.turns = append(m.turns, history.Turn{Role: chat.RoleUser, Type: chat.ContentText, Data: text})
	m.textarea.Reset()
	m.pending = ""
	m.interrupted = ""
	m.errMsg = ""
	m.state = stateStreaming
	m.streamDeltaCh, m.streamDoneCh, m.cancel = startAsk(m.session)
	return m, tea.Batch(
		m.spinner.Tick,
		readDeltaCmd(m.streamDeltaCh, m.streamDoneCh),
	)
}

// stopAndWait cancels a running call and blocks until its goroutine has
// returned, so the caller may destroy the buffer afterwards.
func (m *Model) stopAndWait() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.state != stateStreaming {
		return
	}
	for range m.streamDeltaCh {
	}
	for range m.streamDoneCh {
	}
	m.state = stateInput
	m.streamDeltaCh = nil
	m.streamDoneCh = nil
}

// finish runs once the call goroutine has returned, so the buffer is ours
// again.
func (m Model) finish(err error) Model {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.state = stateInput
	m.streamDeltaCh = nil
	m.streamDoneCh = nil

	// Ask only records the reply in the buffer when the call succeeds.
	switch {
	case err != nil:
		log.Debug().Err(err).Msg("Chat completion ended with an error")
		m.errMsg = fmt.Sprintf("AI error: %v", err)
		m.interrupted = m.pending
	case m.pending != "":
		m.turns = append(m.turns, history.Turn{Role: chat.RoleAssistant, Type: chat.ContentText, Data: m.pending})
	}
	m.pending = ""

	if m.session.HistoryFile != "" {
		if serr := history.Save(m.session.HistoryFile, m.session.Buffer); serr != nil {
			m.errMsg = strings.TrimSpace(m.errMsg + "\n" + fmt.Sprintf("Could not save history: %v", serr))
		}
	}
	return m
}

func (m *Model) clear() {
	if err := m.session.Buffer.Restore(nil); err != nil {
		m.errMsg = fmt.Sprintf("Could not reset conversation: %v", err)
		return
	}
	m.turns = nil
	m.interrupted = ""
	m.errMsg = ""
}

// --- VIEWS -------------------------------------------------------------------

func (m Model) View() string {
	header := logoStyle.Render(logoText)

	stream := "off"
	if m.session.Options.Stream {
		stream = "on"
	}
	infoLine := infoLineStyle.Render(fmt.Sprintf("Provider: %s | Model: %s | Streaming: %s | Messages: %d",
		m.session.Provider, m.session.Options.Model, stream, len(m.turns)))

	var b strings.Builder
	for _, t := range m.turns {
		b.WriteString(renderTurn(t))
		b.WriteString("\n")
	}
	if m.interrupted != "" {
		b.WriteString(assistantStyle.Render("assistant") + " " + attachmentStyle.Render("(interrupted, not kept)") + "\n")
		b.WriteString(turnBoxStyle.Render(m.interrupted))
		b.WriteString("\n")
	}
	if m.state == stateStreaming {
		b.WriteString(assistantStyle.Render("assistant") + " " + m.spinner.View() + "\n")
		b.WriteString(turnBoxStyle.Render(m.pending))
		b.WriteString("\n")
	}

	errSection := ""
	if strings.TrimSpace(m.errMsg) != "" {
		errSection = errorBoxStyle.Width(max(min(m.width-4, 100), 20)).Render(m.errMsg)
	}

	parts := []string{header, infoLine, b.String()}
	if errSection != "" {
		parts = append(parts, errSection)
	}
	parts = append(parts, m.textarea.View(), m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTurn(t history.Turn) string {
	label := userStyle.Render(t.Role.String())
	if t.Role == chat.RoleAssistant {
		label = assistantStyle.Render(t.Role.String())
	}
	return label + "\n" + turnBoxStyle.Render(TurnBody(t))
}

// TurnBody returns the text of a turn, or a short placeholder for
// attachments.
func TurnBody(t history.Turn) string {
	if t.Type == chat.ContentText {
		return t.Data
	}
	return attachmentStyle.Render(fmt.Sprintf("[%s attachment, %s encoded]", t.Type, humanize.Bytes(uint64(len(t.Data)))))
}

// startAsk runs the call on its own goroutine and wires its deltas into the
// update loop through channels. doneCh is closed once the goroutine no
// longer touches the buffer.
func startAsk(s Session) (<-chan string, <-chan error, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	deltaCh := make(chan string, 64)
	doneCh := make(chan error, 1)
	go func() {
		_, err := s.Client.Ask(ctx, s.Buffer, s.Options, func(d string) { deltaCh <- d })
		close(deltaCh)
		doneCh <- err
		close(doneCh)
	}()
	return deltaCh, doneCh, cancel
}

// readDeltaCmd reads a single delta from the channel. Once the channel is
// closed it waits for the call result, so no delta can arrive after
// streamDoneMsg.
func readDeltaCmd(ch <-chan string, done <-chan error) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-ch
		if !ok {
			return waitDone(done)
		}
		return streamDeltaMsg{delta: d}
	}
}

func waitDone(done <-chan error) tea.Msg {
	err, ok := <-done
	if !ok {
		return streamDoneMsg{err: nil}
	}
	return streamDoneMsg{err: err}
}

func (m Model) ShortHelp() []key.Binding {
	if m.state == stateStreaming {
		return []key.Binding{keyMap.Stop, keyMap.Quit}
	}
	return []key.Binding{keyMap.Send, keyMap.Clear, keyMap.Help, keyMap.Quit}
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keyMap.Send, keyMap.Clear, keyMap.Stop},
		{keyMap.Help, keyMap.Quit},
	}
}
