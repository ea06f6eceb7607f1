// Package tui is a terminal chat client for the pdfchat API.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	pdfchat "github.com/kailas-cloud/pdfchat/pkg/sdk"
)

// Backend is the TUI-facing subset of the API client.
type Backend interface {
	Chat(ctx context.Context, message, sessionID string) (pdfchat.ChatReply, error)
	UploadFile(ctx context.Context, path string) (string, error)
	Query(ctx context.Context, req pdfchat.QueryRequest) ([]pdfchat.QueryResult, error)
	DetectIntent(ctx context.Context, query string) (pdfchat.Intent, error)
	History(ctx context.Context, sessionID string) ([]pdfchat.Turn, error)
	ClearSession(ctx context.Context, sessionID string) error
}

var _ Backend = (*pdfchat.Client)(nil)

type role int

const (
	roleUser role = iota
	roleAssistant
	roleSystem
	roleError
)

type entry struct {
	role role
	text string
}

// resultMsg carries the outcome of a backend call back into Update.
type resultMsg struct {
	entries []entry
}

const helpText = `Commands:
  <text>            ask a question about the uploaded PDFs
  /upload <path>    upload and index a PDF
  /query <text>     show the raw matching chunks
  /intent <text>    classify a query
  /history          show this session's remembered turns
  /clear            forget this session
  /session <id>     switch session
  /help             show this help
  /quit             exit`

// Model is the Bubble Tea model for the chat client.
type Model struct {
	backend   Backend
	sessionID string
	timeout   time.Duration

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []entry
	busy       bool
	ready      bool
	status     string
}

// New creates a chat model bound to sessionID.
func New(backend Backend, sessionID string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your PDFs, or /help"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return Model{
		backend:    backend,
		sessionID:  sessionID,
		timeout:    timeout,
		input:      ti,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
		transcript: []entry{{role: roleSystem, text: "Type /help for commands."}},
		status:     "session " + sessionID,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and backend result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input box, input line
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case resultMsg:
		m.busy = false
		m.status = "session " + m.sessionID
		m.transcript = append(m.transcript, msg.entries...)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			return m.submit(line)
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit dispatches one input line.
func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	name, arg := line, ""
	if strings.HasPrefix(line, "/") {
		name, arg, _ = strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
	} else {
		name = ""
	}

	switch name {
	case "":
		m.transcript = append(m.transcript, entry{role: roleUser, text: line})
		return m.run("thinking", m.chatCmd(line))
	case "/quit", "/exit":
		return m, tea.Quit
	case "/help":
		m.transcript = append(m.transcript, entry{role: roleSystem, text: helpText})
	case "/session":
		if arg == "" {
			m.transcript = append(m.transcript, entry{role: roleError, text: "usage: /session <id>"})
			break
		}
		m.sessionID = arg
		m.status = "session " + arg
		m.transcript = append(m.transcript, entry{role: roleSystem, text: "Switched to session " + arg})
	case "/upload":
		if arg == "" {
			m.transcript = append(m.transcript, entry{role: roleError, text: "usage: /upload <path>"})
			break
		}
		return m.run("uploading "+arg, m.uploadCmd(arg))
	case "/query":
		if arg == "" {
			m.transcript = append(m.transcript, entry{role: roleError, text: "usage: /query <text>"})
			break
		}
		return m.run("searching", m.queryCmd(arg))
	case "/intent":
		if arg == "" {
			m.transcript = append(m.transcript, entry{role: roleError, text: "usage: /intent <text>"})
			break
		}
		return m.run("classifying", m.intentCmd(arg))
	case "/history":
		return m.run("loading history", m.historyCmd())
	case "/clear":
		return m.run("clearing", m.clearCmd())
	default:
		m.transcript = append(m.transcript, entry{role: roleError, text: "unknown command " + name + ", try /help"})
	}
	m.refresh()
	return m, nil
}

func (m Model) run(status string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = status
	m.refresh()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m Model) chatCmd(message string) tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		reply, err := m.backend.Chat(ctx, message, sessionID)
		if err != nil {
			return failed(err)
		}
		text := reply.Response
		if len(reply.Sources) > 0 {
			refs := make([]string, len(reply.Sources))
			for i, s := range reply.Sources {
				refs[i] = fmt.Sprintf("%s p.%d", s.Source, s.Page)
			}
			text += "\n" + sourceStyle.Render("sources: "+strings.Join(refs, ", "))
		}
		return resultMsg{entries: []entry{{role: roleAssistant, text: text}}}
	}
}

func (m Model) uploadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		msg, err := m.backend.UploadFile(ctx, path)
		if err != nil {
			return failed(err)
		}
		return resultMsg{entries: []entry{{role: roleSystem, text: msg}}}
	}
}

func (m Model) queryCmd(q string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		results, err := m.backend.Query(ctx, pdfchat.QueryRequest{Query: q})
		if err != nil {
			return failed(err)
		}
		if len(results) == 0 {
			return resultMsg{entries: []entry{{role: roleSystem, text: "No matching chunks."}}}
		}
		var b strings.Builder
		for i, r := range results {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "%d. %s p.%d  score=%.3f\n%s", i+1, r.Metadata.Source, r.Metadata.Page, r.Score, strings.TrimSpace(r.Content))
		}
		return resultMsg{entries: []entry{{role: roleSystem, text: b.String()}}}
	}
}

func (m Model) intentCmd(q string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		intent, err := m.backend.DetectIntent(ctx, q)
		if err != nil {
			return failed(err)
		}
		return resultMsg{entries: []entry{{role: roleSystem, text: "intent: " + string(intent)}}}
	}
}

func (m Model) historyCmd() tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		turns, err := m.backend.History(ctx, sessionID)
		if pdfchat.IsNotFound(err) || (err == nil && len(turns) == 0) {
			return resultMsg{entries: []entry{{role: roleSystem, text: "No history for session " + sessionID + "."}}}
		}
		if err != nil {
			return failed(err)
		}
		var b strings.Builder
		for i, t := range turns {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%s] you: %s\n      bot: %s", t.At.Local().Format("15:04"), t.User, t.Assistant)
		}
		return resultMsg{entries: []entry{{role: roleSystem, text: b.String()}}}
	}
}

func (m Model) clearCmd() tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if err := m.backend.ClearSession(ctx, sessionID); err != nil && !pdfchat.IsNotFound(err) {
			return failed(err)
		}
		return resultMsg{entries: []entry{{role: roleSystem, text: "Session " + sessionID + " cleared."}}}
	}
}

func failed(err error) tea.Msg {
	return resultMsg{entries: []entry{{role: roleError, text: "Error: " + err.Error()}}}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("PDF Chatbot")
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		status
}

func (m Model) renderTranscript() string {
	width := max(10, m.viewport.Width)
	wrap := lipgloss.NewStyle().Width(width)
	parts := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		switch e.role {
		case roleUser:
			parts = append(parts, userStyle.Render("you: ")+wrap.Render(e.text))
		case roleAssistant:
			parts = append(parts, botStyle.Render("bot: ")+wrap.Render(e.text))
		case roleError:
			parts = append(parts, errorStyle.Render(wrap.Render(e.text)))
		default:
			parts = append(parts, systemStyle.Render(wrap.Render(e.text)))
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	systemStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)
