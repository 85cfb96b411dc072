// Package tui is an interactive terminal chat over a docqa server.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/models"
)

// Asker is the TUI-facing subset of the question answering API.
type Asker interface {
	Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error)
}

type answerMsg struct {
	question string
	resp     *models.AskResponse
	err      error
}

type turn struct {
	question string
	answer   string
	thinking string
	sources  []models.Source
	failed   bool
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	asker        Asker
	timeout      time.Duration
	input        textinput.Model
	viewport     viewport.Model
	history      []turn
	strategies   []string
	strategy     int
	showThinking bool
	pending      bool
	status       string
	ready        bool
}

// New creates a chat model. strategy is preselected when known.
func New(asker Asker, strategy string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = models.MaxQuestionLength
	m := Model{
		asker:      asker,
		timeout:    timeout,
		input:      ti,
		viewport:   viewport.New(0, 0),
		strategies: llm.Strategies(),
		status:     "tab: strategy  ctrl+t: thinking  ctrl+c: quit",
	}
	for i, s := range m.strategies {
		if s == strategy {
			m.strategy = i
		}
	}
	if !llm.ValidStrategy(strategy) {
		for i, s := range m.strategies {
			if s == llm.StrategyDirect {
				m.strategy = i
			}
		}
	}
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input, spacer
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = maxInt(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.pending = false
		t := turn{question: msg.question}
		if msg.err != nil {
			t.answer = "Error: " + msg.err.Error()
			t.failed = true
			m.status = "request failed"
		} else {
			t.answer = msg.resp.Answer
			t.thinking = msg.resp.Thinking
			t.sources = msg.resp.Sources
			m.status = fmt.Sprintf("answered in %dms", msg.resp.LatencyMS)
		}
		m.history = append(m.history, t)
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.strategy = (m.strategy + 1) % len(m.strategies)
			m.status = "strategy: " + m.currentStrategy()
			return m, nil
		case tea.KeyCtrlT:
			m.showThinking = !m.showThinking
			m.refresh()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.pending = true
			m.input.SetValue("")
			m.status = "thinking..."
			return m, m.ask(q)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	asker, strategy, timeout := m.asker, m.currentStrategy(), m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		resp, err := asker.Ask(ctx, models.AskRequest{Question: question, Strategy: strategy})
		return answerMsg{question: question, resp: resp, err: err}
	}
}

func (m Model) currentStrategy() string {
	return m.strategies[m.strategy]
}

// View renders the chat.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docqa") + " " + dimStyle.Render("strategy: "+m.currentStrategy())
	body := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		return dimStyle.Render("No questions yet.")
	}
	var b strings.Builder
	for i, t := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + t.question))
		b.WriteString("\n")
		if m.showThinking && t.thinking != "" {
			b.WriteString(dimStyle.Render(t.thinking))
			b.WriteString("\n")
		}
		if t.failed {
			b.WriteString(errorStyle.Render(t.answer))
		} else {
			b.WriteString(t.answer)
		}
		for _, s := range t.sources {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(fmt.Sprintf("  [%s/%s] %.3f", s.Folder, s.Filename, s.Score)))
		}
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
