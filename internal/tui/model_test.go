package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hyperjump/docqa/internal/models"
)

type fakeAsker struct {
	got models.AskRequest
	err error
}

func (f *fakeAsker) Ask(_ context.Context, req models.AskRequest) (*models.AskResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AskResponse{
		Answer:   "Twenty days.",
		Thinking: "leave policy",
		Sources:  []models.Source{{Folder: "policies", Filename: "leave.txt", Score: 0.9}},
	}, nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func TestModel_AskRoundTrip(t *testing.T) {
	asker := &fakeAsker{}
	m := typeText(sized(New(asker, "eli5", 0)), "How many days?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected an ask command")
	}
	if !m.pending || m.input.Value() != "" {
		t.Errorf("pending=%v input=%q after enter", m.pending, m.input.Value())
	}

	next, _ = m.Update(cmd())
	m = next.(Model)
	if asker.got.Question != "How many days?" || asker.got.Strategy != "eli5" {
		t.Errorf("request = %+v", asker.got)
	}
	view := m.renderTranscript()
	for _, sub := range []string{"How many days?", "Twenty days.", "policies/leave.txt"} {
		if !strings.Contains(view, sub) {
			t.Errorf("transcript missing %q:\n%s", sub, view)
		}
	}
	if strings.Contains(view, "leave policy") {
		t.Error("thinking shown before ctrl+t")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = next.(Model)
	if !strings.Contains(m.renderTranscript(), "leave policy") {
		t.Error("thinking hidden after ctrl+t")
	}
}

func TestModel_ErrorShownInTranscript(t *testing.T) {
	m := typeText(sized(New(&fakeAsker{err: errors.New("connection refused")}, "", 0)), "q")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.(Model).Update(cmd())
	m = next.(Model)
	if !strings.Contains(m.renderTranscript(), "Error: connection refused") {
		t.Errorf("transcript: %s", m.renderTranscript())
	}
	if m.pending {
		t.Error("still pending after answer")
	}
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	m := sized(New(&fakeAsker{}, "", 0))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter on empty input should not ask")
	}
}

func TestModel_TabCyclesStrategy(t *testing.T) {
	m := New(&fakeAsker{}, "unknown", 0)
	if m.currentStrategy() != "direct" {
		t.Fatalf("default strategy = %q", m.currentStrategy())
	}
	seen := map[string]bool{}
	for i := 0; i < len(m.strategies); i++ {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(Model)
		seen[m.currentStrategy()] = true
	}
	if len(seen) != len(m.strategies) {
		t.Errorf("tab visited %d of %d strategies", len(seen), len(m.strategies))
	}
}
