package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragdocs/domain"
)

// QueryPort is the TUI-facing subset of the query service.
type QueryPort interface {
	Query(ctx context.Context, question string, k int) domain.QueryResponse
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// answerMsg carries a finished query back into the update loop.
type answerMsg struct {
	question string
	resp     domain.QueryResponse
}

// Model is the Bubble Tea model for the chat front-end.
type Model struct {
	service  QueryPort
	input    textinput.Model
	viewport viewport.Model
	status   string
	waiting  bool
	ready    bool
}

// New creates the chat model. The banner reflects the current index size so
// the user knows whether anything is loaded.
func New(service QueryPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	status := "Ready."
	if stats, err := service.Stats(context.Background()); err == nil {
		status = fmt.Sprintf("Ready. %d chunks indexed.", stats.TotalVectors)
	}
	return Model{service: service, input: ti, viewport: vp, status: status}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.waiting = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, ask(m.service, q)
			}
		}

	case answerMsg:
		m.waiting = false
		if msg.resp.Error != "" {
			m.status = "Error: " + msg.resp.Error
		} else {
			m.status = fmt.Sprintf("Answered %q", msg.question)
		}
		m.viewport.SetContent(renderResponse(msg.question, msg.resp))
		m.viewport.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RAG Document Chat")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

// ask runs the query off the update loop so the UI stays responsive while
// the model generates.
func ask(service QueryPort, question string) tea.Cmd {
	return func() tea.Msg {
		resp := service.Query(context.Background(), question, 0)
		return answerMsg{question: question, resp: resp}
	}
}

func renderResponse(question string, resp domain.QueryResponse) string {
	var sb strings.Builder
	sb.WriteString(questionStyle.Render("Q: "+question) + "\n\n")
	sb.WriteString(resp.Answer)

	if len(resp.Sources) > 0 {
		sb.WriteString("\n\n" + sourceHeaderStyle.Render("Sources") + "\n")
		for i, src := range resp.Sources {
			sb.WriteString(fmt.Sprintf("%d. %s (score %.2f, %d chunks)\n", i+1, src.Title, src.Score, src.ChunksCombined))
			sb.WriteString("   " + src.Content + "\n")
		}
	}
	return sb.String()
}

var (
	answerBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
