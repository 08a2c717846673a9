package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"askly/internal/domain"
	"askly/internal/service"
)

const answerTimeout = 2 * time.Minute

// ChatPort is the TUI-facing subset of the query service.
type ChatPort interface {
	Answer(ctx context.Context, req service.AnswerRequest) (domain.Answer, error)
}

// answerMsg carries a finished model call back into Update.
type answerMsg struct {
	question string
	answer   domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	port       ChatPort
	userID     string
	documentID string
	input      textinput.Model
	viewport   viewport.Model
	history    []domain.Message
	answer     *domain.Answer
	question   string
	status     string
	cursor     int
	pending    bool
	ready      bool
}

// New creates a chat model scoped to one user and, optionally, one document.
func New(port ChatPort, userID, documentID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := "Ready. Up/Down browse sources, Ctrl+C quits."
	if documentID != "" {
		status = fmt.Sprintf("Restricted to %s. %s", documentID, status)
	}
	return Model{port: port, userID: userID, documentID: documentID, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(question string) tea.Cmd {
	history := append([]domain.Message(nil), m.history...)
	req := service.AnswerRequest{UserID: m.userID, Question: question, DocumentID: m.documentID, History: history}
	port := m.port
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()
		ans, err := port.Answer(ctx, req)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.status = "Error: " + domain.UserMessage(msg.err)
			return m, nil
		}
		m.history = append(m.history,
			domain.Message{Role: domain.RoleUser, Content: msg.question},
			domain.Message{Role: domain.RoleAssistant, Content: msg.answer.Text})
		m.answer = &msg.answer
		m.question = msg.question
		m.cursor = 0
		m.status = fmt.Sprintf("%d sources. Up/Down browse sources.", len(msg.answer.Sources))
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.pending = true
			m.input.SetValue("")
			m.status = "Thinking..."
			return m, m.ask(q)
		case "down":
			if m.answer != nil && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Sources)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if m.answer != nil && len(m.answer.Sources) > 0 {
				n := len(m.answer.Sources)
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("askly")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(questionStyle.Render("Q: " + m.question))
	b.WriteString("\n\n")
	b.WriteString(m.answer.Text)
	if len(m.answer.Sources) == 0 {
		return b.String()
	}
	src := m.answer.Sources[m.cursor]
	b.WriteString("\n\n")
	b.WriteString(sourceStyle.Render(fmt.Sprintf("%s (%d/%d)  %s  chunk %d  score=%.3f",
		src.Label, m.cursor+1, len(m.answer.Sources), src.Name, src.ChunkIndex, src.Score)))
	b.WriteString("\n")
	b.WriteString(highlightBestSentence(src.Text, m.question))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// splitSentences keeps a trailing fragment without final punctuation.
func splitSentences(text string) []string {
	locs := sentenceRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	sentences := make([]string, 0, len(locs)+1)
	for _, l := range locs {
		sentences = append(sentences, text[l[0]:l[1]])
	}
	if rest := strings.TrimSpace(text[locs[len(locs)-1][1]:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// bestSentence returns the index of the sentence sharing most words with query.
func bestSentence(sentences []string, query string) int {
	qTokens := toTokenSet(query)
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	if len(toTokenSet(query)) == 0 {
		return strings.Join(sentences, " ")
	}
	best := bestSentence(sentences, query)
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == best {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
