// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/session"
)

const (
	tickInterval  = 100 * time.Millisecond
	feedbackPause = 600 * time.Millisecond
)

type stage int

const (
	stageQuestion stage = iota
	stageFeedback
	stageSummary
)

// deadlineMsg fires once per question after the full allotment.
type deadlineMsg struct{ seq uint64 }

// tickMsg refreshes the countdown display.
type tickMsg struct{ seq uint64 }

// advanceMsg ends the feedback pause.
type advanceMsg struct{ seq uint64 }

// Model implements the Bubble Tea quiz UI.
type Model struct {
	ctl   *session.Controller
	cfg   model.Config
	input textinput.Model

	width  int
	height int

	stage     stage
	question  session.Question
	remaining time.Duration
	score     int
	feedback  string
	correct   bool
	errMsg    string
	summary   session.Summary
}

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	urgentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	summaryBox    = lipgloss.NewStyle().Padding(1, 3).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#C89A3A"))
	newRecordText = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// NewModel constructs a quiz model. The session starts in Init.
func NewModel(ctl *session.Controller, cfg model.Config) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 32
	input.Focus()
	return &Model{
		ctl:   ctl,
		cfg:   cfg,
		input: input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.start(func(ctx context.Context) (session.Question, error) {
		return m.ctl.Start(ctx, m.cfg)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = maxInt(10, minInt(40, m.width-4))
		return m, nil
	case deadlineMsg:
		res, err := m.ctl.Expire(context.Background(), msg.seq)
		if err != nil {
			return m, nil
		}
		return m, m.showFeedback(res)
	case tickMsg:
		if msg.seq != m.question.Seq || m.stage != stageQuestion {
			return m, nil
		}
		m.remaining = m.ctl.Remaining()
		return m, tick(msg.seq)
	case advanceMsg:
		if msg.seq != m.question.Seq || m.stage != stageFeedback {
			return m, nil
		}
		return m, m.advance()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.ctl.Abandon()
			return m, tea.Quit
		}
		switch m.stage {
		case stageSummary:
			return m.updateSummary(msg)
		case stageQuestion:
			return m.updateQuestion(msg)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateQuestion(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.ctl.Abandon()
		return m, tea.Quit
	case tea.KeyEnter:
		return m, m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.errMsg = ""
	return m, cmd
}

func (m *Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "r", "enter":
		return m, m.start(m.ctl.Restart)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderQuestion()
	if m.stage == stageSummary {
		content = m.renderSummary()
	}
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) start(begin func(context.Context) (session.Question, error)) tea.Cmd {
	q, err := begin(context.Background())
	if err != nil {
		logErrf("failed to start session: %v\n", err)
		m.errMsg = err.Error()
		return tea.Quit
	}
	m.score = 0
	m.summary = session.Summary{}
	return m.present(q)
}

func (m *Model) present(q session.Question) tea.Cmd {
	m.stage = stageQuestion
	m.question = q
	m.remaining = q.Limit
	m.feedback = ""
	m.errMsg = ""
	m.input.Reset()
	m.input.Placeholder = placeholder(q.Item)
	return tea.Batch(
		m.input.Focus(),
		textinput.Blink,
		expireAfter(q.Seq, q.Limit),
		tick(q.Seq),
	)
}

func (m *Model) submit() tea.Cmd {
	res, err := m.ctl.Answer(context.Background(), m.input.Value())
	switch {
	case errors.Is(err, session.ErrInvalidAnswer):
		m.errMsg = invalidHint(m.question.Item)
		return nil
	case err != nil:
		return nil
	}
	return m.showFeedback(res)
}

func (m *Model) showFeedback(res session.Resolution) tea.Cmd {
	m.stage = stageFeedback
	m.score = res.Score
	m.remaining = 0
	m.correct = res.Correct
	m.feedback = feedbackLine(res)
	m.input.Blur()
	seq := res.Question.Seq
	return tea.Tick(feedbackPause, func(time.Time) tea.Msg {
		return advanceMsg{seq: seq}
	})
}

func (m *Model) advance() tea.Cmd {
	q, ok, err := m.ctl.Next(context.Background())
	if err != nil {
		logErrf("failed to advance session: %v\n", err)
		return tea.Quit
	}
	if !ok {
		m.stage = stageSummary
		m.summary = m.ctl.Summary()
		return nil
	}
	return m.present(q)
}

func expireAfter(seq uint64, limit time.Duration) tea.Cmd {
	return tea.Tick(limit, func(time.Time) tea.Msg {
		return deadlineMsg{seq: seq}
	})
}

func tick(seq uint64) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (m *Model) renderQuestion() string {
	item := m.question.Item
	lines := []string{promptStyle.Render(item.Prompt()), ""}
	if item.Domain == model.DomainSpelling {
		opts := make([]string, 0, len(item.Options))
		for i, opt := range item.Options {
			opts = append(opts, optionStyle.Render(fmt.Sprintf("%d) %s", i+1, opt)))
		}
		lines = append(lines, strings.Join(opts, "   "), "")
	}
	switch {
	case m.stage == stageFeedback && m.correct:
		lines = append(lines, correctStyle.Render(m.feedback))
	case m.stage == stageFeedback:
		lines = append(lines, wrongStyle.Render(m.feedback))
	default:
		lines = append(lines, m.input.View())
	}
	if m.errMsg != "" {
		lines = append(lines, mutedStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSummary() string {
	s := m.summary
	lines := []string{
		promptStyle.Render(fmt.Sprintf("Score %d / %d", s.Score, s.Total)),
		mutedStyle.Render(fmt.Sprintf("Time %.1fs", s.Elapsed.Seconds())),
		"",
		s.Verdict,
		"",
		recordLine(s),
	}
	return summaryBox.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	if m.stage == stageSummary {
		return footerStyle.Render("Restart: r  Quit: q")
	}
	if m.question.Total == 0 {
		return ""
	}
	timer := session.FormatRemaining(m.remaining)
	if m.stage == stageQuestion && m.remaining > 0 && m.remaining <= 3*time.Second {
		timer = urgentStyle.Render(timer)
	}
	segments := []string{
		fmt.Sprintf("Question %d/%d", m.question.Index, m.question.Total),
		fmt.Sprintf("Score %d", m.score),
		"Time " + timer,
		"Quit: esc",
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func recordLine(s session.Summary) string {
	switch {
	case s.NewRecord && s.Previous != nil:
		return newRecordText.Render(fmt.Sprintf("New record! Previous best %d / %d in %.1fs", s.Previous.Score, s.Previous.Total, s.Previous.Time))
	case s.NewRecord:
		return newRecordText.Render("New record!")
	case s.Previous != nil:
		return mutedStyle.Render(fmt.Sprintf("Best %d / %d in %.1fs", s.Previous.Score, s.Previous.Total, s.Previous.Time))
	default:
		return ""
	}
}

func feedbackLine(res session.Resolution) string {
	item := res.Question.Item
	switch {
	case res.Correct:
		return "Correct!"
	case res.TimedOut:
		return fmt.Sprintf("Time's up! %s", solutionText(item))
	default:
		return fmt.Sprintf("Not quite. %s", solutionText(item))
	}
}

func solutionText(item model.Item) string {
	if item.Domain == model.DomainArithmetic {
		return fmt.Sprintf("%d × %d = %s", item.X, item.Y, item.Solution())
	}
	return fmt.Sprintf("%s (%s)", item.Solution(), item.CorrectOption())
}

func placeholder(item model.Item) string {
	if item.Domain == model.DomainArithmetic {
		return "answer"
	}
	return fmt.Sprintf("1-%d or the letters", len(item.Options))
}

func invalidHint(item model.Item) string {
	if item.Domain == model.DomainArithmetic {
		return "Type a whole number and press enter."
	}
	return fmt.Sprintf("Type an option number (1-%d) or its letters.", len(item.Options))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
