// Package console runs a quiz session in the terminal.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonquiz/internal/session"
)

// The terminal has a single learner.
const (
	LocalLearnerID int64 = 1
	LocalChatID    int64 = 1
)

// Engine is the part of *session.Engine the model drives.
type Engine interface {
	Run(ctx context.Context) (session.Result, error)
	SubmitAnswer(ev session.AnswerEvent) bool
	Abort()
}

// Starter prepares a started engine for a lesson reference (a stored lesson
// id or similar). It may take a while; it runs outside the update loop.
type Starter func(ctx context.Context, lessonRef string) (Engine, error)

type (
	questionMsg struct {
		token    string
		delivery session.QuestionDelivery
	}
	statusMsg struct {
		text string
	}
	engineReadyMsg struct {
		engine Engine
	}
	startFailedMsg struct {
		err error
	}
	runDoneMsg struct {
		result session.Result
		err    error
	}
	tickMsg struct {
		id int
	}
)

type phase int

const (
	phasePrompt phase = iota
	phasePreparing
	phaseQuiz
	phaseDone
)

// Model is the Bubble Tea model for one quiz run.
type Model struct {
	ctx   context.Context
	start Starter
	now   func() time.Time

	phase  phase
	input  textinput.Model
	engine Engine

	token    string
	delivery session.QuestionDelivery
	choices  choiceList
	deadline time.Time
	tickID   int
	status   []string

	quitting bool
	result   session.Result
	err      error
	width    int
}

// NewModel creates a model. With an empty lessonRef it first asks for one.
func NewModel(ctx context.Context, start Starter, lessonRef string) Model {
	ti := textinput.New()
	ti.Placeholder = "lesson id"
	ti.CharLimit = 64
	ti.SetValue(lessonRef)
	ti.Focus()

	m := Model{ctx: ctx, start: start, now: time.Now, input: ti, phase: phasePrompt}
	if lessonRef != "" {
		m.phase = phasePreparing
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.phase == phasePreparing {
		return m.startCmd(m.input.Value())
	}
	return m.input.Focus()
}

// Result returns the session result and error once the run has ended.
func (m Model) Result() (session.Result, error) {
	return m.result, m.err
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case engineReadyMsg:
		m.engine = msg.engine
		m.phase = phaseQuiz
		if m.quitting {
			m.engine.Abort()
		}
		return m, m.runCmd()

	case startFailedMsg:
		m.phase = phaseDone
		m.err = msg.err
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case questionMsg:
		m.token = msg.token
		m.delivery = msg.delivery
		m.choices = newChoiceList(msg.delivery.Question.Options)
		m.deadline = m.now().Add(msg.delivery.OpenFor)
		m.status = nil
		m.tickID++
		return m, m.tickCmd()

	case statusMsg:
		m.status = append(m.status, msg.text)
		return m, nil

	case tickMsg:
		if msg.id != m.tickID || m.phase != phaseQuiz || !m.now().Before(m.deadline) {
			return m, nil
		}
		return m, m.tickCmd()

	case runDoneMsg:
		m.phase = phaseDone
		m.result = msg.result
		m.err = msg.err
		m.token = ""
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.phase == phasePrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit()
	}

	switch m.phase {
	case phasePrompt:
		switch key {
		case "esc":
			return m, tea.Quit
		case "enter":
			ref := strings.TrimSpace(m.input.Value())
			if ref == "" {
				return m, nil
			}
			m.phase = phasePreparing
			return m, m.startCmd(ref)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case phasePreparing:
		if key == "esc" {
			return m.quit()
		}

	case phaseQuiz:
		return m.handleQuizKey(key)

	case phaseDone:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleQuizKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		return m.quit()
	case "up", "k":
		m.choices.up()
	case "down", "j":
		m.choices.down()
	case "enter":
		return m.answer(m.choices.selected)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			return m.answer(int(key[0] - '1'))
		}
	}
	return m, nil
}

// answer submits option i for the live question.
func (m Model) answer(i int) (tea.Model, tea.Cmd) {
	if m.token == "" || !m.choices.choose(i) {
		return m, nil
	}
	return m, submitCmd(m.engine, session.AnswerEvent{
		CorrelationID: m.token,
		ChosenIndex:   i,
		ResponderID:   LocalLearnerID,
	})
}

// quit aborts a running session and exits once it has stopped.
func (m Model) quit() (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseQuiz:
		m.quitting = true
		m.engine.Abort()
		return m, nil
	case phasePreparing:
		m.quitting = true
		return m, nil
	}
	return m, tea.Quit
}

func (m Model) startCmd(ref string) tea.Cmd {
	ctx, start := m.ctx, m.start
	return func() tea.Msg {
		eng, err := start(ctx, ref)
		if err != nil {
			return startFailedMsg{err: err}
		}
		return engineReadyMsg{engine: eng}
	}
}

func (m Model) runCmd() tea.Cmd {
	ctx, eng := m.ctx, m.engine
	return func() tea.Msg {
		res, err := eng.Run(ctx)
		return runDoneMsg{result: res, err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	id := m.tickID
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{id: id} })
}

// submitCmd hands the answer to the engine off the update loop; the engine
// may itself be waiting on the program to accept a delivery.
func submitCmd(eng Engine, ev session.AnswerEvent) tea.Cmd {
	return func() tea.Msg {
		eng.SubmitAnswer(ev)
		return nil
	}
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.SetContent(m.render())
	return v
}

func (m Model) render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📚 Lesson quiz"))
	b.WriteString("\n\n")

	switch m.phase {
	case phasePrompt:
		b.WriteString("Lesson: " + m.input.View() + "\n\n")
		b.WriteString(hintStyle.Render("enter start • esc quit"))

	case phasePreparing:
		b.WriteString(dimStyle.Render("Preparing your quiz…"))

	case phaseQuiz:
		b.WriteString(m.renderQuestion())

	case phaseDone:
		b.WriteString(m.renderDone())
	}
	return cardStyle.Render(b.String())
}

func (m Model) renderQuestion() string {
	if m.token == "" && len(m.status) == 0 {
		return dimStyle.Render("Waiting for the first question…")
	}

	var b strings.Builder
	d := m.delivery
	remaining := m.deadline.Sub(m.now()).Round(time.Second)
	if remaining < 0 {
		remaining = 0
	}
	header := dimStyle.Render(fmt.Sprintf("Question %d/%d", d.Number, d.Total))
	if m.token != "" && !m.choices.answered() {
		header += "   " + timerStyle.Render(fmt.Sprintf("⏱ %ds", int(remaining.Seconds())))
	}
	b.WriteString(header + "\n\n")

	if len(d.Question.Options) > 0 {
		b.WriteString(questionStyle.Render(d.Question.Text))
		b.WriteString("\n\n")
		b.WriteString(m.choices.view())
	}

	for _, s := range m.status {
		b.WriteString("\n" + s + "\n")
	}

	b.WriteString("\n")
	if m.quitting {
		b.WriteString(hintStyle.Render("Stopping…"))
	} else {
		b.WriteString(hintStyle.Render(fmt.Sprintf("↑/↓ select • enter or 1-%d answer • esc stop", len(d.Question.Options))))
	}
	return b.String()
}

func (m Model) renderDone() string {
	var b strings.Builder
	for _, s := range m.status {
		b.WriteString(s + "\n\n")
	}

	switch {
	case m.err != nil && m.result.Outcome == session.OutcomeNone:
		b.WriteString(errorStyle.Render("Could not start the quiz: " + m.err.Error()))
	case m.result.Outcome == session.OutcomeFinished:
		width := 30
		if m.width > 20 && m.width-20 < width {
			width = m.width - 20
		}
		b.WriteString(successStyle.Render(fmt.Sprintf("Score %d/%d", m.result.CorrectCount, m.result.TotalQuestions)))
		b.WriteString("\n")
		b.WriteString(scoreBar(m.result.ScorePct, width))
		if !m.result.Persisted && m.err != nil {
			b.WriteString("\n\n" + errorStyle.Render("Result not saved: "+m.err.Error()))
		}
	default:
		b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render("Quiz ended: " + string(m.result.Outcome)))
	}

	b.WriteString("\n\n" + hintStyle.Render("press any key to exit"))
	return b.String()
}
