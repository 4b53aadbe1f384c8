// Package tui is a terminal controller for the CHALLENGE game. It renders
// the game from client.ViewState and sends one request per user action.
package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ashureev/challenge-game/internal/client"
	"github.com/ashureev/challenge-game/internal/domain"
)

type screen int

const (
	screenIntro screen = iota
	screenIndividual
	screenGroup
	screenReflection
)

const (
	thanksReflection = "Thank you for your reflection! Your responses will help improve future iterations of the CHALLENGE game."
	thanksPlaying    = "Thank you for playing the CHALLENGE game! We hope this experience has provided valuable insights into the complexities of refugee education policy-making."
	finishFailed     = "Error occurred while finishing the game."
)

// Model is the bubbletea model of a game.
type Model struct {
	ctx   context.Context
	api   API
	state *client.ViewState

	screen   screen
	catalog  domain.Catalog
	cursor   int
	feedback []string
	stance   int

	argInput  textinput.Model
	reflInput textinput.Model
	pane      viewport.Model
	spinner   spinner.Model

	busy           bool
	alert          string
	reflection     *reflectionView
	reflectionSent bool
	// reflectionPending is set once the last topic is decided and cleared
	// when the reflection phase has loaded.
	reflectionPending bool

	width    int
	height   int
	quitting bool
}

// NewModel creates a model that talks to api. ctx bounds every request.
func NewModel(ctx context.Context, api API) Model {
	ai := textinput.New()
	ai.Placeholder = "make your case..."
	ai.CharLimit = 1000

	ri := textinput.New()
	ri.Placeholder = "your reflection..."
	ri.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		api:       api,
		state:     client.NewViewState(),
		stance:    2,
		argInput:  ai,
		reflInput: ri,
		pane:      viewport.New(80, 12),
		spinner:   sp,
		width:     100,
		height:    32,
	}
	m.resize()
	return m
}

// State returns the controller's view of the game.
func (m Model) State() *client.ViewState { return m.state }

func (m Model) Init() tea.Cmd {
	return nil
}

// request marks the model busy and runs cmd alongside the spinner.
func (m Model) request(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshPane()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.alert != "" {
			switch msg.String() {
			case "enter", "esc", " ":
				m.alert = ""
			}
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		switch m.screen {
		case screenIntro:
			return m.updateIntro(msg)
		case screenIndividual:
			return m.updateIndividual(msg)
		case screenGroup:
			return m.updateGroup(msg)
		case screenReflection:
			return m.updateReflection(msg)
		}
		return m, nil
	}

	return m.handleResult(msg)
}

// handleResult applies the outcome of a request.
func (m Model) handleResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.busy = false
		slog.Warn("Request failed", "error", msg.err)
		m.alert = alertText(msg.err, msg.fallback)
		if msg.restore != "" {
			switch m.screen {
			case screenGroup:
				m.argInput.SetValue(msg.restore)
			case screenReflection:
				m.reflInput.SetValue(msg.restore)
			}
		}
		return m, nil

	case startedMsg:
		m.state.ApplyStart(msg.resp)
		m.screen = screenIndividual
		m.cursor = 0
		m.feedback = nil
		return m, m.loadAreas()

	case areasMsg:
		m.busy = false
		m.catalog = msg.resp.PolicyAreas
		return m, nil

	case preferenceMsg:
		m.busy = false
		m.state.ApplyPreference(msg.area, msg.option, msg.resp)
		m.feedback = msg.resp.Feedback
		return m, nil

	case groupMsg:
		m.busy = false
		m.state.ApplyGroupStart(msg.resp)
		m.screen = screenGroup
		m.feedback = nil
		m.refreshPane()
		return m, m.argInput.Focus()

	case argumentMsg:
		m.busy = false
		m.state.ApplyArgument(msg.argument, msg.option, msg.resp)
		m.refreshPane()
		return m, nil

	case finalizeMsg:
		m.state.ApplyFinalize(msg.option, msg.resp)
		if msg.resp.IsFinalTopic {
			m.reflectionPending = true
			m.argInput.Blur()
			m.refreshPane()
			return m, m.startReflection()
		}
		m.busy = false
		m.refreshPane()
		return m, nil

	case reflectionMsg:
		m.busy = false
		m.reflectionPending = false
		m.state.ApplyReflection(msg.resp)
		m.reflection = newReflectionView(msg.resp)
		m.screen = screenReflection
		m.argInput.Blur()
		m.refreshPane()
		m.pane.GotoTop()
		return m, m.reflInput.Focus()

	case reflectionSentMsg:
		m.busy = false
		m.reflectionSent = true
		m.reflInput.Reset()
		m.reflInput.Blur()
		m.alert = thanksReflection
		return m, nil

	case stanceMsg:
		m.busy = false
		if domain.ValidOption(msg.stance) {
			m.stance = msg.stance
		}
		return m, nil

	case finishedMsg:
		m = m.reset()
		if msg.err != nil {
			m.alert = finishFailed
		} else {
			m.alert = thanksPlaying
		}
		return m, nil
	}

	// Cursor blinks and similar belong to whichever input has focus.
	var cmd tea.Cmd
	switch {
	case m.argInput.Focused():
		m.argInput, cmd = m.argInput.Update(msg)
	case m.reflInput.Focused():
		m.reflInput, cmd = m.reflInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateIntro(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "enter", "s":
		return m.request(m.startGame())
	}
	return m, nil
}

func (m Model) updateIndividual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.catalog)-1 {
			m.cursor++
		}
	case "r":
		if len(m.catalog) == 0 {
			return m.request(m.loadAreas())
		}
	case "1", "2", "3":
		if len(m.catalog) == 0 {
			return m, nil
		}
		option := int(msg.String()[0] - '0')
		return m.request(m.setPreference(m.catalog[m.cursor].Name, option))
	case "enter":
		if len(m.catalog) == 0 || len(m.state.SelectedPolicies) < len(m.catalog) {
			return m, nil
		}
		return m.request(m.startGroup())
	}
	return m, nil
}

func (m Model) updateGroup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.reflectionPending {
		switch key {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m.request(m.startReflection())
		}
		var cmd tea.Cmd
		m.pane, cmd = m.pane.Update(msg)
		return m, cmd
	}

	if key == "tab" {
		m.stance = m.stance%domain.MaxOption + 1
		return m, nil
	}

	if m.argInput.Focused() {
		switch key {
		case "esc":
			m.argInput.Blur()
			return m, nil
		case "enter":
			argument := strings.TrimSpace(m.argInput.Value())
			if argument == "" {
				m.alert = "Please enter your argument."
				return m, nil
			}
			m.argInput.Reset()
			return m.request(m.submitArgument(argument, m.stance))
		}
		var cmd tea.Cmd
		m.argInput, cmd = m.argInput.Update(msg)
		return m, cmd
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "i", "enter":
		return m, m.argInput.Focus()
	case "1", "2", "3":
		return m.request(m.finalize(int(key[0] - '0')))
	case "d":
		text := strings.TrimSpace(m.argInput.Value())
		if text == "" {
			return m, nil
		}
		return m.request(m.detectStance(text))
	}
	var cmd tea.Cmd
	m.pane, cmd = m.pane.Update(msg)
	return m, cmd
}

func (m Model) updateReflection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+f":
		return m.request(m.finish())
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.pane, cmd = m.pane.Update(msg)
		return m, cmd
	case "enter":
		if m.reflectionSent {
			return m, nil
		}
		text := strings.TrimSpace(m.reflInput.Value())
		if text == "" {
			m.alert = "Please enter your reflection."
			return m, nil
		}
		return m.request(m.submitReflection(text))
	}

	if m.reflectionSent {
		return m, nil
	}
	var cmd tea.Cmd
	m.reflInput, cmd = m.reflInput.Update(msg)
	return m, cmd
}

// reset returns to the intro screen with a fresh game state.
func (m Model) reset() Model {
	m.busy = false
	m.screen = screenIntro
	m.state = client.NewViewState()
	m.catalog = nil
	m.cursor = 0
	m.feedback = nil
	m.stance = 2
	m.reflection = nil
	m.reflectionSent = false
	m.reflectionPending = false
	m.argInput.Reset()
	m.argInput.Blur()
	m.reflInput.Reset()
	m.reflInput.Blur()
	m.pane.SetContent("")
	return m
}

func (m *Model) resize() {
	w := max(m.width-4, 20)
	m.pane.Width = w
	m.pane.Height = max(m.height-14, 5)
	m.argInput.Width = max(w-12, 10)
	m.reflInput.Width = max(w-12, 10)
}

// refreshPane re-renders the scrollable pane of the current screen.
func (m *Model) refreshPane() {
	switch m.screen {
	case screenGroup:
		m.pane.SetContent(m.renderDiscussion())
		m.pane.GotoBottom()
	case screenReflection:
		if m.reflection != nil {
			m.pane.SetContent(m.reflection.render(m.pane.Width))
		}
	}
}
