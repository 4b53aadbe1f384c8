package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ashureev/challenge-game/internal/client"
	"github.com/ashureev/challenge-game/internal/protocol"
)

// API is the part of client.Client the controller uses.
type API interface {
	StartGame(ctx context.Context, sessionID string) (protocol.StartGameResponse, error)
	PolicyAreas(ctx context.Context) (protocol.PolicyAreasResponse, error)
	SetPreference(ctx context.Context, sessionID, area string, option int) (protocol.SetPreferenceResponse, error)
	StartGroupDiscussion(ctx context.Context, sessionID string) (protocol.GroupDiscussionResponse, error)
	SubmitArgument(ctx context.Context, sessionID, argument string, option int) (protocol.SubmitArgumentResponse, error)
	FinalizeTopic(ctx context.Context, sessionID string, option int) (protocol.FinalizeTopicResponse, error)
	StartReflection(ctx context.Context, sessionID string) (protocol.ReflectionResponse, error)
	SubmitReflection(ctx context.Context, sessionID, text string) (protocol.Status, error)
	ProcessSpeech(ctx context.Context, sessionID, text string) (protocol.ProcessSpeechResponse, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type (
	startedMsg    struct{ resp protocol.StartGameResponse }
	areasMsg      struct{ resp protocol.PolicyAreasResponse }
	preferenceMsg struct {
		area   string
		option int
		resp   protocol.SetPreferenceResponse
	}
	groupMsg    struct{ resp protocol.GroupDiscussionResponse }
	argumentMsg struct {
		argument string
		option   int
		resp     protocol.SubmitArgumentResponse
	}
	finalizeMsg struct {
		option int
		resp   protocol.FinalizeTopicResponse
	}
	reflectionMsg     struct{ resp protocol.ReflectionResponse }
	reflectionSentMsg struct{}
	stanceMsg         struct{ stance int }
	finishedMsg       struct{ err error }

	// errMsg ends a request that failed. fallback is shown when the server
	// gave no message of its own.
	errMsg struct {
		err      error
		fallback string
		restore  string
	}
)

func alertText(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func (m Model) startGame() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.api.StartGame(m.ctx, "")
		if err != nil {
			return errMsg{err: err, fallback: "Failed to start the game. Please try again."}
		}
		return startedMsg{resp: resp}
	}
}

func (m Model) loadAreas() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.api.PolicyAreas(m.ctx)
		if err != nil {
			return errMsg{err: err, fallback: "Failed to load policy areas. Please restart the game."}
		}
		return areasMsg{resp: resp}
	}
}

func (m Model) setPreference(area string, option int) tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		resp, err := m.api.SetPreference(m.ctx, sid, area, option)
		if err != nil {
			return errMsg{err: err, fallback: "Failed to select policy option. Please try again."}
		}
		return preferenceMsg{area: area, option: option, resp: resp}
	}
}

func (m Model) startGroup() tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		resp, err := m.api.StartGroupDiscussion(m.ctx, sid)
		if err != nil {
			return errMsg{err: err, fallback: "Failed to start group discussion. Please try again."}
		}
		return groupMsg{resp: resp}
	}
}

func (m Model) submitArgument(argument string, option int) tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		resp, err := m.api.SubmitArgument(m.ctx, sid, argument, option)
		if err != nil {
			return errMsg{err: err, fallback: "Failed to submit argument. Please try again.", restore: argument}
		}
		return argumentMsg{argument: argument, option: option, resp: resp}
	}
}

func (m Model) finalize(option int) tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		resp, err := m.api.FinalizeTopic(m.ctx, sid, option)
		if err != nil {
			return errMsg{err: err, fallback: "Failed to finalize topic. Please try again."}
		}
		return finalizeMsg{option: option, resp: resp}
	}
}

func (m Model) startReflection() tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		resp, err := m.api.StartReflection(m.ctx, sid)
		if err != nil {
			return errMsg{err: err, fallback: "Failed to start reflection phase. Please try again."}
		}
		return reflectionMsg{resp: resp}
	}
}

func (m Model) submitReflection(text string) tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		if _, err := m.api.SubmitReflection(m.ctx, sid, text); err != nil {
			return errMsg{err: err, fallback: "Failed to submit reflection. Please try again.", restore: text}
		}
		return reflectionSentMsg{}
	}
}

func (m Model) detectStance(text string) tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		resp, err := m.api.ProcessSpeech(m.ctx, sid, text)
		if err != nil {
			return errMsg{err: err, fallback: "Failed to read your stance. Please choose one yourself."}
		}
		return stanceMsg{stance: resp.DetectedStance}
	}
}

func (m Model) finish() tea.Cmd {
	sid := m.state.SessionID
	return func() tea.Msg {
		err := m.api.ClearSession(m.ctx, sid)
		if err != nil {
			slog.Warn("Failed to clear session", "error", err, "session_id", sid)
		}
		return finishedMsg{err: err}
	}
}
