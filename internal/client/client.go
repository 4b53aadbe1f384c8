// Package client talks to the game server's JSON API. It is the Go
// counterpart of the browser controller's request layer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/challenge-game/internal/protocol"
)

// DefaultTimeout bounds a single API call. Agent replies may come from a
// language model, so it is generous.
const DefaultTimeout = 60 * time.Second

// APIError is returned when the server answers with success false.
type APIError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request failed with status %d", e.Path, e.StatusCode)
	}
	return e.Message
}

// IsAPIError reports whether err carries a message from the server.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Client calls the game API of one server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the server at baseURL. A zero timeout selects
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.baseURL }

type response interface {
	Result() protocol.Status
}

// call sends body to path and decodes the answer into T. Failed statuses
// come back as *APIError whatever the HTTP code.
func call[T response](ctx context.Context, c *Client, method, path string, body interface{}) (T, error) {
	var out T

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return out, fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return out, fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return out, &APIError{Path: path, StatusCode: resp.StatusCode}
		}
		return out, fmt.Errorf("decode %s response: %w", path, err)
	}

	if status := out.Result(); !status.Success || resp.StatusCode != http.StatusOK {
		return out, &APIError{Path: path, StatusCode: resp.StatusCode, Message: status.Message}
	}
	return out, nil
}

// StartGame opens a new session. An empty sessionID lets the server pick one.
func (c *Client) StartGame(ctx context.Context, sessionID string) (protocol.StartGameResponse, error) {
	return call[protocol.StartGameResponse](ctx, c, http.MethodPost, "/api/start-game",
		protocol.StartGameRequest{SessionID: sessionID})
}

// PolicyAreas fetches the ordered policy catalog.
func (c *Client) PolicyAreas(ctx context.Context) (protocol.PolicyAreasResponse, error) {
	return call[protocol.PolicyAreasResponse](ctx, c, http.MethodGet, "/api/get-policy-areas", nil)
}

// SetPreference records an individual-phase choice.
func (c *Client) SetPreference(ctx context.Context, sessionID, area string, option int) (protocol.SetPreferenceResponse, error) {
	return call[protocol.SetPreferenceResponse](ctx, c, http.MethodPost, "/api/set-preference",
		protocol.SetPreferenceRequest{SessionID: sessionID, PolicyArea: area, Option: protocol.FlexInt(option)})
}

// StartGroupDiscussion ends the individual phase.
func (c *Client) StartGroupDiscussion(ctx context.Context, sessionID string) (protocol.GroupDiscussionResponse, error) {
	return call[protocol.GroupDiscussionResponse](ctx, c, http.MethodPost, "/api/start-group-discussion",
		protocol.SessionRequest{SessionID: sessionID})
}

// SubmitArgument puts the player's argument to the group.
func (c *Client) SubmitArgument(ctx context.Context, sessionID, argument string, option int) (protocol.SubmitArgumentResponse, error) {
	return call[protocol.SubmitArgumentResponse](ctx, c, http.MethodPost, "/api/submit-argument",
		protocol.SubmitArgumentRequest{SessionID: sessionID, Argument: argument, PreferredOption: protocol.FlexInt(option)})
}

// FinalizeTopic decides the current topic.
func (c *Client) FinalizeTopic(ctx context.Context, sessionID string, option int) (protocol.FinalizeTopicResponse, error) {
	return call[protocol.FinalizeTopicResponse](ctx, c, http.MethodPost, "/api/finalize-topic",
		protocol.FinalizeTopicRequest{SessionID: sessionID, Option: protocol.FlexInt(option)})
}

// StartReflection fetches the analysis of the final package.
func (c *Client) StartReflection(ctx context.Context, sessionID string) (protocol.ReflectionResponse, error) {
	return call[protocol.ReflectionResponse](ctx, c, http.MethodPost, "/api/start-reflection",
		protocol.SessionRequest{SessionID: sessionID})
}

// SubmitReflection sends the player's written reflection.
func (c *Client) SubmitReflection(ctx context.Context, sessionID, text string) (protocol.Status, error) {
	return call[protocol.Status](ctx, c, http.MethodPost, "/api/submit-reflection",
		protocol.SubmitReflectionRequest{SessionID: sessionID, ReflectionText: text})
}

// GenerateReport fetches the final report.
func (c *Client) GenerateReport(ctx context.Context, sessionID string) (protocol.ReportResponse, error) {
	return call[protocol.ReportResponse](ctx, c, http.MethodPost, "/api/generate-report",
		protocol.SessionRequest{SessionID: sessionID})
}

// GameState fetches the phase, topic and budget of a session.
func (c *Client) GameState(ctx context.Context, sessionID string) (protocol.GameStateResponse, error) {
	return call[protocol.GameStateResponse](ctx, c, http.MethodPost, "/api/get-game-state",
		protocol.SessionRequest{SessionID: sessionID})
}

// ProcessSpeech asks the server which option a piece of text argues for.
func (c *Client) ProcessSpeech(ctx context.Context, sessionID, text string) (protocol.ProcessSpeechResponse, error) {
	return call[protocol.ProcessSpeechResponse](ctx, c, http.MethodPost, "/api/process-speech",
		protocol.ProcessSpeechRequest{SessionID: sessionID, SpeechText: text})
}

// ClearSession ends a session on the server.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	_, err := call[protocol.Status](ctx, c, http.MethodPost, "/api/clear-session",
		protocol.SessionRequest{SessionID: sessionID})
	return err
}
