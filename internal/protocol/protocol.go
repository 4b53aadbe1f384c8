// Package protocol defines the JSON messages exchanged between the game
// server and its controllers.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ashureev/challenge-game/internal/domain"
)

// Status is carried by every API response. Game rule violations come back
// with Success false and a human-readable Message.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Result returns the status; every response type gets it by embedding.
func (s Status) Result() Status { return s }

// OK is a successful status with an optional message.
func OK(message string) Status { return Status{Success: true, Message: message} }

// Fail is a failed status.
func Fail(message string) Status { return Status{Success: false, Message: message} }

// FlexInt decodes from a JSON number or a numeric string. Browser forms
// tend to send option numbers as strings.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	*f = FlexInt(n)
	return nil
}

// Requests.

// SessionRequest is the body of endpoints that only need the session id.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// StartGameRequest optionally names the session to start; the server
// generates an id when it is empty.
type StartGameRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// SetPreferenceRequest chooses an option for one area in the individual phase.
type SetPreferenceRequest struct {
	SessionID  string  `json:"session_id"`
	PolicyArea string  `json:"policy_area"`
	Option     FlexInt `json:"option"`
}

// SubmitArgumentRequest carries the player's argument on the current topic.
type SubmitArgumentRequest struct {
	SessionID       string  `json:"session_id"`
	Argument        string  `json:"argument"`
	PreferredOption FlexInt `json:"preferred_option"`
}

// FinalizeTopicRequest decides the current topic.
type FinalizeTopicRequest struct {
	SessionID string  `json:"session_id"`
	Option    FlexInt `json:"option"`
}

// SubmitReflectionRequest carries the player's written reflection.
type SubmitReflectionRequest struct {
	SessionID      string `json:"session_id"`
	ReflectionText string `json:"reflection_text"`
}

// ProcessSpeechRequest asks for the stance of a spoken or typed text.
type ProcessSpeechRequest struct {
	SessionID  string `json:"session_id"`
	SpeechText string `json:"speech_text"`
}

// Responses.

// StartGameResponse answers POST /api/start-game.
type StartGameResponse struct {
	Status
	SessionID     string                `json:"session_id,omitempty"`
	Instructions  string                `json:"instructions,omitempty"`
	AgentProfiles []domain.AgentProfile `json:"agent_profiles,omitempty"`
}

// PolicyAreasResponse answers GET /api/get-policy-areas. The catalog
// keeps area order on the wire.
type PolicyAreasResponse struct {
	Status
	PolicyAreas domain.Catalog `json:"policy_areas"`
}

// SetPreferenceResponse answers POST /api/set-preference. RemainingBudget
// is omitted when the request never reached the budget.
type SetPreferenceResponse struct {
	Status
	RemainingBudget *int     `json:"remaining_budget,omitempty"`
	Feedback        []string `json:"feedback,omitempty"`
}

// GroupDiscussionResponse answers POST /api/start-group-discussion with the
// first topic and its opening statements.
type GroupDiscussionResponse struct {
	Status
	CurrentTopic string             `json:"current_topic,omitempty"`
	Instructions string             `json:"instructions,omitempty"`
	Topic        string             `json:"topic,omitempty"`
	Statements   []domain.Statement `json:"statements,omitempty"`
	Feedback     []string           `json:"feedback,omitempty"`
}

// SubmitArgumentResponse holds one counterargument per agent.
type SubmitArgumentResponse struct {
	Status
	Topic     string             `json:"topic,omitempty"`
	Responses []domain.Statement `json:"responses,omitempty"`
}

// FinalizeTopicResponse answers POST /api/finalize-topic. It carries the
// next topic and its openings, or IsFinalTopic with NextPhase.
type FinalizeTopicResponse struct {
	Status
	RemainingBudget *int               `json:"remaining_budget,omitempty"`
	IsFinalTopic    bool               `json:"is_final_topic"`
	NextTopic       string             `json:"next_topic,omitempty"`
	NextPhase       domain.Phase       `json:"next_phase,omitempty"`
	Topic           string             `json:"topic,omitempty"`
	Statements      []domain.Statement `json:"statements,omitempty"`
}

// ReflectionResponse answers POST /api/start-reflection.
type ReflectionResponse struct {
	Status
	FinalPolicies       map[string]int           `json:"final_policies,omitempty"`
	PolicyAnalysis      *domain.PolicyAnalysis   `json:"policy_analysis,omitempty"`
	ReflectionQuestions []string                 `json:"reflection_questions,omitempty"`
	Reflections         []domain.AgentReflection `json:"reflections,omitempty"`
	BudgetUsed          int                      `json:"budget_used"`
	BudgetRemaining     int                      `json:"budget_remaining"`
}

// ReportResponse answers POST /api/generate-report.
type ReportResponse struct {
	Status
	FinalPolicies      map[string]int             `json:"final_policies,omitempty"`
	PolicyAnalysis     *domain.PolicyAnalysis     `json:"policy_analysis,omitempty"`
	DiscussionAnalysis *domain.DiscussionAnalysis `json:"discussion_analysis,omitempty"`
	BudgetSummary      *domain.BudgetSummary      `json:"budget_summary,omitempty"`
}

// GameStateResponse answers POST /api/get-game-state. CurrentTopic is
// null outside the group phase.
type GameStateResponse struct {
	Status
	CurrentPhase     domain.Phase   `json:"current_phase,omitempty"`
	CurrentTopic     *string        `json:"current_topic"`
	BudgetUsed       int            `json:"budget_used"`
	BudgetRemaining  int            `json:"budget_remaining"`
	SelectedPolicies map[string]int `json:"selected_policies"`
}

// ProcessSpeechResponse carries the detected stance, 1 to 3.
type ProcessSpeechResponse struct {
	Status
	ProcessedText  string `json:"processed_text,omitempty"`
	DetectedStance int    `json:"detected_stance,omitempty"`
}

// Discussion feed.

// Feed message types.
const (
	FeedEntry  = "entry"
	FeedPing   = "ping"
	FeedPong   = "pong"
	FeedClosed = "closed"
)

// FeedMessage is a websocket frame on /ws/discussion.
type FeedMessage struct {
	Type      string                  `json:"type"`
	SessionID string                  `json:"session_id,omitempty"`
	Entry     *domain.DiscussionEntry `json:"entry,omitempty"`
}
