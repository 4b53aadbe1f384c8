package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/game"
	"github.com/ashureev/challenge-game/internal/identity"
	"github.com/ashureev/challenge-game/internal/protocol"
)

// GameHandler serves the game endpoints.
type GameHandler struct {
	*Handler
	limiter *RateLimiter
	catalog domain.Catalog
}

// NewGameHandler creates a game handler. limiter bounds argument submissions
// per session; nil disables the limit.
func NewGameHandler(base *Handler, limiter *RateLimiter) *GameHandler {
	return &GameHandler{Handler: base, limiter: limiter, catalog: domain.DefaultCatalog()}
}

// RegisterRoutes registers game routes.
func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/start-game", h.StartGame)
		r.Get("/get-policy-areas", h.GetPolicyAreas)
		r.Post("/set-preference", h.SetPreference)
		r.Post("/start-group-discussion", h.StartGroupDiscussion)
		r.Post("/submit-argument", h.SubmitArgument)
		r.Post("/finalize-topic", h.FinalizeTopic)
		r.Post("/start-reflection", h.StartReflection)
		r.Post("/submit-reflection", h.SubmitReflection)
		r.Post("/generate-report", h.GenerateReport)
		r.Post("/get-game-state", h.GetGameState)
		r.Post("/process-speech", h.ProcessSpeech)
		r.Post("/clear-session", h.ClearSession)
	})
}

// StartGame seats a new roster and opens the individual phase.
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.StartGameRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	requested := strings.TrimSpace(req.SessionID)
	if requested != "" {
		sid, ok := identity.Sanitize(requested)
		if !ok {
			Error(w, http.StatusBadRequest, "Invalid session ID")
			return
		}
		requested = sid
	}

	sessionID, ctrl, start, err := h.sessions.Create(r.Context(), requested)
	if err != nil {
		slog.Error("Failed to start game", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to start game.")
		return
	}

	JSON(w, http.StatusOK, protocol.StartGameResponse{
		Status:        protocol.OK(start.Message),
		SessionID:     sessionID,
		Instructions:  start.Instructions,
		AgentProfiles: ctrl.Profiles(),
	})
}

// GetPolicyAreas returns the ordered policy catalog.
func (h *GameHandler) GetPolicyAreas(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, protocol.PolicyAreasResponse{
		Status:      protocol.OK(""),
		PolicyAreas: h.catalog,
	})
}

// SetPreference records an individual-phase choice.
func (h *GameHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	var req protocol.SetPreferenceRequest
	if !decode(w, r, &req) {
		return
	}
	ctrl, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	res, err := ctrl.SetPreference(req.PolicyArea, int(req.Option))
	if err != nil {
		if re := ruleError(w, r, err); re != nil {
			JSON(w, http.StatusOK, protocol.SetPreferenceResponse{
				Status:          protocol.Fail(re.Message),
				RemainingBudget: re.RemainingBudget,
				Feedback:        re.Feedback,
			})
		}
		return
	}
	h.save(r, req.SessionID)

	remaining := res.RemainingBudget
	JSON(w, http.StatusOK, protocol.SetPreferenceResponse{
		Status:          protocol.OK(res.Message),
		RemainingBudget: &remaining,
		Feedback:        res.Feedback,
	})
}

// StartGroupDiscussion opens the group phase with the agents' opening statements.
func (h *GameHandler) StartGroupDiscussion(w http.ResponseWriter, r *http.Request) {
	var req protocol.SessionRequest
	if !decode(w, r, &req) {
		return
	}
	ctrl, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	res, err := ctrl.StartGroupDiscussion(r.Context())
	if err != nil {
		if re := ruleError(w, r, err); re != nil {
			JSON(w, http.StatusOK, protocol.GroupDiscussionResponse{
				Status:   protocol.Fail(re.Message),
				Feedback: re.Feedback,
			})
		}
		return
	}
	h.save(r, req.SessionID)

	JSON(w, http.StatusOK, protocol.GroupDiscussionResponse{
		Status:       protocol.OK(res.Message),
		CurrentTopic: res.Topic,
		Instructions: res.Instructions,
		Topic:        res.Topic,
		Statements:   res.Statements,
	})
}

// SubmitArgument records the player's argument and the agents' replies.
func (h *GameHandler) SubmitArgument(w http.ResponseWriter, r *http.Request) {
	var req protocol.SubmitArgumentRequest
	if !decode(w, r, &req) {
		return
	}
	ctrl, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	if h.limiter != nil && !h.limiter.Allow(req.SessionID) {
		slog.Warn("Argument rate limit exceeded", "session_id", req.SessionID)
		Error(w, http.StatusTooManyRequests, "Too many arguments. Please wait a moment before speaking again.")
		return
	}

	res, err := ctrl.SubmitArgument(r.Context(), req.Argument, int(req.PreferredOption))
	if err != nil {
		if re := ruleError(w, r, err); re != nil {
			JSON(w, http.StatusOK, protocol.Fail(re.Message))
		}
		return
	}
	h.save(r, req.SessionID)

	JSON(w, http.StatusOK, protocol.SubmitArgumentResponse{
		Status:    protocol.OK(""),
		Topic:     res.Topic,
		Responses: res.Responses,
	})
}

// FinalizeTopic fixes the current topic's option and opens the next topic.
func (h *GameHandler) FinalizeTopic(w http.ResponseWriter, r *http.Request) {
	var req protocol.FinalizeTopicRequest
	if !decode(w, r, &req) {
		return
	}
	ctrl, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	res, err := ctrl.FinalizeTopic(r.Context(), int(req.Option))
	if err != nil {
		if re := ruleError(w, r, err); re != nil {
			JSON(w, http.StatusOK, protocol.FinalizeTopicResponse{
				Status:          protocol.Fail(re.Message),
				RemainingBudget: re.RemainingBudget,
			})
		}
		return
	}
	h.save(r, req.SessionID)

	remaining := res.RemainingBudget
	JSON(w, http.StatusOK, protocol.FinalizeTopicResponse{
		Status:          protocol.OK(res.Message),
		RemainingBudget: &remaining,
		IsFinalTopic:    res.IsFinalTopic,
		NextTopic:       res.NextTopic,
		NextPhase:       res.NextPhase,
		Topic:           res.NextTopic,
		Statements:      res.Statements,
	})
}

// StartReflection returns the analysis of the final package and the agents' reflections.
func (h *GameHandler) StartReflection(w http.ResponseWriter, r *http.Request) {
	var req protocol.SessionRequest
	if !decode(w, r, &req) {
		return
	}
	ctrl, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	res, err := ctrl.StartReflection()
	if err != nil {
		if re := ruleError(w, r, err); re != nil {
			JSON(w, http.StatusOK, protocol.Fail(re.Message))
		}
		return
	}

	JSON(w, http.StatusOK, protocol.ReflectionResponse{
		Status:              protocol.OK(res.Message),
		FinalPolicies:       res.FinalPolicies,
		PolicyAnalysis:      &res.PolicyAnalysis,
		ReflectionQuestions: res.Questions,
		Reflections:         res.Reflections,
		BudgetUsed:          res.BudgetUsed,
		BudgetRemaining:     res.BudgetRemaining,
	})
}

// SubmitReflection stores the player's written reflection.
func (h *GameHandler) SubmitReflection(w http.ResponseWriter, r *http.Request) {
	var req protocol.SubmitReflectionRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := h.session(w, r, req.SessionID); !ok {
		return
	}

	text := strings.TrimSpace(req.ReflectionText)
	if text == "" {
		JSON(w, http.StatusOK, protocol.Fail("Reflection must not be empty."))
		return
	}
	if err := h.sessions.SaveReflection(r.Context(), req.SessionID, text); err != nil {
		slog.Error("Failed to save reflection", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusInternalServerError, "Failed to save reflection.")
		return
	}

	JSON(w, http.StatusOK, protocol.OK("Reflection received. Thank you for your thoughtful response."))
}

// GenerateReport returns the final report of a finished game.
func (h *GameHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req protocol.SessionRequest
	if !decode(w, r, &req) {
		return
	}
	ctrl, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	report, err := ctrl.Report()
	if err != nil {
		if re := ruleError(w, r, err); re != nil {
			JSON(w, http.StatusOK, protocol.Fail(re.Message))
		}
		return
	}

	JSON(w, http.StatusOK, protocol.ReportResponse{
		Status:             protocol.OK(""),
		FinalPolicies:      report.FinalPolicies,
		PolicyAnalysis:     &report.PolicyAnalysis,
		DiscussionAnalysis: &report.DiscussionAnalysis,
		BudgetSummary:      &report.BudgetSummary,
	})
}

// GetGameState returns the phase, topic and budget of a session.
func (h *GameHandler) GetGameState(w http.ResponseWriter, r *http.Request) {
	var req protocol.SessionRequest
	if !decode(w, r, &req) {
		return
	}
	ctrl, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	st := ctrl.State()
	var topic *string
	if st.Topic != "" {
		topic = &st.Topic
	}
	JSON(w, http.StatusOK, protocol.GameStateResponse{
		Status:           protocol.OK(""),
		CurrentPhase:     st.Phase,
		CurrentTopic:     topic,
		BudgetUsed:       st.BudgetUsed,
		BudgetRemaining:  st.BudgetRemaining,
		SelectedPolicies: st.SelectedPolicies,
	})
}

// ProcessSpeech guesses the option a transcribed utterance argues for.
func (h *GameHandler) ProcessSpeech(w http.ResponseWriter, r *http.Request) {
	var req protocol.ProcessSpeechRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := h.session(w, r, req.SessionID); !ok {
		return
	}

	JSON(w, http.StatusOK, protocol.ProcessSpeechResponse{
		Status:         protocol.OK(""),
		ProcessedText:  req.SpeechText,
		DetectedStance: game.DetectStance(req.SpeechText),
	})
}

// ClearSession forgets a session. It succeeds for unknown sessions too.
func (h *GameHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	var req protocol.SessionRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.sessions.Clear(r.Context(), req.SessionID); err != nil {
		slog.Error("Failed to clear session", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusInternalServerError, "Failed to clear session.")
		return
	}
	if h.hub != nil {
		h.hub.CloseSession(req.SessionID)
	}
	if h.limiter != nil {
		h.limiter.Forget(req.SessionID)
	}

	JSON(w, http.StatusOK, protocol.OK("Session cleared"))
}
