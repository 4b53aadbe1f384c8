package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/challenge-game/internal/budget"
	"github.com/ashureev/challenge-game/internal/openrouter"
)

var errEmptyCompletion = errors.New("empty completion")

// Completer is the subset of the OpenRouter client the LLM speaker needs.
type Completer interface {
	ChatCompletion(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
}

// LLMConfig tunes the language-model speaker.
type LLMConfig struct {
	Model          string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
}

// LLMSpeaker voices agents through a chat-completion model and falls back to
// another speaker when the model is unavailable.
type LLMSpeaker struct {
	llm      Completer
	cfg      LLMConfig
	fallback Speaker
	logger   *slog.Logger
}

// NewLLMSpeaker creates a model-backed speaker.
func NewLLMSpeaker(llm Completer, cfg LLMConfig, fallback Speaker, logger *slog.Logger) *LLMSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 220
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &LLMSpeaker{llm: llm, cfg: cfg, fallback: fallback, logger: logger}
}

// Opening implements Speaker.
func (s *LLMSpeaker) Opening(ctx context.Context, req OpeningRequest) (string, error) {
	text, err := s.complete(ctx, openingMessages(req, budget.DefaultTotal))
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	s.logger.Warn("LLM opening statement failed, using fallback",
		"agent_id", req.Profile.ID,
		"topic", req.Topic,
		"error", err,
	)
	return s.fallback.Opening(ctx, req)
}

// Counter implements Speaker.
func (s *LLMSpeaker) Counter(ctx context.Context, req CounterRequest) (string, error) {
	text, err := s.complete(ctx, counterMessages(req))
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	s.logger.Warn("LLM counterargument failed, using fallback",
		"agent_id", req.Profile.ID,
		"topic", req.Topic,
		"error", err,
	)
	return s.fallback.Counter(ctx, req)
}

func (s *LLMSpeaker) complete(ctx context.Context, messages []openrouter.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	resp, err := s.llm.ChatCompletion(ctx, openrouter.ChatRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}
