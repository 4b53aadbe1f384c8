package agent

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/openrouter"
)

type fakeCompleter struct {
	text string
	err  error
	reqs []openrouter.ChatRequest
}

func (f *fakeCompleter) ChatCompletion(_ context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &openrouter.ChatResponse{Choices: []openrouter.Choice{{Message: openrouter.Message{Content: f.text}}}}, nil
}

var testProfile = domain.AgentProfile{
	ID:                  "agent_1",
	Name:                "Quinn",
	Age:                 44,
	Education:           "PhD in Sociology",
	Occupation:          "NGO Worker",
	SocioeconomicStatus: "Middle class",
	PoliticalStance:     "Progressive",
}

func TestCannedSpeakerDrawsFromPools(t *testing.T) {
	s := NewCannedSpeaker(rand.New(rand.NewPCG(1, 1)))

	opening, err := s.Opening(context.Background(), OpeningRequest{Profile: testProfile})
	if err != nil {
		t.Fatalf("Opening failed: %v", err)
	}
	if !slices.Contains(openingLines, opening) {
		t.Errorf("opening %q not from the opening pool", opening)
	}

	counter, err := s.Counter(context.Background(), CounterRequest{Profile: testProfile})
	if err != nil {
		t.Fatalf("Counter failed: %v", err)
	}
	if !slices.Contains(counterLines, counter) {
		t.Errorf("counter %q not from the counter pool", counter)
	}
}

func TestCannedSpeakerHonoursCancellation(t *testing.T) {
	s := NewCannedSpeaker(rand.New(rand.NewPCG(1, 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Opening(ctx, OpeningRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLLMSpeakerBuildsPersonaPrompt(t *testing.T) {
	llm := &fakeCompleter{text: "  We must fund bilingual programs.  "}
	s := NewLLMSpeaker(llm, LLMConfig{Model: "test-model"}, NewCannedSpeaker(rand.New(rand.NewPCG(1, 1))), nil)

	got, err := s.Opening(context.Background(), OpeningRequest{
		Profile:         testProfile,
		Topic:           domain.AreaLanguage,
		Preference:      3,
		BudgetRemaining: 9,
		Discussion: []domain.DiscussionEntry{
			{SpeakerID: "agent_2", SpeakerName: "Riley", Statement: "Option 1 is enough."},
			{Topic: domain.AreaAccess, Decision: 2},
		},
	})
	if err != nil {
		t.Fatalf("Opening failed: %v", err)
	}
	if got != "We must fund bilingual programs." {
		t.Errorf("expected trimmed completion, got %q", got)
	}

	if len(llm.reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(llm.reqs))
	}
	req := llm.reqs[0]
	if req.Model != "test-model" {
		t.Errorf("unexpected model %q", req.Model)
	}
	if !strings.Contains(req.Messages[0].Content, "You are Quinn, a 44-year-old NGO Worker") {
		t.Errorf("persona missing from system prompt: %q", req.Messages[0].Content)
	}
	user := req.Messages[1].Content
	for _, want := range []string{"Language Instruction", "Option 3", "current remaining: 9 units", "Riley: Option 1 is enough."} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q: %q", want, user)
		}
	}
}

func TestLLMSpeakerFallsBackOnError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("upstream down")}
	s := NewLLMSpeaker(llm, LLMConfig{Model: "m"}, NewCannedSpeaker(rand.New(rand.NewPCG(2, 2))), nil)

	got, err := s.Counter(context.Background(), CounterRequest{Profile: testProfile, Topic: domain.AreaAccess, Preference: 1, OpponentOption: 3})
	if err != nil {
		t.Fatalf("Counter should fall back, got error %v", err)
	}
	if !slices.Contains(counterLines, got) {
		t.Errorf("expected a canned counterargument, got %q", got)
	}
}

func TestLLMSpeakerFallsBackOnEmptyCompletion(t *testing.T) {
	llm := &fakeCompleter{text: "   "}
	s := NewLLMSpeaker(llm, LLMConfig{Model: "m"}, NewCannedSpeaker(rand.New(rand.NewPCG(2, 2))), nil)

	got, err := s.Opening(context.Background(), OpeningRequest{Profile: testProfile})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(openingLines, got) {
		t.Errorf("expected a canned opening, got %q", got)
	}
}

func TestCounterPromptQuotesArgument(t *testing.T) {
	msgs := counterMessages(CounterRequest{
		Profile:        testProfile,
		Topic:          domain.AreaFinancial,
		Preference:     2,
		OpponentOption: 3,
		Argument:       "Fund it fully.",
	})
	if !strings.Contains(msgs[1].Content, "argued for Option 3 on Financial Support. You support Option 2.") {
		t.Errorf("unexpected counter prompt: %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[1].Content, `"Fund it fully."`) {
		t.Errorf("argument not quoted: %q", msgs[1].Content)
	}
}
