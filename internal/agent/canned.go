package agent

import (
	"context"
	"math/rand/v2"
	"sync"
)

var openingLines = []string{
	"I understand we have budget constraints, but I believe investing in Option 3 for this policy area is essential. The long-term benefits outweigh the costs, and we can compensate by selecting Option 1 in other less critical areas.",
	"While I'd prefer Option 3, I recognize our budget limitations. Option 2 offers a reasonable compromise that addresses core needs while remaining fiscally responsible.",
	"From my experience, Option 1 is perfectly adequate here. We need to be practical about our resources and prioritize other areas that need more funding.",
	"Having worked directly with refugees, I can tell you that anything less than Option 3 for this policy would be severely inadequate. We must find the budget elsewhere.",
	"Let's be realistic about what we can afford. Option 2 gives us most of the benefits without breaking the bank. We need to be strategic with our limited resources.",
}

var counterLines = []string{
	"I appreciate your perspective, but I believe you're overlooking the long-term consequences. My experience has shown that more investment now prevents greater costs later.",
	"While I understand your concern about costs, we need to consider the human impact as well. These are real people whose futures depend on our decisions today.",
	"I respect your idealism, but we must be practical about implementation. The best policy is one we can actually afford to sustain over time.",
	"Having worked directly in this field, I can tell you that your approach won't address the underlying issues. We need a more comprehensive solution.",
	"Perhaps in an ideal world with unlimited resources, but we're making decisions in the real world with real constraints. We need to be strategic.",
}

// CannedSpeaker answers from fixed pools of lines. It never fails and needs
// no network, which makes it the fallback for LLMSpeaker.
type CannedSpeaker struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewCannedSpeaker creates a speaker drawing lines with r.
func NewCannedSpeaker(r *rand.Rand) *CannedSpeaker {
	return &CannedSpeaker{r: r}
}

// Opening implements Speaker.
func (s *CannedSpeaker) Opening(ctx context.Context, _ OpeningRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.pick(openingLines), nil
}

// Counter implements Speaker.
func (s *CannedSpeaker) Counter(ctx context.Context, _ CounterRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.pick(counterLines), nil
}

func (s *CannedSpeaker) pick(lines []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lines[s.r.IntN(len(lines))]
}
