package agent

import (
	"fmt"
	"strings"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/openrouter"
)

// maxDiscussionLines bounds how much of the running discussion goes into a prompt.
const maxDiscussionLines = 12

func openingMessages(req OpeningRequest, totalBudget int) []openrouter.Message {
	briefing := fmt.Sprintf(
		"The group is discussing %s for refugee education in the Republic of Bean. "+
			"You prefer Option %d, but the group needs to stay within a budget of %d units "+
			"(current remaining: %d units).",
		req.Topic, req.Preference, totalBudget, req.BudgetRemaining)

	instruction := "Generate a realistic response where you advocate for your preferred option while acknowledging " +
		"budget constraints. Your response should reflect your background, values, and political stance. " +
		"Keep it under 100 words and make it sound like natural dialogue."

	return []openrouter.Message{
		{Role: "system", Content: req.Profile.Persona()},
		{Role: "user", Content: strings.Join([]string{
			briefing,
			"Current discussion: " + formatDiscussion(req.Discussion),
			instruction,
		}, "\n\n")},
	}
}

func counterMessages(req CounterRequest) []openrouter.Message {
	briefing := fmt.Sprintf(
		"Another member of parliament has argued for Option %d on %s. You support Option %d.",
		req.OpponentOption, req.Topic, req.Preference)
	if req.Argument != "" {
		briefing += fmt.Sprintf("\n\nTheir argument: %q", req.Argument)
	}

	instruction := "Generate a respectful but firm counterargument that reflects your background and values. " +
		"Your response should be natural dialogue of 2-3 sentences."

	return []openrouter.Message{
		{Role: "system", Content: req.Profile.Persona()},
		{Role: "user", Content: briefing + "\n\n" + instruction},
	}
}

func formatDiscussion(entries []domain.DiscussionEntry) string {
	var lines []string
	for _, e := range entries {
		if !e.IsStatement() {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", e.SpeakerName, e.Statement))
	}
	if len(lines) == 0 {
		return "(none yet)"
	}
	if len(lines) > maxDiscussionLines {
		lines = lines[len(lines)-maxDiscussionLines:]
	}
	return strings.Join(lines, "\n")
}
