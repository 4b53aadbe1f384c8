package game

import (
	"fmt"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/roster"
)

// ReflectionQuestions are asked of the player once every topic is decided.
var ReflectionQuestions = []string{
	"What emotions came up for you during the decision-making process: discomfort, frustration, detachment, guilt? What do those feelings reveal about your position in relation to refugee education?",
	"How did the group dynamics impact your ability to advocate for certain policies? Were there moments when you chose silence or compromise? Why?",
	"Whose interests did your decisions ultimately serve: refugees, citizens, or the state? Why?",
	"What compromises did you make for the sake of consensus, and who or what got erased in the process?",
	"How did the structure of the game (budget, options, scenario) shape or limit your imagination of justice?",
}

// Sentiments an agent can express about the final package.
const (
	SentimentSatisfied    = "satisfied"
	SentimentMixed        = "mixed"
	SentimentDisappointed = "disappointed"
)

// ReflectOn returns each agent's verdict on the final policies. Alignment is
// the share of areas, out of all of them, where the decision matched the
// agent's preference. Areas are walked in the given order, so the area an
// agent names is deterministic.
func ReflectOn(profiles []domain.AgentProfile, prefs map[string]roster.Preferences, areas []string, final map[string]int) []domain.AgentReflection {
	out := make([]domain.AgentReflection, 0, len(profiles))
	for _, profile := range profiles {
		agentPrefs := prefs[profile.ID]

		var agreed, disagreed []string
		for _, area := range areas {
			decision, ok := final[area]
			if !ok {
				continue
			}
			if agentPrefs[area] == decision {
				agreed = append(agreed, area)
			} else {
				disagreed = append(disagreed, area)
			}
		}

		alignment := 0.0
		if len(areas) > 0 {
			alignment = float64(len(agreed)) / float64(len(areas)) * 100
		}

		r := domain.AgentReflection{
			AgentID:             profile.ID,
			AgentName:           profile.Name,
			PreferenceAlignment: fmt.Sprintf("%.1f%%", alignment),
		}
		switch {
		case alignment > 70:
			r.Sentiment = SentimentSatisfied
			r.Reflection = fmt.Sprintf("I'm pleased with our final policy package as it aligns with many of my priorities. Particularly, I appreciate our approach to %s.", agreed[0])
		case alignment > 40:
			r.Sentiment = SentimentMixed
			r.Reflection = fmt.Sprintf("The final policy has some strengths, but I'm disappointed in our decision on %s. I believe we could have done better there.", first(disagreed))
		default:
			r.Sentiment = SentimentDisappointed
			r.Reflection = "This policy package falls short of what I believe would truly serve the refugee population. Too many compromises were made at the expense of those most vulnerable."
		}
		out = append(out, r)
	}
	return out
}

func first(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
