package game

import (
	"math"

	"github.com/ashureev/challenge-game/internal/budget"
	"github.com/ashureev/challenge-game/internal/domain"
)

// coherencePairs are policy areas that only work well when funded at
// similar levels.
var coherencePairs = [][2]string{
	{domain.AreaAccess, domain.AreaLanguage},
	{domain.AreaTeachers, domain.AreaCurriculum},
	{domain.AreaFinancial, domain.AreaPsychosocial},
}

// justiceAreas are the areas the justice score is computed over.
var justiceAreas = []string{domain.AreaAccess, domain.AreaPsychosocial, domain.AreaCertification}

// AnalyzePolicies scores a policy package. Equity is the total option
// weight per area (1..3), justice the weight of the justice areas over 9,
// and coherence the mean agreement of the coherence pairs. The texts are
// chosen on those scales; Level carries each score mapped to 0..1.
func AnalyzePolicies(calc *budget.Calculator) domain.PolicyAnalysis {
	selected := calc.Selections()

	counts := map[int]int{1: 0, 2: 0, 3: 0}
	for _, option := range selected {
		counts[option]++
	}

	areaCount := len(calc.Areas())
	equity, equityLevel := 0.0, 0.0
	if areaCount > 0 {
		weight := counts[3]*3 + counts[2]*2 + counts[1]
		equity = float64(weight) / float64(areaCount)
		equityLevel = equity / domain.MaxOption
	}

	justiceWeight := 0
	for _, area := range justiceAreas {
		justiceWeight += selected[area]
	}
	justice := float64(justiceWeight) / float64(len(justiceAreas)*domain.MaxOption)

	coherence := 0.0
	for _, pair := range coherencePairs {
		a, b := selected[pair[0]], selected[pair[1]]
		if a == 0 || b == 0 {
			continue
		}
		switch diff := math.Abs(float64(a - b)); diff {
		case 0:
			coherence += 1
		case 1:
			coherence += 0.5
		}
	}
	coherence /= float64(len(coherencePairs))

	return domain.PolicyAnalysis{
		Equity:          scored(equity, equityLevel, equityAnalysis(equity)),
		Justice:         scored(justice, justice, justiceAnalysis(justice)),
		Coherence:       scored(coherence, coherence, coherenceAnalysis(coherence)),
		BenefitAnalysis: benefitAnalysis(equity, justice),
		Statistics: domain.PolicyStatistics{
			OptionDistribution: counts,
			BudgetUsed:         calc.Used(),
			BudgetRemaining:    calc.Remaining(),
		},
	}
}

func scored(score, level float64, analysis string) domain.ScoredAnalysis {
	return domain.ScoredAnalysis{Score: round(score), Level: round(level), Analysis: analysis}
}

func equityAnalysis(score float64) string {
	switch {
	case score > 0.7:
		return "Your policy package strongly prioritizes equity and inclusion."
	case score > 0.5:
		return "Your policy package shows a moderate commitment to equity."
	default:
		return "Your policy package prioritizes minimal intervention over equity concerns."
	}
}

func justiceAnalysis(score float64) string {
	switch {
	case score > 0.7:
		return "Your decisions strongly support justice-oriented approaches to refugee education."
	case score > 0.5:
		return "Your decisions show some commitment to justice but with significant compromises."
	default:
		return "Your decisions prioritize system stability over transformative justice."
	}
}

func coherenceAnalysis(score float64) string {
	switch {
	case score > 0.7:
		return "Your policy choices are highly coherent and mutually reinforcing."
	case score > 0.5:
		return "Your policy choices show moderate coherence with some contradictions."
	default:
		return "Your policy choices contain significant contradictions that may undermine effectiveness."
	}
}

func benefitAnalysis(equity, justice float64) string {
	switch {
	case equity < 0.4:
		return "Your policy package primarily serves the interests of the state and existing citizens."
	case justice > 0.7 && equity > 0.6:
		return "Your policy package strongly centers refugee needs and rights."
	default:
		return "Your policy package attempts to balance state interests with some refugee needs."
	}
}

// round keeps scores to four decimals so 2/3 does not travel as 0.6666666666666666.
func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// AnalyzeDiscussion counts statements per speaker. Decisions are not
// contributions. Every agent and the human player appear in the counts even
// when they never spoke.
func AnalyzeDiscussion(history []domain.DiscussionEntry, profiles []domain.AgentProfile) domain.DiscussionAnalysis {
	order := make([]string, 0, len(profiles)+1)
	order = append(order, domain.HumanSpeakerID)
	counts := map[string]int{domain.HumanSpeakerID: 0}
	for _, p := range profiles {
		order = append(order, p.ID)
		counts[p.ID] = 0
	}

	total := 0
	for _, entry := range history {
		if !entry.IsStatement() {
			continue
		}
		total++
		if _, known := counts[entry.SpeakerID]; !known {
			order = append(order, entry.SpeakerID)
		}
		counts[entry.SpeakerID]++
	}

	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c)
	}

	dominant := []string{}
	silenced := []string{}
	for _, id := range order {
		c := counts[id]
		if float64(c) > 0.7*float64(maxCount) {
			dominant = append(dominant, id)
		}
		if c > 0 && float64(c) < 0.3*float64(maxCount) {
			silenced = append(silenced, id)
		}
	}

	return domain.DiscussionAnalysis{
		ContributionCounts: counts,
		DominantVoices:     dominant,
		SilencedVoices:     silenced,
		TotalExchanges:     total,
	}
}
