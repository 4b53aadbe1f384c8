package roster

import (
	"math/rand/v2"
	"strings"

	"github.com/ashureev/challenge-game/internal/domain"
)

// Preferences maps policy area to the option an agent favours.
type Preferences map[string]int

func baseTendency(profile domain.AgentProfile) float64 {
	tendency := 2.0
	switch profile.PoliticalStance {
	case "Conservative":
		tendency = 1.3
	case "Liberal":
		tendency = 2.3
	case "Socialist":
		tendency = 2.7
	}

	switch profile.Occupation {
	case "NGO Worker", "Teacher", "Social Worker":
		tendency += 0.3
	case "Civil Servant", "University Professor":
		tendency += 0.1
	case "Corporate Executive":
		tendency -= 0.2
	}
	return tendency
}

func specialInterests(r *rand.Rand, profile domain.AgentProfile, areas []string) map[string]bool {
	interests := make(map[string]bool, 2)
	if strings.HasPrefix(profile.Education, "PhD") || strings.HasPrefix(profile.Education, "Master") {
		interests[areas[r.IntN(len(areas))]] = true
	}
	switch profile.Occupation {
	case "NGO Worker":
		interests[domain.AreaPsychosocial] = true
	case "Civil Servant":
		interests[domain.AreaCertification] = true
	case "University Professor":
		interests[domain.AreaCurriculum] = true
	}
	return interests
}

// GeneratePreferences derives an agent's favoured option per area from its
// stance and occupation, with a random jitter of ±0.5 and a +0.5 push
// towards the more inclusive option on special-interest areas.
func GeneratePreferences(r *rand.Rand, profile domain.AgentProfile, areas []string) Preferences {
	prefs := make(Preferences, len(areas))
	if len(areas) == 0 {
		return prefs
	}

	base := baseTendency(profile)
	interests := specialInterests(r, profile, areas)
	for _, area := range areas {
		value := base
		if interests[area] {
			value += 0.5
		}
		value += r.Float64() - 0.5

		switch {
		case value < 1.5:
			prefs[area] = 1
		case value < 2.5:
			prefs[area] = 2
		default:
			prefs[area] = 3
		}
	}
	return prefs
}

// GenerateAll returns preferences for every agent keyed by agent ID.
func GenerateAll(r *rand.Rand, profiles []domain.AgentProfile, areas []string) map[string]Preferences {
	all := make(map[string]Preferences, len(profiles))
	for _, p := range profiles {
		all[p.ID] = GeneratePreferences(r, p, areas)
	}
	return all
}
