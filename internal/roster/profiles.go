// Package roster generates the simulated members of parliament and their
// policy preferences.
package roster

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/ashureev/challenge-game/internal/domain"
)

// DefaultSize is the number of agents seated in a new game.
const DefaultSize = 4

var firstNames = []string{
	"Alex", "Jordan", "Morgan", "Taylor", "Casey", "Quinn", "Riley", "Avery",
	"Cameron", "Hayden", "Reese", "Finley", "Dakota", "Robin", "Harper", "Emerson",
}

var educationLevels = []string{
	"High School Diploma",
	"Technical Certificate",
	"Associate's Degree",
	"Bachelor's Degree in Humanities",
	"Bachelor's Degree in Social Sciences",
	"Bachelor's Degree in Business",
	"Bachelor's Degree in STEM",
	"Master's Degree in Education",
	"Master's Degree in Public Policy",
	"Master's Degree in Social Work",
	"Master's Degree in Business Administration",
	"PhD in Economics",
	"PhD in Political Science",
	"PhD in Sociology",
	"PhD in Education",
}

var occupations = []string{
	"Teacher",
	"School Administrator",
	"University Professor",
	"Civil Servant",
	"NGO Worker",
	"Social Worker",
	"Lawyer",
	"Small Business Owner",
	"Corporate Executive",
	"Healthcare Professional",
	"Community Organizer",
	"Journalist",
	"Religious Leader",
	"Retired Military Officer",
	"Local Government Official",
}

var (
	doctoralOccupations = []string{"University Professor", "NGO Worker", "Corporate Executive", "Local Government Official"}
	masterOccupations   = []string{"School Administrator", "University Professor", "Civil Servant", "NGO Worker", "Corporate Executive", "Healthcare Professional", "Lawyer"}
)

var socioeconomicStatuses = []string{
	"Working class",
	"Lower middle class",
	"Middle class",
	"Upper middle class",
	"Affluent",
}

var politicalStances = []string{
	"Conservative",
	"Moderate conservative",
	"Moderate",
	"Moderate liberal",
	"Liberal",
	"Progressive",
	"Socialist",
	"Libertarian",
	"Centrist",
	"Pragmatist",
}

const (
	minAge = 25
	maxAge = 70
)

// Generate returns n agents with distinct names. Age bounds the education an
// agent can hold, education narrows the occupation, and the set is adjusted
// so conservative, moderate and liberal/progressive views are all present.
func Generate(r *rand.Rand, n int) ([]domain.AgentProfile, error) {
	if n < 1 || n > len(firstNames) {
		return nil, fmt.Errorf("roster: agent count must be between 1 and %d, got %d", len(firstNames), n)
	}

	perm := r.Perm(len(firstNames))
	agents := make([]domain.AgentProfile, n)
	for i := range n {
		age := minAge + r.IntN(maxAge-minAge+1)

		education := pick(r, educationFor(age))
		agents[i] = domain.AgentProfile{
			ID:                  fmt.Sprintf("agent_%d", i+1),
			Name:                firstNames[perm[i]],
			Age:                 age,
			Education:           education,
			Occupation:          pick(r, occupationsFor(education)),
			SocioeconomicStatus: pick(r, socioeconomicStatuses),
			PoliticalStance:     pick(r, politicalStances),
		}
	}

	ensureDiversity(agents)
	return agents, nil
}

func educationFor(age int) []string {
	switch {
	case age < 30:
		return educationLevels[:7]
	case age < 40:
		return educationLevels[:12]
	default:
		return educationLevels
	}
}

func occupationsFor(education string) []string {
	switch {
	case strings.Contains(education, "PhD"):
		return doctoralOccupations
	case strings.Contains(education, "Master's"):
		return masterOccupations
	default:
		return occupations
	}
}

// Stance categories used for the diversity adjustment.
const (
	categoryConservative = "Conservative"
	categoryModerate     = "Moderate"
	categoryLiberal      = "Liberal/Progressive"
)

// StanceCategory buckets a political stance, returning "" for stances
// outside the three categories (Libertarian, Centrist, Pragmatist).
func StanceCategory(stance string) string {
	switch {
	case strings.Contains(stance, "Conservative"):
		return categoryConservative
	case strings.Contains(stance, "Moderate"):
		return categoryModerate
	case strings.Contains(stance, "Liberal"), strings.Contains(stance, "Progressive"), strings.Contains(stance, "Socialist"):
		return categoryLiberal
	}
	return ""
}

// ensureDiversity rewrites stances so every category is represented. Only
// agents whose category is uncategorised or shared with another agent are
// rewritten, so filling one gap never opens another.
func ensureDiversity(agents []domain.AgentProfile) {
	counts := make(map[string]int, 4)
	for _, a := range agents {
		counts[StanceCategory(a.PoliticalStance)]++
	}

	replacement := map[string]string{
		categoryConservative: "Conservative",
		categoryModerate:     "Moderate",
		categoryLiberal:      "Liberal",
	}

	for _, category := range []string{categoryConservative, categoryModerate, categoryLiberal} {
		if counts[category] > 0 {
			continue
		}
		for i := range agents {
			current := StanceCategory(agents[i].PoliticalStance)
			if current != "" && counts[current] < 2 {
				continue
			}
			counts[current]--
			agents[i].PoliticalStance = replacement[category]
			counts[category]++
			break
		}
	}
}

func pick(r *rand.Rand, items []string) string {
	return items[r.IntN(len(items))]
}
