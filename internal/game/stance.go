package game

import "strings"

var stanceKeywords = map[int][]string{
	3: {"comprehensive", "inclusive", "equal", "rights", "justice", "transform"},
	2: {"moderate", "balance", "compromise", "middle", "reasonable"},
	1: {"minimal", "cost", "budget", "restrict", "limit", "control"},
}

// DetectStance guesses which option a piece of speech argues for by
// counting keyword hits. A strict winner is required; anything else
// yields the middle option.
func DetectStance(text string) int {
	text = strings.ToLower(text)

	scores := make(map[int]int, len(stanceKeywords))
	for option, keywords := range stanceKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				scores[option]++
			}
		}
	}

	for option := 1; option <= 3; option++ {
		winner := true
		for other := 1; other <= 3; other++ {
			if other != option && scores[other] >= scores[option] {
				winner = false
				break
			}
		}
		if winner {
			return option
		}
	}
	return 2
}
