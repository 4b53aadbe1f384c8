package domain

// ScoredAnalysis is a score with its interpretation. Score is on the
// metric's own scale; Level is the same score mapped to 0..1 for display.
type ScoredAnalysis struct {
	Score    float64 `json:"score"`
	Level    float64 `json:"level"`
	Analysis string  `json:"analysis"`
}

// PolicyStatistics summarizes a policy package.
type PolicyStatistics struct {
	OptionDistribution map[int]int `json:"option_distribution"`
	BudgetUsed         int         `json:"budget_used"`
	BudgetRemaining    int         `json:"budget_remaining"`
}

// PolicyAnalysis scores a complete policy package for equity, justice and coherence.
type PolicyAnalysis struct {
	Equity          ScoredAnalysis   `json:"equity"`
	Justice         ScoredAnalysis   `json:"justice"`
	Coherence       ScoredAnalysis   `json:"coherence"`
	BenefitAnalysis string           `json:"benefit_analysis"`
	Statistics      PolicyStatistics `json:"statistics"`
}

// DiscussionAnalysis describes who spoke and how much during the group phase.
type DiscussionAnalysis struct {
	ContributionCounts map[string]int `json:"contribution_counts"`
	DominantVoices     []string       `json:"dominant_voices"`
	SilencedVoices     []string       `json:"silenced_voices"`
	TotalExchanges     int            `json:"total_exchanges"`
}

// BudgetSummary reports totals for the final report.
type BudgetSummary struct {
	TotalBudget     int `json:"total_budget"`
	UsedBudget      int `json:"used_budget"`
	RemainingBudget int `json:"remaining_budget"`
}
