// Package agent produces what the simulated members of parliament say.
package agent

import (
	"context"

	"github.com/ashureev/challenge-game/internal/domain"
)

// OpeningRequest asks an agent to open the debate on a topic.
type OpeningRequest struct {
	Profile         domain.AgentProfile
	Topic           string
	Preference      int
	Discussion      []domain.DiscussionEntry
	BudgetRemaining int
}

// CounterRequest asks an agent to answer another speaker's argument.
type CounterRequest struct {
	Profile        domain.AgentProfile
	Topic          string
	Preference     int
	OpponentOption int
	Argument       string
}

// Speaker generates agent statements.
type Speaker interface {
	// Opening returns the agent's opening statement on a topic.
	Opening(ctx context.Context, req OpeningRequest) (string, error)

	// Counter returns the agent's reply to an argument for another option.
	Counter(ctx context.Context, req CounterRequest) (string, error)
}
