package client

import (
	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/protocol"
)

// TotalBudget is the budget of a policy package.
const TotalBudget = 14

// ViewState is the controller's copy of a game, rebuilt from API responses.
// The server stays authoritative; nothing here is validated locally.
type ViewState struct {
	SessionID         string
	AgentProfiles     []domain.AgentProfile
	Phase             domain.Phase
	Topic             string
	SelectedPolicies  map[string]int
	BudgetUsed        int
	BudgetRemaining   int
	DiscussionHistory []domain.DiscussionEntry
}

// NewViewState returns the state before a game starts.
func NewViewState() *ViewState {
	return &ViewState{
		Phase:            domain.PhaseSetup,
		SelectedPolicies: make(map[string]int),
		BudgetRemaining:  TotalBudget,
	}
}

func (s *ViewState) setRemaining(remaining int) {
	s.BudgetRemaining = remaining
	s.BudgetUsed = TotalBudget - remaining
}

// ApplyStart records a started game.
func (s *ViewState) ApplyStart(resp protocol.StartGameResponse) {
	*s = *NewViewState()
	s.SessionID = resp.SessionID
	s.AgentProfiles = resp.AgentProfiles
	s.Phase = domain.PhaseIndividual
}

// ApplyPreference records an accepted individual choice.
func (s *ViewState) ApplyPreference(area string, option int, resp protocol.SetPreferenceResponse) {
	s.SelectedPolicies[area] = option
	if resp.RemainingBudget != nil {
		s.setRemaining(*resp.RemainingBudget)
	}
}

// ApplyGroupStart enters the group phase. The budget starts over.
func (s *ViewState) ApplyGroupStart(resp protocol.GroupDiscussionResponse) {
	s.Phase = domain.PhaseGroup
	s.Topic = resp.CurrentTopic
	s.SelectedPolicies = make(map[string]int)
	s.setRemaining(TotalBudget)
	s.addStatements(resp.CurrentTopic, resp.Statements)
}

// ApplyArgument records the player's argument and the replies to it.
func (s *ViewState) ApplyArgument(argument string, option int, resp protocol.SubmitArgumentResponse) {
	s.DiscussionHistory = append(s.DiscussionHistory, domain.DiscussionEntry{
		Phase:       domain.PhaseGroup,
		Topic:       s.Topic,
		SpeakerID:   domain.HumanSpeakerID,
		SpeakerName: "You",
		Preference:  option,
		Statement:   argument,
	})
	s.addStatements(s.Topic, resp.Responses)
}

// ApplyFinalize records a decided topic and moves to the next one. On the
// last topic the topic is cleared and the phase is left for ApplyReflection.
func (s *ViewState) ApplyFinalize(option int, resp protocol.FinalizeTopicResponse) {
	decided := s.Topic
	s.SelectedPolicies[decided] = option
	if resp.RemainingBudget != nil {
		s.setRemaining(*resp.RemainingBudget)
	}
	s.DiscussionHistory = append(s.DiscussionHistory, domain.DiscussionEntry{
		Phase:    domain.PhaseGroup,
		Topic:    decided,
		Decision: option,
	})

	if resp.IsFinalTopic {
		s.Topic = ""
		return
	}
	s.Topic = resp.NextTopic
	s.addStatements(resp.NextTopic, resp.Statements)
}

// ApplyReflection enters the reflection phase.
func (s *ViewState) ApplyReflection(resp protocol.ReflectionResponse) {
	s.Phase = domain.PhaseReflection
	s.Topic = ""
	if resp.FinalPolicies != nil {
		s.SelectedPolicies = resp.FinalPolicies
	}
	s.BudgetUsed = resp.BudgetUsed
	s.BudgetRemaining = resp.BudgetRemaining
}

// TopicHistory returns the entries recorded for topic, in order.
func (s *ViewState) TopicHistory(topic string) []domain.DiscussionEntry {
	var out []domain.DiscussionEntry
	for _, e := range s.DiscussionHistory {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

func (s *ViewState) addStatements(topic string, statements []domain.Statement) {
	for _, st := range statements {
		s.DiscussionHistory = append(s.DiscussionHistory, domain.DiscussionEntry{
			Phase:       domain.PhaseGroup,
			Topic:       topic,
			SpeakerID:   st.AgentID,
			SpeakerName: st.AgentName,
			Preference:  st.Preference,
			Statement:   st.Statement,
		})
	}
}
