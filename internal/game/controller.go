// Package game runs CHALLENGE game sessions: the individual budget phase,
// the topic-by-topic group discussion with the agents, and the reflection.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/challenge-game/internal/agent"
	"github.com/ashureev/challenge-game/internal/budget"
	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/roster"
)

// EntryFunc observes discussion entries as the controller records them.
type EntryFunc func(sessionID string, entry domain.DiscussionEntry)

// Config holds the collaborators of a Controller.
type Config struct {
	SessionID   string
	Catalog     domain.Catalog
	Profiles    []domain.AgentProfile
	Preferences map[string]roster.Preferences
	Speaker     agent.Speaker
	Now         func() time.Time
	OnEntry     EntryFunc
}

// Controller holds the state of one game session. All methods are safe for
// concurrent use; calls are serialized per session.
type Controller struct {
	mu sync.Mutex

	sessionID   string
	catalog     domain.Catalog
	profiles    []domain.AgentProfile
	preferences map[string]roster.Preferences
	speaker     agent.Speaker
	now         func() time.Time
	onEntry     EntryFunc

	phase            domain.Phase
	topic            string
	calc             *budget.Calculator
	humanPreferences map[string]int
	history          []domain.DiscussionEntry
}

// NewController creates a controller in the setup phase.
func NewController(cfg Config) *Controller {
	if cfg.Catalog == nil {
		cfg.Catalog = domain.DefaultCatalog()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Preferences == nil {
		cfg.Preferences = make(map[string]roster.Preferences)
	}
	return &Controller{
		sessionID:        cfg.SessionID,
		catalog:          cfg.Catalog,
		profiles:         cfg.Profiles,
		preferences:      cfg.Preferences,
		speaker:          cfg.Speaker,
		now:              cfg.Now,
		onEntry:          cfg.OnEntry,
		phase:            domain.PhaseSetup,
		calc:             budget.New(cfg.Catalog.Names()),
		humanPreferences: make(map[string]int),
	}
}

// StartResult is returned by Start.
type StartResult struct {
	Message      string
	Instructions string
}

// Start moves the session into the individual phase.
func (c *Controller) Start() StartResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.phase = domain.PhaseIndividual
	return StartResult{
		Message:      "Welcome to the CHALLENGE Game! You are now in the Individual Decision-Making Phase.",
		Instructions: fmt.Sprintf("Please review the policy options and make your individual selections while staying within the %d-unit budget.", c.calc.Total()),
	}
}

// PreferenceResult is returned by SetPreference.
type PreferenceResult struct {
	Message         string
	RemainingBudget int
	Feedback        []string
}

// SetPreference records the player's own choice for an area during the
// individual phase.
func (c *Controller) SetPreference(area string, option int) (PreferenceResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseIndividual {
		return PreferenceResult{}, phaseError("You can only set preferences in the Individual Decision-Making Phase.")
	}

	ok, err := c.calc.Set(area, option)
	if err != nil {
		return PreferenceResult{}, &RuleError{Message: capitalize(err.Error()), cause: err}
	}
	if !ok {
		return PreferenceResult{}, budgetError(c.calc.Remaining())
	}

	c.humanPreferences[area] = option
	return PreferenceResult{
		Message:         fmt.Sprintf("Preference set for %s: %s.", area, domain.OptionKey(option)),
		RemainingBudget: c.calc.Remaining(),
		Feedback:        c.calc.Feedback(),
	}, nil
}

// GroupStartResult is returned by StartGroupDiscussion.
type GroupStartResult struct {
	Message      string
	Instructions string
	Topic        string
	Statements   []domain.Statement
}

// StartGroupDiscussion moves a complete individual package into the group
// phase. The budget starts over and the agents open the first topic.
func (c *Controller) StartGroupDiscussion(ctx context.Context) (GroupStartResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseIndividual {
		return GroupStartResult{}, phaseError("You must complete the Individual Decision-Making Phase first.")
	}
	if !c.calc.Complete() {
		return GroupStartResult{}, &RuleError{
			Message:  "You must make decisions for all policy areas before starting the group discussion.",
			Feedback: c.calc.Feedback(),
		}
	}

	statements, err := c.openingStatements(ctx, c.catalog[0].Name, budget.DefaultTotal)
	if err != nil {
		return GroupStartResult{}, err
	}

	c.phase = domain.PhaseGroup
	c.topic = c.catalog[0].Name
	c.calc = budget.New(c.catalog.Names())
	c.record(statements)

	return GroupStartResult{
		Message:      "Welcome to the Group Discussion Phase! The AI agents will now debate the policy options with you.",
		Instructions: "Discuss with the AI agents to reach a consensus on each policy area.",
		Topic:        c.topic,
		Statements:   statements,
	}, nil
}

// ArgumentResult is returned by SubmitArgument.
type ArgumentResult struct {
	Topic     string
	Responses []domain.Statement
}

// SubmitArgument records the player's argument on the current topic and
// collects a counterargument from every agent.
func (c *Controller) SubmitArgument(ctx context.Context, argument string, preferredOption int) (ArgumentResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseGroup {
		return ArgumentResult{}, phaseError("Not in the Group Discussion Phase.")
	}
	argument = strings.TrimSpace(argument)
	if argument == "" {
		return ArgumentResult{}, ruleError("Argument must not be empty.")
	}
	if !domain.ValidOption(preferredOption) {
		return ArgumentResult{}, ruleError(fmt.Sprintf("Invalid option: %d. Must be 1, 2, or 3.", preferredOption))
	}

	responses := make([]domain.Statement, 0, len(c.profiles))
	for _, profile := range c.profiles {
		preference := c.preferences[profile.ID][c.topic]
		text, err := c.speaker.Counter(ctx, agent.CounterRequest{
			Profile:        profile,
			Topic:          c.topic,
			Preference:     preference,
			OpponentOption: preferredOption,
			Argument:       argument,
		})
		if err != nil {
			return ArgumentResult{}, fmt.Errorf("counterargument from %s: %w", profile.ID, err)
		}
		responses = append(responses, domain.Statement{
			AgentID:    profile.ID,
			AgentName:  profile.Name,
			Preference: preference,
			Statement:  text,
		})
	}

	c.append(domain.DiscussionEntry{
		SpeakerID:   domain.HumanSpeakerID,
		SpeakerName: domain.HumanSpeakerName,
		Preference:  preferredOption,
		Statement:   argument,
	})
	c.record(responses)

	return ArgumentResult{Topic: c.topic, Responses: responses}, nil
}

// FinalizeResult is returned by FinalizeTopic.
type FinalizeResult struct {
	Message         string
	RemainingBudget int
	IsFinalTopic    bool
	NextTopic       string
	NextPhase       domain.Phase
	Statements      []domain.Statement
}

// FinalizeTopic fixes the group's option for the current topic. The next
// topic is opened with fresh agent statements; after the last topic the
// session moves to reflection.
func (c *Controller) FinalizeTopic(ctx context.Context, option int) (FinalizeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseGroup {
		return FinalizeResult{}, phaseError("Not in the Group Discussion Phase.")
	}

	decided := c.topic
	previous := c.calc.Selection(decided)
	ok, err := c.calc.Set(decided, option)
	if err != nil {
		return FinalizeResult{}, &RuleError{Message: capitalize(err.Error()), cause: err}
	}
	if !ok {
		return FinalizeResult{}, budgetError(c.calc.Remaining())
	}

	idx := c.catalog.Index(decided)
	if idx == len(c.catalog)-1 {
		c.append(domain.DiscussionEntry{Decision: option})
		c.phase = domain.PhaseReflection
		return FinalizeResult{
			Message:         fmt.Sprintf("Decision for %s set to %s. All topics have been decided.", decided, domain.OptionKey(option)),
			RemainingBudget: c.calc.Remaining(),
			IsFinalTopic:    true,
			NextPhase:       domain.PhaseReflection,
		}, nil
	}

	next := c.catalog[idx+1].Name
	statements, err := c.openingStatements(ctx, next, c.calc.Remaining())
	if err != nil {
		c.rollback(decided, previous)
		return FinalizeResult{}, err
	}

	c.append(domain.DiscussionEntry{Decision: option})
	c.topic = next
	c.record(statements)

	return FinalizeResult{
		Message:         fmt.Sprintf("Decision for %s set to %s. Moving to next topic: %s", decided, domain.OptionKey(option), next),
		RemainingBudget: c.calc.Remaining(),
		NextTopic:       next,
		Statements:      statements,
	}, nil
}

func (c *Controller) rollback(area string, previous int) {
	selections := c.calc.Selections()
	if previous == 0 {
		delete(selections, area)
	} else {
		selections[area] = previous
	}
	c.calc.Restore(selections)
}

// ReflectionResult is returned by StartReflection.
type ReflectionResult struct {
	Message         string
	FinalPolicies   map[string]int
	PolicyAnalysis  domain.PolicyAnalysis
	Questions       []string
	Reflections     []domain.AgentReflection
	BudgetUsed      int
	BudgetRemaining int
}

// StartReflection analyses the group's package and gathers the agents'
// reflections on it.
func (c *Controller) StartReflection() (ReflectionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseReflection {
		return ReflectionResult{}, phaseError("You must complete the Group Discussion Phase first.")
	}
	if !c.calc.Complete() {
		return ReflectionResult{}, ruleError("You must make decisions for all policy areas before starting the reflection phase.")
	}

	final := c.calc.Selections()
	return ReflectionResult{
		Message:         "Welcome to the Reflection Phase! Let's analyze the decisions made and their implications.",
		FinalPolicies:   final,
		PolicyAnalysis:  AnalyzePolicies(c.calc),
		Questions:       append([]string(nil), ReflectionQuestions...),
		Reflections:     ReflectOn(c.profiles, c.preferences, c.catalog.Names(), final),
		BudgetUsed:      c.calc.Used(),
		BudgetRemaining: c.calc.Remaining(),
	}, nil
}

// Report is the final summary of a finished game.
type Report struct {
	FinalPolicies      map[string]int
	PolicyAnalysis     domain.PolicyAnalysis
	DiscussionAnalysis domain.DiscussionAnalysis
	BudgetSummary      domain.BudgetSummary
}

// Report builds the final report. It is only available in the reflection phase.
func (c *Controller) Report() (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseReflection {
		return Report{}, phaseError("Not in the Reflection Phase.")
	}
	return Report{
		FinalPolicies:      c.calc.Selections(),
		PolicyAnalysis:     AnalyzePolicies(c.calc),
		DiscussionAnalysis: AnalyzeDiscussion(c.history, c.profiles),
		BudgetSummary: domain.BudgetSummary{
			TotalBudget:     c.calc.Total(),
			UsedBudget:      c.calc.Used(),
			RemainingBudget: c.calc.Remaining(),
		},
	}, nil
}

// State is a read-only view of a session.
type State struct {
	Phase            domain.Phase
	Topic            string
	BudgetUsed       int
	BudgetRemaining  int
	SelectedPolicies map[string]int
}

// State returns the current phase, topic and budget.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Phase:            c.phase,
		Topic:            c.topic,
		BudgetUsed:       c.calc.Used(),
		BudgetRemaining:  c.calc.Remaining(),
		SelectedPolicies: c.calc.Selections(),
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Profiles returns the agents seated in this session.
func (c *Controller) Profiles() []domain.AgentProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.AgentProfile(nil), c.profiles...)
}

// History returns a copy of the discussion so far.
func (c *Controller) History() []domain.DiscussionEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.DiscussionEntry(nil), c.history...)
}

// openingStatements asks every agent to open topic. Nothing is recorded.
func (c *Controller) openingStatements(ctx context.Context, topic string, remaining int) ([]domain.Statement, error) {
	statements := make([]domain.Statement, 0, len(c.profiles))
	for _, profile := range c.profiles {
		preference := c.preferences[profile.ID][topic]
		text, err := c.speaker.Opening(ctx, agent.OpeningRequest{
			Profile:         profile,
			Topic:           topic,
			Preference:      preference,
			Discussion:      c.history,
			BudgetRemaining: remaining,
		})
		if err != nil {
			return nil, fmt.Errorf("opening statement from %s: %w", profile.ID, err)
		}
		statements = append(statements, domain.Statement{
			AgentID:    profile.ID,
			AgentName:  profile.Name,
			Preference: preference,
			Statement:  text,
		})
	}
	return statements, nil
}

func (c *Controller) record(statements []domain.Statement) {
	for _, s := range statements {
		c.append(domain.DiscussionEntry{
			SpeakerID:   s.AgentID,
			SpeakerName: s.AgentName,
			Preference:  s.Preference,
			Statement:   s.Statement,
		})
	}
}

// append stamps entry with its sequence number, the current phase, topic
// and time, then records it.
func (c *Controller) append(entry domain.DiscussionEntry) {
	entry.Seq = len(c.history) + 1
	entry.Phase = domain.PhaseGroup
	entry.Topic = c.topic
	entry.Timestamp = c.now()
	c.history = append(c.history, entry)
	if c.onEntry != nil {
		c.onEntry(c.sessionID, entry)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// snapshot is the persisted form of a Controller.
type snapshot struct {
	Phase            domain.Phase                  `json:"phase"`
	Topic            string                        `json:"topic,omitempty"`
	Profiles         []domain.AgentProfile         `json:"profiles"`
	Preferences      map[string]roster.Preferences `json:"preferences"`
	HumanPreferences map[string]int                `json:"human_preferences"`
	Selections       map[string]int                `json:"selections"`
	History          []domain.DiscussionEntry      `json:"history"`
}

// Snapshot serializes the session state.
func (c *Controller) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(snapshot{
		Phase:            c.phase,
		Topic:            c.topic,
		Profiles:         c.profiles,
		Preferences:      c.preferences,
		HumanPreferences: c.humanPreferences,
		Selections:       c.calc.Selections(),
		History:          c.history,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds a controller from a snapshot. The speaker, clock and
// observer come from cfg; everything else comes from data.
func Restore(cfg Config, data []byte) (*Controller, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if !snap.Phase.Valid() {
		return nil, fmt.Errorf("unmarshal snapshot: unknown phase %q", snap.Phase)
	}

	cfg.Profiles = snap.Profiles
	cfg.Preferences = snap.Preferences
	c := NewController(cfg)

	if snap.Phase == domain.PhaseGroup && !c.catalog.Has(snap.Topic) {
		return nil, fmt.Errorf("unmarshal snapshot: unknown topic %q", snap.Topic)
	}

	c.phase = snap.Phase
	c.topic = snap.Topic
	c.calc.Restore(snap.Selections)
	c.history = snap.History
	for i := range c.history {
		c.history[i].Seq = i + 1
	}
	if snap.HumanPreferences != nil {
		c.humanPreferences = snap.HumanPreferences
	}
	return c, nil
}
