package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/challenge-game/internal/agent"
	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/roster"
)

type fakeSpeaker struct {
	mu        sync.Mutex
	openings  []agent.OpeningRequest
	counters  []agent.CounterRequest
	failAfter int // fail once this many calls have succeeded; 0 disables
	calls     int
}

var errSpeakerDown = errors.New("speaker down")

func (f *fakeSpeaker) Opening(_ context.Context, req agent.OpeningRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tick(); err != nil {
		return "", err
	}
	f.openings = append(f.openings, req)
	return fmt.Sprintf("%s opens %s", req.Profile.Name, req.Topic), nil
}

func (f *fakeSpeaker) Counter(_ context.Context, req agent.CounterRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tick(); err != nil {
		return "", err
	}
	f.counters = append(f.counters, req)
	return fmt.Sprintf("%s answers option %d", req.Profile.Name, req.OpponentOption), nil
}

func (f *fakeSpeaker) tick() error {
	if f.failAfter > 0 && f.calls >= f.failAfter {
		return errSpeakerDown
	}
	f.calls++
	return nil
}

var testProfiles = []domain.AgentProfile{
	{ID: "agent_1", Name: "Robin", Age: 52, PoliticalStance: "Conservative"},
	{ID: "agent_2", Name: "Avery", Age: 33, PoliticalStance: "Progressive"},
}

// fullPackage fits the budget exactly and mixes levels.
var fullPackage = []int{3, 3, 2, 2, 2, 1, 1}

func testPreferences() map[string]roster.Preferences {
	low := roster.Preferences{}
	high := roster.Preferences{}
	for _, area := range domain.DefaultCatalog().Names() {
		low[area] = 1
		high[area] = 3
	}
	return map[string]roster.Preferences{"agent_1": low, "agent_2": high}
}

func newTestController(t *testing.T, speaker agent.Speaker) *Controller {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewController(Config{
		SessionID:   "sess",
		Profiles:    testProfiles,
		Preferences: testPreferences(),
		Speaker:     speaker,
		Now:         func() time.Time { return now },
	})
}

func fillIndividual(t *testing.T, c *Controller) {
	t.Helper()
	for i, area := range domain.DefaultCatalog().Names() {
		if _, err := c.SetPreference(area, fullPackage[i]); err != nil {
			t.Fatalf("SetPreference(%s) failed: %v", area, err)
		}
	}
}

func assertRuleError(t *testing.T, err error, contains string) *RuleError {
	t.Helper()
	var re *RuleError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RuleError, got %T: %v", err, err)
	}
	if !strings.Contains(re.Message, contains) {
		t.Errorf("expected message containing %q, got %q", contains, re.Message)
	}
	return re
}

func TestSetPreferenceRequiresIndividualPhase(t *testing.T) {
	c := newTestController(t, &fakeSpeaker{})

	_, err := c.SetPreference(domain.AreaAccess, 1)
	assertRuleError(t, err, "Individual Decision-Making Phase")
	if !errors.Is(err, ErrWrongPhase) {
		t.Error("expected error to wrap ErrWrongPhase")
	}
}

func TestSetPreferenceValidatesAndTracksBudget(t *testing.T) {
	c := newTestController(t, &fakeSpeaker{})
	c.Start()

	res, err := c.SetPreference(domain.AreaAccess, 3)
	if err != nil {
		t.Fatalf("SetPreference failed: %v", err)
	}
	if res.RemainingBudget != 11 {
		t.Errorf("expected 11 remaining, got %d", res.RemainingBudget)
	}
	if res.Message != "Preference set for Access to Education: Option 3." {
		t.Errorf("unexpected message %q", res.Message)
	}
	if len(res.Feedback) == 0 {
		t.Error("expected feedback lines")
	}

	_, err = c.SetPreference("Housing", 1)
	assertRuleError(t, err, "Invalid policy area: Housing")

	_, err = c.SetPreference(domain.AreaLanguage, 4)
	assertRuleError(t, err, "Invalid option: 4")
}

func TestSetPreferenceRejectsOverspend(t *testing.T) {
	c := newTestController(t, &fakeSpeaker{})
	c.Start()

	areas := domain.DefaultCatalog().Names()
	for _, area := range areas[:4] {
		if _, err := c.SetPreference(area, 3); err != nil {
			t.Fatalf("SetPreference(%s) failed: %v", area, err)
		}
	}

	_, err := c.SetPreference(areas[4], 3)
	re := assertRuleError(t, err, "Not enough budget")
	if re.RemainingBudget == nil || *re.RemainingBudget != 2 {
		t.Errorf("expected remaining budget 2 on rejection, got %v", re.RemainingBudget)
	}
}

func TestStartGroupDiscussionRequiresCompletePackage(t *testing.T) {
	c := newTestController(t, &fakeSpeaker{})

	_, err := c.StartGroupDiscussion(context.Background())
	assertRuleError(t, err, "complete the Individual Decision-Making Phase")

	c.Start()
	if _, err := c.SetPreference(domain.AreaAccess, 2); err != nil {
		t.Fatal(err)
	}
	_, err = c.StartGroupDiscussion(context.Background())
	re := assertRuleError(t, err, "decisions for all policy areas")
	if len(re.Feedback) == 0 {
		t.Error("expected feedback with the incomplete-package error")
	}
	if c.Phase() != domain.PhaseIndividual {
		t.Errorf("phase changed to %s", c.Phase())
	}
}

func TestFullGame(t *testing.T) {
	speaker := &fakeSpeaker{}
	c := newTestController(t, speaker)
	ctx := context.Background()

	c.Start()
	fillIndividual(t, c)

	group, err := c.StartGroupDiscussion(ctx)
	if err != nil {
		t.Fatalf("StartGroupDiscussion failed: %v", err)
	}
	if group.Topic != domain.AreaAccess {
		t.Errorf("expected first topic %s, got %s", domain.AreaAccess, group.Topic)
	}
	if len(group.Statements) != len(testProfiles) {
		t.Fatalf("expected %d statements, got %d", len(testProfiles), len(group.Statements))
	}
	if group.Statements[1].Preference != 3 || group.Statements[0].Preference != 1 {
		t.Errorf("statements carry wrong preferences: %+v", group.Statements)
	}
	if st := c.State(); st.BudgetRemaining != 14 || len(st.SelectedPolicies) != 0 {
		t.Errorf("group phase must start with a fresh budget, got %+v", st)
	}

	arg, err := c.SubmitArgument(ctx, "  We need equal access.  ", 3)
	if err != nil {
		t.Fatalf("SubmitArgument failed: %v", err)
	}
	if arg.Topic != domain.AreaAccess || len(arg.Responses) != len(testProfiles) {
		t.Fatalf("unexpected argument result: %+v", arg)
	}
	if speaker.counters[0].Argument != "We need equal access." {
		t.Errorf("argument not trimmed: %q", speaker.counters[0].Argument)
	}

	areas := domain.DefaultCatalog().Names()
	for i, area := range areas {
		res, err := c.FinalizeTopic(ctx, fullPackage[i])
		if err != nil {
			t.Fatalf("FinalizeTopic(%s) failed: %v", area, err)
		}
		if !strings.HasPrefix(res.Message, "Decision for "+area+" set to Option") {
			t.Errorf("message must name the decided topic: %q", res.Message)
		}
		last := i == len(areas)-1
		if res.IsFinalTopic != last {
			t.Errorf("%s: IsFinalTopic=%v", area, res.IsFinalTopic)
		}
		if last {
			if res.NextPhase != domain.PhaseReflection || len(res.Statements) != 0 {
				t.Errorf("unexpected final result: %+v", res)
			}
		} else if res.NextTopic != areas[i+1] || len(res.Statements) != len(testProfiles) {
			t.Errorf("unexpected result for %s: %+v", area, res)
		}
	}

	if _, err := c.SubmitArgument(ctx, "too late", 2); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("expected ErrWrongPhase after the last topic, got %v", err)
	}

	refl, err := c.StartReflection()
	if err != nil {
		t.Fatalf("StartReflection failed: %v", err)
	}
	if refl.BudgetUsed != 14 || refl.BudgetRemaining != 0 {
		t.Errorf("unexpected budget %d/%d", refl.BudgetUsed, refl.BudgetRemaining)
	}
	if len(refl.Questions) != 5 || len(refl.Reflections) != len(testProfiles) {
		t.Errorf("unexpected reflection result: %+v", refl)
	}
	if eq := refl.PolicyAnalysis.Equity; eq.Score != 2 || eq.Level != 0.6667 {
		t.Errorf("expected equity 2 at level 0.6667, got %+v", eq)
	}
	if refl.FinalPolicies[domain.AreaAccess] != 3 {
		t.Errorf("unexpected final policies: %v", refl.FinalPolicies)
	}

	report, err := c.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	counts := report.DiscussionAnalysis.ContributionCounts
	// 7 topics opened by each agent plus one counterargument round.
	if counts["agent_1"] != 8 || counts["agent_2"] != 8 || counts[domain.HumanSpeakerID] != 1 {
		t.Errorf("unexpected contribution counts: %v", counts)
	}
	if report.DiscussionAnalysis.TotalExchanges != 17 {
		t.Errorf("expected 17 exchanges, got %d", report.DiscussionAnalysis.TotalExchanges)
	}
	if report.BudgetSummary.TotalBudget != 14 {
		t.Errorf("unexpected budget summary: %+v", report.BudgetSummary)
	}

	decisions := 0
	for _, e := range c.History() {
		if e.IsDecision() {
			decisions++
		}
	}
	if decisions != len(areas) {
		t.Errorf("expected %d decisions in history, got %d", len(areas), decisions)
	}
}

func TestFinalizeTopicRejectsOverspend(t *testing.T) {
	c := newTestController(t, &fakeSpeaker{})
	ctx := context.Background()
	c.Start()
	fillIndividual(t, c)
	if _, err := c.StartGroupDiscussion(ctx); err != nil {
		t.Fatal(err)
	}

	for range 4 {
		if _, err := c.FinalizeTopic(ctx, 3); err != nil {
			t.Fatalf("FinalizeTopic failed: %v", err)
		}
	}
	topic := c.State().Topic

	_, err := c.FinalizeTopic(ctx, 3)
	re := assertRuleError(t, err, "Not enough budget")
	if *re.RemainingBudget != 2 {
		t.Errorf("expected 2 remaining, got %d", *re.RemainingBudget)
	}
	if c.State().Topic != topic {
		t.Error("rejected decision must not advance the topic")
	}
}

func TestFinalizeTopicRollsBackWhenSpeakerFails(t *testing.T) {
	speaker := &fakeSpeaker{}
	c := newTestController(t, speaker)
	ctx := context.Background()
	c.Start()
	fillIndividual(t, c)
	if _, err := c.StartGroupDiscussion(ctx); err != nil {
		t.Fatal(err)
	}
	before := len(c.History())

	speaker.failAfter = speaker.calls
	if _, err := c.FinalizeTopic(ctx, 2); !errors.Is(err, errSpeakerDown) {
		t.Fatalf("expected speaker error, got %v", err)
	}

	st := c.State()
	if st.Topic != domain.AreaAccess || st.BudgetUsed != 0 {
		t.Errorf("failed finalize left state behind: %+v", st)
	}
	if len(c.History()) != before {
		t.Error("failed finalize must not record history")
	}
}

func TestSubmitArgumentValidation(t *testing.T) {
	c := newTestController(t, &fakeSpeaker{})
	ctx := context.Background()
	c.Start()
	fillIndividual(t, c)
	if _, err := c.StartGroupDiscussion(ctx); err != nil {
		t.Fatal(err)
	}

	_, err := c.SubmitArgument(ctx, "   ", 2)
	assertRuleError(t, err, "must not be empty")

	_, err = c.SubmitArgument(ctx, "fine", 0)
	assertRuleError(t, err, "Invalid option")
}

func TestOnEntryObservesDiscussion(t *testing.T) {
	var seen []domain.DiscussionEntry
	c := NewController(Config{
		SessionID:   "observed",
		Profiles:    testProfiles,
		Preferences: testPreferences(),
		Speaker:     &fakeSpeaker{},
		OnEntry: func(sessionID string, e domain.DiscussionEntry) {
			if sessionID != "observed" {
				t.Errorf("unexpected session id %q", sessionID)
			}
			seen = append(seen, e)
		},
	})
	c.Start()
	fillIndividual(t, c)
	if _, err := c.StartGroupDiscussion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.FinalizeTopic(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	// 2 openings, the decision, 2 openings for the next topic.
	if len(seen) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(seen))
	}
	if !seen[2].IsDecision() || seen[2].Topic != domain.AreaAccess {
		t.Errorf("decision entry has wrong topic: %+v", seen[2])
	}
	if seen[3].Topic != domain.AreaLanguage {
		t.Errorf("next opening has wrong topic: %+v", seen[3])
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := newTestController(t, &fakeSpeaker{})
	ctx := context.Background()
	c.Start()
	fillIndividual(t, c)
	if _, err := c.StartGroupDiscussion(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.FinalizeTopic(ctx, 3); err != nil {
		t.Fatal(err)
	}

	data, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	restored, err := Restore(Config{SessionID: "sess", Speaker: &fakeSpeaker{}}, data)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	want, got := c.State(), restored.State()
	if got.Phase != want.Phase || got.Topic != want.Topic || got.BudgetUsed != want.BudgetUsed {
		t.Errorf("restored state %+v, want %+v", got, want)
	}
	if len(restored.History()) != len(c.History()) {
		t.Errorf("history length %d, want %d", len(restored.History()), len(c.History()))
	}
	if len(restored.Profiles()) != len(testProfiles) {
		t.Errorf("profiles not restored")
	}

	for i, e := range c.History() {
		if e.Seq != i+1 {
			t.Fatalf("entry %d has seq %d", i, e.Seq)
		}
	}

	// The restored session keeps playing and numbering.
	before := len(restored.History())
	if _, err := restored.FinalizeTopic(ctx, 1); err != nil {
		t.Fatalf("FinalizeTopic on restored session failed: %v", err)
	}
	if h := restored.History(); h[before].Seq != before+1 {
		t.Errorf("expected seq %d after restore, got %d", before+1, h[before].Seq)
	}
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	for _, data := range []string{`{`, `{"phase":"lobby"}`, `{"phase":"group","topic":"Housing"}`} {
		if _, err := Restore(Config{}, []byte(data)); err == nil {
			t.Errorf("expected error for %s", data)
		}
	}
}
