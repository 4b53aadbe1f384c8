// Package budget enforces the policy budget rules of the game.
package budget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/challenge-game/internal/domain"
)

// DefaultTotal is the number of budget units available to a policy package.
const DefaultTotal = 14

var (
	// ErrUnknownArea is returned for a policy area outside the calculator's set.
	ErrUnknownArea = errors.New("invalid policy area")
	// ErrInvalidOption is returned for an option number outside 1..3.
	ErrInvalidOption = errors.New("invalid option")
)

// Cost returns the budget units consumed by option n.
func Cost(option int) int {
	return option
}

// Calculator tracks the option chosen for each policy area against a fixed total.
// It is not safe for concurrent use.
type Calculator struct {
	total    int
	areas    []string
	selected map[string]int
}

// Summary is a snapshot of budget usage.
type Summary struct {
	UsedBudget      int            `json:"used_budget"`
	RemainingBudget int            `json:"remaining_budget"`
	Selected        map[string]int `json:"selected_policies"`
	OptionCounts    map[int]int    `json:"option_counts"`
	Complete        bool           `json:"has_complete_policy_set"`
	HasMix          bool           `json:"has_policy_mix"`
}

// New creates a calculator over the given areas with the default total.
func New(areas []string) *Calculator {
	return NewWithTotal(areas, DefaultTotal)
}

// NewWithTotal creates a calculator with an explicit total budget.
func NewWithTotal(areas []string, total int) *Calculator {
	return &Calculator{
		total:    total,
		areas:    append([]string(nil), areas...),
		selected: make(map[string]int, len(areas)),
	}
}

// Total returns the total budget.
func (c *Calculator) Total() int { return c.total }

// Areas returns the policy areas the calculator tracks, in order.
func (c *Calculator) Areas() []string {
	return append([]string(nil), c.areas...)
}

// Used returns the units spent on current selections.
func (c *Calculator) Used() int {
	used := 0
	for _, option := range c.selected {
		used += Cost(option)
	}
	return used
}

// Remaining returns the units still available.
func (c *Calculator) Remaining() int {
	return c.total - c.Used()
}

// CanAfford reports whether option fits into the remaining budget as a new selection.
func (c *Calculator) CanAfford(option int) bool {
	return Cost(option) <= c.Remaining()
}

// Set chooses option for area. It returns false without changing anything
// when the switch would exceed the budget.
func (c *Calculator) Set(area string, option int) (bool, error) {
	if !c.hasArea(area) {
		return false, fmt.Errorf("%w: %s", ErrUnknownArea, area)
	}
	if !domain.ValidOption(option) {
		return false, fmt.Errorf("%w: %d. Must be 1, 2, or 3", ErrInvalidOption, option)
	}

	delta := Cost(option) - Cost(c.selected[area])
	if c.Remaining() < delta {
		return false, nil
	}
	c.selected[area] = option
	return true, nil
}

// Selection returns the option chosen for area, or 0 when undecided.
func (c *Calculator) Selection(area string) int {
	return c.selected[area]
}

// Selections returns a copy of the decided areas.
func (c *Calculator) Selections() map[string]int {
	out := make(map[string]int, len(c.selected))
	for area, option := range c.selected {
		out[area] = option
	}
	return out
}

// Restore replaces the current selections, ignoring unknown areas and options.
func (c *Calculator) Restore(selections map[string]int) {
	c.selected = make(map[string]int, len(selections))
	for area, option := range selections {
		if c.hasArea(area) && domain.ValidOption(option) {
			c.selected[area] = option
		}
	}
}

// Complete reports whether every area has a decision.
func (c *Calculator) Complete() bool {
	return len(c.Undecided()) == 0
}

// Undecided returns the areas without a decision, in calculator order.
func (c *Calculator) Undecided() []string {
	var out []string
	for _, area := range c.areas {
		if _, ok := c.selected[area]; !ok {
			out = append(out, area)
		}
	}
	return out
}

// HasMix reports whether more than one option level is in use.
func (c *Calculator) HasMix() bool {
	return len(c.levels()) > 1
}

// Summary returns usage figures and rule checks for the current selections.
func (c *Calculator) Summary() Summary {
	counts := map[int]int{1: 0, 2: 0, 3: 0}
	for _, option := range c.selected {
		counts[option]++
	}
	return Summary{
		UsedBudget:      c.Used(),
		RemainingBudget: c.Remaining(),
		Selected:        c.Selections(),
		OptionCounts:    counts,
		Complete:        c.Complete(),
		HasMix:          c.HasMix(),
	}
}

// Valid reports whether the package is within budget, complete and mixed.
func (c *Calculator) Valid() bool {
	return c.Used() <= c.total && c.Complete() && c.HasMix()
}

// Feedback returns human-readable remarks on the current selections.
func (c *Calculator) Feedback() []string {
	var feedback []string

	used := c.Used()
	switch {
	case used < c.total:
		feedback = append(feedback, fmt.Sprintf("You have %d budget units remaining. Consider upgrading some policies.", c.Remaining()))
	case used == c.total:
		feedback = append(feedback, "You have used your entire budget efficiently.")
	default:
		feedback = append(feedback, "WARNING: You have exceeded your budget limit!")
	}

	if levels := c.levels(); len(levels) == 1 {
		feedback = append(feedback, "WARNING: You must choose a mix of policy options, not all from the same level.")
	}

	if undecided := c.Undecided(); len(undecided) > 0 {
		feedback = append(feedback, "You still need to make decisions for: "+strings.Join(undecided, ", "))
	}

	return feedback
}

func (c *Calculator) levels() map[int]struct{} {
	levels := make(map[int]struct{}, domain.MaxOption)
	for _, option := range c.selected {
		levels[option] = struct{}{}
	}
	return levels
}

func (c *Calculator) hasArea(area string) bool {
	for _, a := range c.areas {
		if a == area {
			return true
		}
	}
	return false
}
