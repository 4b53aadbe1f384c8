package budget

import (
	"errors"
	"strings"
	"testing"

	"github.com/ashureev/challenge-game/internal/domain"
)

func newCalc() *Calculator {
	return New(domain.DefaultCatalog().Names())
}

func TestSetTracksUsage(t *testing.T) {
	c := newCalc()

	ok, err := c.Set(domain.AreaAccess, 3)
	if err != nil || !ok {
		t.Fatalf("Set returned ok=%v err=%v", ok, err)
	}
	if _, err := c.Set(domain.AreaLanguage, 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if got := c.Used(); got != 5 {
		t.Errorf("expected 5 units used, got %d", got)
	}
	if got := c.Remaining(); got != DefaultTotal-5 {
		t.Errorf("expected %d remaining, got %d", DefaultTotal-5, got)
	}
}

func TestSetRejectsOverspend(t *testing.T) {
	c := newCalc()
	areas := domain.DefaultCatalog().Names()

	// 3+3+3+3 = 12, leaving 2.
	for _, area := range areas[:4] {
		if ok, err := c.Set(area, 3); err != nil || !ok {
			t.Fatalf("Set(%s, 3) ok=%v err=%v", area, ok, err)
		}
	}

	ok, err := c.Set(areas[4], 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected overspend to be rejected")
	}
	if c.Selection(areas[4]) != 0 {
		t.Errorf("rejected selection must not be stored")
	}

	// Switching an existing selection downwards frees budget.
	if ok, _ := c.Set(areas[0], 1); !ok {
		t.Fatal("expected downgrade to succeed")
	}
	if ok, _ := c.Set(areas[4], 3); !ok {
		t.Fatal("expected selection to fit after downgrade")
	}
}

func TestSetChargesOnlyTheDifference(t *testing.T) {
	c := NewWithTotal([]string{"a", "b"}, 4)
	if ok, _ := c.Set("a", 3); !ok {
		t.Fatal("expected first selection to fit")
	}
	// Remaining is 1; moving a from 3 to 2 has a negative delta.
	if ok, _ := c.Set("a", 2); !ok {
		t.Fatal("expected downgrade to fit")
	}
	if ok, _ := c.Set("b", 2); !ok {
		t.Fatal("expected b to fit exactly")
	}
	if c.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", c.Remaining())
	}
}

func TestSetValidatesInput(t *testing.T) {
	c := newCalc()

	if _, err := c.Set("Space Program", 1); !errors.Is(err, ErrUnknownArea) {
		t.Errorf("expected ErrUnknownArea, got %v", err)
	}
	for _, option := range []int{0, 4, -1} {
		if _, err := c.Set(domain.AreaAccess, option); !errors.Is(err, ErrInvalidOption) {
			t.Errorf("option %d: expected ErrInvalidOption, got %v", option, err)
		}
	}
}

func TestFeedback(t *testing.T) {
	c := newCalc()
	areas := domain.DefaultCatalog().Names()

	if _, err := c.Set(areas[0], 2); err != nil {
		t.Fatal(err)
	}
	fb := c.Feedback()
	if len(fb) != 3 {
		t.Fatalf("expected 3 feedback lines, got %d: %v", len(fb), fb)
	}
	if !strings.Contains(fb[0], "12 budget units remaining") {
		t.Errorf("unexpected budget line: %q", fb[0])
	}
	if !strings.Contains(fb[1], "mix of policy options") {
		t.Errorf("expected mix warning, got %q", fb[1])
	}
	if !strings.Contains(fb[2], areas[1]) || strings.Contains(fb[2], areas[0]) {
		t.Errorf("undecided list is wrong: %q", fb[2])
	}

	// 3+3+2+2+2+1+1 = 14
	for i, option := range []int{3, 3, 2, 2, 2, 1, 1} {
		if ok, err := c.Set(areas[i], option); !ok || err != nil {
			t.Fatalf("Set(%s,%d) ok=%v err=%v", areas[i], option, ok, err)
		}
	}
	fb = c.Feedback()
	if len(fb) != 1 || fb[0] != "You have used your entire budget efficiently." {
		t.Errorf("unexpected feedback for full package: %v", fb)
	}
	if !c.Valid() {
		t.Error("expected package to be valid")
	}
}

func TestValidRequiresMix(t *testing.T) {
	c := newCalc()
	for _, area := range domain.DefaultCatalog().Names() {
		if ok, _ := c.Set(area, 2); !ok {
			t.Fatalf("Set(%s, 2) did not fit", area)
		}
	}
	if !c.Complete() {
		t.Fatal("expected complete package")
	}
	if c.Valid() {
		t.Error("a package using only one level must not be valid")
	}

	s := c.Summary()
	if s.OptionCounts[2] != 7 || s.HasMix {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestRestoreDropsUnknownEntries(t *testing.T) {
	c := newCalc()
	c.Restore(map[string]int{
		domain.AreaAccess:   2,
		"Unknown":           3,
		domain.AreaTeachers: 7,
	})
	got := c.Selections()
	if len(got) != 1 || got[domain.AreaAccess] != 2 {
		t.Errorf("unexpected selections after restore: %v", got)
	}
}
