package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashureev/challenge-game/internal/client"
	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/protocol"
)

const barWidth = 28

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.alert != "" {
		box := alertStyle.Width(min(60, max(m.width-4, 20))).Render(m.alert + "\n\n" + helpStyle.Render("Enter: OK"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("CHALLENGE") + dimStyle.Render("  refugee education policy game") + "\n")
	if m.screen != screenIntro {
		b.WriteString(m.renderPhases() + "\n\n")
	}

	switch m.screen {
	case screenIntro:
		b.WriteString(m.viewIntro())
	case screenIndividual:
		b.WriteString(m.viewIndividual())
	case screenGroup:
		b.WriteString(m.viewGroup())
	case screenReflection:
		b.WriteString(m.viewReflection())
	}

	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + dimStyle.Render(" waiting for the server..."))
	} else {
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

func (m Model) renderPhases() string {
	phases := []struct {
		phase domain.Phase
		label string
	}{
		{domain.PhaseIndividual, "1. Individual"},
		{domain.PhaseGroup, "2. Group Discussion"},
		{domain.PhaseReflection, "3. Reflection"},
	}
	current := 0
	for i, p := range phases {
		if p.phase == m.state.Phase {
			current = i
		}
	}

	parts := make([]string, len(phases))
	for i, p := range phases {
		switch {
		case i == current:
			parts[i] = phaseActiveStyle.Render(p.label)
		case i < current:
			parts[i] = phaseDoneStyle.Render(p.label)
		default:
			parts[i] = phasePendingStyle.Render(p.label)
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) viewIntro() string {
	return "\n" + wrap(m.width, "You are a member of parliament in the Republic of Bean, which has taken in "+
		"a large number of refugees. With four colleagues you must agree a refugee education policy "+
		"across seven areas within a budget of 14 units.") + "\n\n" +
		wrap(m.width, "First choose your own package, then argue each area with the group, "+
			"then reflect on the outcome.") + "\n"
}

func (m Model) viewIndividual() string {
	var b strings.Builder

	b.WriteString(m.renderAgents() + "\n")
	b.WriteString(renderBudget(m.state) + "\n\n")

	if len(m.catalog) == 0 {
		if m.busy {
			b.WriteString(dimStyle.Render("Loading policy areas...") + "\n")
		} else {
			b.WriteString(dimStyle.Render("Policy areas are not loaded.") + "\n")
		}
		return b.String()
	}

	for i, area := range m.catalog {
		chosen := m.state.SelectedPolicies[area.Name]
		line := fmt.Sprintf("%-30s", area.Name)
		if chosen != 0 {
			line += chosenStyle.Render(domain.OptionKey(chosen))
		} else {
			line += dimStyle.Render("undecided")
		}
		if i == m.cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	area := m.catalog[m.cursor]
	b.WriteString("\n" + headerStyle.Render(area.Name) + "\n")
	for n := domain.MinOption; n <= domain.MaxOption; n++ {
		label := fmt.Sprintf("%s (%d budget unit%s)", domain.OptionKey(n), n, plural(n))
		if m.state.SelectedPolicies[area.Name] == n {
			label = chosenStyle.Render(label)
		}
		b.WriteString(label + "\n" + dimStyle.Render(wrap(m.width, area.Option(n))) + "\n")
	}

	if len(m.feedback) > 0 {
		b.WriteString("\n" + strings.Join(m.feedback, "\n") + "\n")
	}
	return b.String()
}

func (m Model) renderAgents() string {
	var lines []string
	for _, a := range m.state.AgentProfiles {
		lines = append(lines, fmt.Sprintf("%s, %d, %s (%s; %s; %s)",
			agentStyle.Render(" "+a.Name+" "), a.Age, a.Occupation, a.Education, a.SocioeconomicStatus, a.PoliticalStance))
	}
	return strings.Join(lines, "\n")
}

func renderBudget(s *client.ViewState) string {
	filled := min(max(s.BudgetUsed*barWidth/client.TotalBudget, 0), barWidth)
	bar := barFullStyle.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("Budget %s %d/%d units used", bar, s.BudgetUsed, client.TotalBudget)
}

func (m Model) viewGroup() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Current Topic: "+m.state.Topic) + "  " + renderBudget(m.state) + "\n")
	b.WriteString(m.pane.View() + "\n\n")
	b.WriteString(fmt.Sprintf("Your stance: %s  ", chosenStyle.Render(domain.OptionKey(m.stance))))
	b.WriteString(m.argInput.View() + "\n")
	return b.String()
}

// renderDiscussion shows the current topic, led by the last decision taken.
func (m Model) renderDiscussion() string {
	var b strings.Builder
	history := m.state.DiscussionHistory
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Topic != m.state.Topic && history[i].IsDecision() {
			b.WriteString(renderDecision(history[i]) + "\n\n")
			break
		}
	}

	width := max(m.pane.Width, 20)
	for _, e := range m.state.TopicHistory(m.state.Topic) {
		if e.IsDecision() {
			b.WriteString(renderDecision(e) + "\n\n")
			continue
		}
		style := agentStyle
		if e.SpeakerID == domain.HumanSpeakerID {
			style = humanStyle
		}
		b.WriteString(style.Render(fmt.Sprintf(" %s (%s) ", e.SpeakerName, domain.OptionKey(e.Preference))) + "\n")
		b.WriteString(wrap(width, e.Statement) + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDecision(e domain.DiscussionEntry) string {
	return decisionStyle.Render(fmt.Sprintf("Decision: %s - %s selected.", e.Topic, domain.OptionKey(e.Decision)))
}

func (m Model) viewReflection() string {
	var b strings.Builder
	b.WriteString(m.pane.View() + "\n\n")
	if m.reflectionSent {
		b.WriteString(dimStyle.Render("Reflection submitted.") + "\n")
	} else {
		b.WriteString("Reflection: " + m.reflInput.View() + "\n")
	}
	return b.String()
}

func (m Model) renderHelp() string {
	switch m.screen {
	case screenIntro:
		return helpStyle.Render("  Enter: start game  q: quit")
	case screenIndividual:
		if len(m.catalog) == 0 {
			return helpStyle.Render("  r: retry loading policy areas  q: quit")
		}
		help := "  ↑/↓: area  1-3: choose option  q: quit"
		if len(m.catalog) > 0 && len(m.state.SelectedPolicies) == len(m.catalog) {
			help += "  Enter: proceed to group discussion"
		}
		return helpStyle.Render(help)
	case screenGroup:
		if m.reflectionPending {
			return helpStyle.Render("  r: retry starting the reflection phase  ↑/↓: scroll  q: quit")
		}
		if m.argInput.Focused() {
			return helpStyle.Render("  Enter: submit argument  Tab: change stance  Esc: decide/scroll")
		}
		return helpStyle.Render("  1-3: finalize option  Tab: change stance  d: detect stance  i: type  ↑/↓: scroll  q: quit")
	case screenReflection:
		if m.reflectionSent {
			return helpStyle.Render("  ↑/↓: scroll  Ctrl+F: finish game")
		}
		return helpStyle.Render("  Enter: submit reflection  ↑/↓: scroll  Ctrl+F: finish game")
	}
	return ""
}

// reflectionView holds the results shown in the reflection phase.
type reflectionView struct {
	areas       []string
	policies    map[string]int
	analysis    *domain.PolicyAnalysis
	reflections []domain.AgentReflection
	questions   []string
}

func newReflectionView(resp protocol.ReflectionResponse) *reflectionView {
	return &reflectionView{
		areas:       domain.DefaultCatalog().Names(),
		policies:    resp.FinalPolicies,
		analysis:    resp.PolicyAnalysis,
		reflections: resp.Reflections,
		questions:   resp.ReflectionQuestions,
	}
}

func (r *reflectionView) render(width int) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Final Policy Package") + "\n")
	total := 0
	for _, area := range r.orderedAreas() {
		option := r.policies[area]
		total += option
		b.WriteString(fmt.Sprintf("%-30s %s  %d unit%s\n", area, domain.OptionKey(option), option, plural(option)))
	}
	b.WriteString(fmt.Sprintf("%-30s %d units\n\n", "Total budget used", total))

	if a := r.analysis; a != nil {
		b.WriteString(headerStyle.Render("Policy Analysis") + "\n")
		b.WriteString(renderScore("Equity", a.Equity, width))
		b.WriteString(renderScore("Justice", a.Justice, width))
		b.WriteString(renderScore("Coherence", a.Coherence, width))
		b.WriteString(wrap(width, a.BenefitAnalysis) + "\n\n")
	}

	if len(r.reflections) > 0 {
		b.WriteString(headerStyle.Render("Agent Reflections") + "\n")
		for _, ref := range r.reflections {
			style, ok := sentimentStyles[ref.Sentiment]
			if !ok {
				style = dimStyle
			}
			b.WriteString(style.Render(ref.AgentName) + "\n")
			b.WriteString(wrap(width, ref.Reflection) + "\n")
			b.WriteString(dimStyle.Render("Preference alignment: "+ref.PreferenceAlignment) + "\n\n")
		}
	}

	if len(r.questions) > 0 {
		b.WriteString(headerStyle.Render("Reflection Questions") + "\n")
		for i, q := range r.questions {
			b.WriteString(wrap(width, fmt.Sprintf("Question %d: %s", i+1, q)) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// orderedAreas lists the decided areas in catalog order, then any others.
func (r *reflectionView) orderedAreas() []string {
	seen := make(map[string]bool, len(r.policies))
	var out []string
	for _, area := range r.areas {
		if _, ok := r.policies[area]; ok {
			out = append(out, area)
			seen[area] = true
		}
	}
	for area := range r.policies {
		if !seen[area] {
			out = append(out, area)
		}
	}
	return out
}

func renderScore(label string, s domain.ScoredAnalysis, width int) string {
	filled := min(max(int(s.Level*barWidth+0.5), 0), barWidth)
	bar := barFullStyle.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%-10s %s %4.2f\n%s\n", label, bar, s.Score, dimStyle.Render(wrap(width, s.Analysis)))
}

func wrap(width int, text string) string {
	return lipgloss.NewStyle().Width(max(width-4, 20)).Render(text)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
