package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/roomwise/roomwise/internal/models"
	"github.com/roomwise/roomwise/internal/wizard"
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("roomwise") + "  " + m.stepBar() + "\n\n")

	if m.result != nil {
		b.WriteString(m.resultsView())
		b.WriteString("\n" + mutedStyle.Render("n new design • q quit") + "\n")
		return b.String()
	}

	state := m.session.Controller.State()
	switch state.Step {
	case models.StepUpload:
		b.WriteString(m.uploadView(state.Errors))
	case models.StepPreferences:
		b.WriteString(m.preferencesView(state.Errors))
	case models.StepReview:
		b.WriteString(m.reviewView())
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(m.spinner.View() + " " + m.status + "\n")
	} else if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status) + "\n")
	}
	if m.failure != "" {
		b.WriteString(errorStyle.Render(m.failure) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render(m.help(state.Step)) + "\n")
	return b.String()
}

func (m Model) stepBar() string {
	current := m.session.Controller.Step()
	parts := make([]string, 0, len(models.WizardSteps))
	for i, step := range models.WizardSteps {
		label := fmt.Sprintf("%d. %s", i+1, stepTitle(step))
		if step == current && m.result == nil {
			parts = append(parts, activeStep.Render(label))
		} else {
			parts = append(parts, stepStyle.Render(label))
		}
	}
	return strings.Join(parts, stepStyle.Render(" › "))
}

func stepTitle(step models.WizardStep) string {
	switch step {
	case models.StepUpload:
		return "Room photos"
	case models.StepPreferences:
		return "Preferences"
	case models.StepReview:
		return "Review"
	default:
		return string(step)
	}
}

func (m Model) help(step models.WizardStep) string {
	switch step {
	case models.StepUpload:
		return "enter attach • tab next field • ctrl+n next step • esc quit"
	case models.StepPreferences:
		return "←/→ change • space toggle color • tab next field • ctrl+n next • ctrl+p back"
	default:
		return "enter generate plan • ctrl+p back • esc quit"
	}
}

func (m Model) label(text string, row int) string {
	if row == m.row {
		return focusedLabel.Render(text)
	}
	return labelStyle.Render(text)
}

func fieldError(errs wizard.ValidationErrors, key string) string {
	if msg, ok := errs[key]; ok {
		return "  " + errorStyle.Render(msg)
	}
	return ""
}

func (m Model) uploadView(errs wizard.ValidationErrors) string {
	var b strings.Builder
	snapshot := m.session.Store.Snapshot()
	for i, wall := range models.WallSlots {
		mark := mutedStyle.Render("○")
		if snapshot.Images[i].Filled() {
			mark = selectedStyle.Render("●")
		}
		b.WriteString(fmt.Sprintf("%s %s %s%s\n", mark, m.label(wall.Label(), i), m.paths[i].View(), fieldError(errs, string(wall))))
	}
	return b.String()
}

func (m Model) preferencesView(errs wizard.ValidationErrors) string {
	prefs := m.session.Store.Preferences()
	var b strings.Builder

	b.WriteString(m.label("Full name", rowName) + m.name.View() + fieldError(errs, wizard.FieldFullName) + "\n")
	b.WriteString(m.label("Personality", rowPersonality) + choice(prefs.PersonalityType) + fieldError(errs, wizard.FieldPersonalityType) + "\n")
	b.WriteString(m.label("Room type", rowRoom) + choice(prefs.RoomType) + fieldError(errs, wizard.FieldRoomType) + "\n")

	budget := ""
	if tier, ok := models.LookupBudget(prefs.BudgetRange); ok {
		budget = tier.Label
	}
	b.WriteString(m.label("Budget", rowBudget) + choice(budget) + fieldError(errs, wizard.FieldBudgetRange) + "\n")

	selected := make(map[string]bool, len(prefs.FavoriteColors))
	for _, c := range prefs.FavoriteColors {
		selected[c] = true
	}
	colors := make([]string, 0, len(models.ColorOptions))
	for i, c := range models.ColorOptions {
		name := c.Name
		if selected[c.Value] {
			name = selectedStyle.Render("✓ " + name)
		}
		if i == m.colorIdx && m.row == rowColors {
			name = lipgloss.NewStyle().Underline(true).Render(name)
		}
		colors = append(colors, swatch(c.Hex)+" "+name)
	}
	b.WriteString(m.label("Favorite colors", rowColors) + fieldError(errs, wizard.FieldFavoriteColors) + "\n")
	b.WriteString(lipgloss.NewStyle().MarginLeft(2).Width(m.width-4).Render(strings.Join(colors, "  ")) + "\n")
	return b.String()
}

func choice(v string) string {
	if v == "" {
		return mutedStyle.Render("‹ choose ›")
	}
	return "‹ " + v + " ›"
}

func (m Model) reviewView() string {
	snapshot := m.session.Store.Snapshot()
	prefs := snapshot.Preferences

	var b strings.Builder
	for _, img := range snapshot.Images {
		name := mutedStyle.Render("missing")
		if img.Filled() {
			name = img.File.Filename
		}
		b.WriteString(labelStyle.Render(img.Wall.Label()) + name + "\n")
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Name") + prefs.FullName + "\n")
	b.WriteString(labelStyle.Render("Personality") + prefs.PersonalityType + "\n")
	b.WriteString(labelStyle.Render("Room type") + prefs.RoomType + "\n")
	if tier, ok := models.LookupBudget(prefs.BudgetRange); ok {
		b.WriteString(labelStyle.Render("Budget") + tier.Label + "\n")
	}
	names := make([]string, 0, len(prefs.FavoriteColors))
	for _, c := range prefs.FavoriteColors {
		if opt, ok := models.LookupColor(c); ok {
			names = append(names, swatch(opt.Hex)+" "+opt.Name)
		}
	}
	b.WriteString(labelStyle.Render("Colors") + strings.Join(names, "  ") + "\n")
	return boxStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func (m Model) resultsView() string {
	plan, prefs := m.result.Plan, m.result.Preferences
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Design plan for %s", prefs.FullName)) + "\n\n")

	b.WriteString(activeStep.Render("Wall colors") + "\n")
	for _, c := range plan.WallColors {
		b.WriteString(fmt.Sprintf("  %s %-12s %s %s\n", swatch(c.Hex), c.Color, c.Name, mutedStyle.Render(c.Hex)))
	}

	b.WriteString("\n" + activeStep.Render("Furniture") + "\n")
	for _, f := range plan.Furniture {
		b.WriteString(fmt.Sprintf("  %-24s %-10s %10s  %s\n", f.Name, f.Type, money(f.Cost), mutedStyle.Render(f.Description)))
	}

	b.WriteString("\n" + activeStep.Render("Layout") + "\n")
	b.WriteString(lipgloss.NewStyle().MarginLeft(2).Width(m.width-4).Render(plan.LayoutRecommendation) + "\n")

	b.WriteString("\n" + activeStep.Render("Cost") + "\n")
	b.WriteString(fmt.Sprintf("  %-12s %10s\n", "Furniture", money(plan.CostBreakdown.Furniture)))
	b.WriteString(fmt.Sprintf("  %-12s %10s\n", "Paint", money(plan.CostBreakdown.Paint)))
	b.WriteString(fmt.Sprintf("  %-12s %10s\n", "Accessories", money(plan.CostBreakdown.Accessories)))
	b.WriteString(fmt.Sprintf("  %-12s %10s\n", "Total", selectedStyle.Render(money(plan.TotalCost))))
	if tier, ok := models.LookupBudget(prefs.BudgetRange); ok && plan.TotalCost > float64(tier.Max) {
		b.WriteString(warningStyle.Render(fmt.Sprintf("  over your %s budget", tier.Label)) + "\n")
	}
	return b.String()
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
