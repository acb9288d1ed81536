package output

import (
	"fmt"
	"strings"
)

// ScoreBar renders a visual progress bar for a 0-100 score.
// Example: "████████░░ 80/100"
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((score / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case score >= 70:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case score >= 40:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleError.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// TrendArrow returns a styled trend indicator for a delta value.
// Positive delta shows an up arrow, negative shows down, zero shows a dash.
// higherIsBetter decides whether the arrow is rendered as an improvement.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := isPositive == higherIsBetter

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.2f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.2f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// ruleWidth is the length of the rule under section headers.
var ruleWidth = 66

// SetWidth sets the terminal width that section rules are sized to.
// Widths below 20 are ignored.
func SetWidth(cols int) {
	if cols < 20 {
		return
	}
	ruleWidth = cols - 2
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", ruleWidth))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// Money formats a currency amount in reais.
func Money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-R$ %.2f", -v)
	}
	return fmt.Sprintf("R$ %.2f", v)
}

// Savings renders a positive amount as a green "+R$" value.
func Savings(v float64) string {
	if v <= 0 {
		return StyleMuted.Render(Money(0))
	}
	return StyleSuccess.Render("+" + Money(v))
}

// ImpactBadge renders an impact tier label (high, medium, low).
func ImpactBadge(label string) string {
	switch label {
	case "high":
		return StyleError.Render("HIGH")
	case "medium":
		return StyleWarning.Render("MED")
	default:
		return StyleMuted.Render("LOW")
	}
}

// PhaseLine renders one staged-progress step, e.g. "[2/5] Comparing nearby markets...".
func PhaseLine(index, total int, label string) string {
	step := StyleMuted.Render(fmt.Sprintf("[%d/%d]", index+1, total))
	return fmt.Sprintf(" %s %s...", step, label)
}

// KeyValue renders a label/value pair with aligned columns.
func KeyValue(label, value string) string {
	return fmt.Sprintf(" %s %s", StyleLabel.Render(label), value)
}
