package console

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// choiceList renders the options of the live question. Selection moves
// with the arrow keys; once an option is chosen the list is frozen until
// the question resolves.
type choiceList struct {
	options  []string
	selected int
	chosen   int // -1 until the learner answers
}

func newChoiceList(options []string) choiceList {
	return choiceList{options: options, chosen: -1}
}

func (c *choiceList) up() {
	if c.chosen < 0 && c.selected > 0 {
		c.selected--
	}
}

func (c *choiceList) down() {
	if c.chosen < 0 && c.selected < len(c.options)-1 {
		c.selected++
	}
}

// choose freezes the list on i. It reports false if i is out of range or
// an option was already chosen.
func (c *choiceList) choose(i int) bool {
	if c.chosen >= 0 || i < 0 || i >= len(c.options) {
		return false
	}
	c.selected = i
	c.chosen = i
	return true
}

func (c choiceList) answered() bool {
	return c.chosen >= 0
}

func (c choiceList) view() string {
	var b strings.Builder
	for i, opt := range c.options {
		prefix := "  "
		if i == c.selected && !c.answered() {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		var style lipgloss.Style
		switch {
		case i == c.chosen:
			style = chosenStyle
		case c.answered():
			style = dimStyle
		case i == c.selected:
			style = selectedStyle
		default:
			style = optionStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// scoreBar renders pct as a horizontal bar of width cells.
func scoreBar(pct, width int) string {
	if width < 4 {
		width = 4
	}
	filled := width * pct / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	on := lipgloss.NewStyle().Background(colorSecondary).Render(strings.Repeat(" ", filled))
	off := lipgloss.NewStyle().Background(colorBorder).Render(strings.Repeat(" ", width-filled))
	return on + off + dimStyle.Render(fmt.Sprintf("  %d%%", pct))
}
