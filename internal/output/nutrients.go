package output

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// NutrientChoice is one row of the nutrient picker.
type NutrientChoice struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// NutrientChoices marks which common nutrients are selected. Preferred names
// outside the common list are appended so nothing selected is hidden.
func NutrientChoices(preferred, common []string) []NutrientChoice {
	selected := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		selected[name] = true
	}

	choices := make([]NutrientChoice, 0, len(common)+len(preferred))
	seen := make(map[string]bool, len(common))
	for _, name := range common {
		choices = append(choices, NutrientChoice{Name: name, Selected: selected[name]})
		seen[name] = true
	}
	for _, name := range preferred {
		if !seen[name] {
			choices = append(choices, NutrientChoice{Name: name, Selected: true})
			seen[name] = true
		}
	}
	return choices
}

// FormatNutrients renders the nutrient picker.
func FormatNutrients(format Format, preferred, common []string) (string, error) {
	choices := NutrientChoices(preferred, common)

	switch format {
	case FormatJSON:
		return MarshalJSON(map[string]any{
			"preferred": preferred,
			"choices":   choices,
		})
	case FormatMarkdown:
		var sb strings.Builder
		sb.WriteString("## Nutrients\n\n")
		for _, choice := range choices {
			mark := " "
			if choice.Selected {
				mark = "x"
			}
			sb.WriteString("- [" + mark + "] " + escapeMarkdownCell(choice.Name) + "\n")
		}
		return sb.String(), nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"", "Nutrient"})
	for _, choice := range choices {
		mark := ""
		if choice.Selected {
			mark = "*"
		}
		t.AppendRow(table.Row{mark, choice.Name})
	}
	t.AppendFooter(table.Row{"", "* shown in search results"})
	return t.Render(), nil
}
