package output

import (
	"fmt"
	"strings"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/fdc"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

// FormatFoods renders search results as a markdown table.
func (f *MarkdownFormatter) FormatFoods(foods []core.FoodRecord, preferred []string) (string, error) {
	if len(foods) == 0 {
		return "No foods found\n", nil
	}
	preferred = displayPreferred(preferred)

	header := []string{"FDC ID", "Description", "Type", "Brand"}
	for _, name := range preferred {
		header = append(header, fdc.ShortName(name))
	}

	var sb strings.Builder
	writeMarkdownRow(&sb, header)
	sb.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")

	for _, food := range foods {
		row := []string{fmt.Sprintf("%d", food.FDCID), food.Description, dataTypeLabel(food), brandOrDash(food)}
		for _, name := range preferred {
			row = append(row, fdc.NutrientValue(food.FoodNutrients, name))
		}
		writeMarkdownRow(&sb, row)
	}
	return sb.String(), nil
}

// FormatFood renders the detail view as markdown.
func (f *MarkdownFormatter) FormatFood(food *core.FoodRecord) (string, error) {
	if food == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(food.Description)))
	for _, line := range metadataLines(food)[2:] {
		sb.WriteString("- " + escapeMarkdownCell(line) + "\n")
	}

	sb.WriteString("\n### Key Nutrients\n\n")
	writeMarkdownRow(&sb, []string{"Nutrient", "Amount"})
	sb.WriteString("|---|---|\n")
	for _, name := range KeyNutrients {
		writeMarkdownRow(&sb, []string{fdc.ShortName(name), fdc.NutrientValue(food.FoodNutrients, name)})
	}

	sb.WriteString("\n### All Nutrients\n\n")
	writeMarkdownRow(&sb, []string{"Nutrient", "Amount", "Unit"})
	sb.WriteString("|---|---|---|\n")
	for _, n := range food.FoodNutrients {
		if !n.HasValue || strings.TrimSpace(n.NutrientName) == "" {
			continue
		}
		writeMarkdownRow(&sb, []string{n.NutrientName, fmt.Sprintf("%.2f", n.Value), n.UnitName})
	}

	sb.WriteString(fmt.Sprintf("\n[View on USDA FoodData Central](%s)\n", fdc.FoodURL(food.FDCID)))
	return sb.String(), nil
}

func writeMarkdownRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, cell := range cells {
		sb.WriteString(" " + escapeMarkdownCell(cell) + " |")
	}
	sb.WriteString("\n")
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
