package output

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/fdc"
)

// TableFormatter renders results as ASCII tables.
type TableFormatter struct{}

// FormatFoods renders search results with one column per preferred nutrient.
func (f *TableFormatter) FormatFoods(foods []core.FoodRecord, preferred []string) (string, error) {
	if len(foods) == 0 {
		return "No foods found", nil
	}
	preferred = displayPreferred(preferred)

	header := table.Row{"FDC ID", "Description", "Type", "Brand"}
	for _, name := range preferred {
		header = append(header, fdc.ShortName(name))
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)

	for _, food := range foods {
		row := table.Row{food.FDCID, food.Description, dataTypeLabel(food), brandOrDash(food)}
		for _, name := range preferred {
			row = append(row, fdc.NutrientValue(food.FoodNutrients, name))
		}
		t.AppendRow(row)
	}

	footer := make(table.Row, len(header))
	for i := range footer {
		footer[i] = ""
	}
	footer[len(footer)-1] = fmt.Sprintf("%d food(s)", len(foods))
	t.AppendFooter(footer)

	return t.Render(), nil
}

// FormatFood renders the detail view: metadata, key nutrients, and every
// nutrient that carries a value.
func (f *TableFormatter) FormatFood(food *core.FoodRecord) (string, error) {
	if food == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(ascii.DrawBox(strings.Join(metadataLines(food), "\n"), 0))
	sb.WriteString("\n")

	key := table.NewWriter()
	key.SetStyle(table.StyleRounded)
	key.SetTitle("Key Nutrients")
	key.AppendHeader(table.Row{"Nutrient", "Amount"})
	for _, name := range KeyNutrients {
		key.AppendRow(table.Row{fdc.ShortName(name), fdc.NutrientValue(food.FoodNutrients, name)})
	}
	sb.WriteString(key.Render())
	sb.WriteString("\n")

	all := table.NewWriter()
	all.SetStyle(table.StyleRounded)
	all.SetTitle("All Nutrients")
	all.AppendHeader(table.Row{"Nutrient", "Amount", "Unit"})
	rows := 0
	for _, n := range food.FoodNutrients {
		if !n.HasValue || strings.TrimSpace(n.NutrientName) == "" {
			continue
		}
		all.AppendRow(table.Row{n.NutrientName, fmt.Sprintf("%.2f", n.Value), n.UnitName})
		rows++
	}
	if rows == 0 {
		all.AppendRow(table.Row{"(no nutrient data)", "", ""})
	}
	sb.WriteString(all.Render())
	sb.WriteString("\n\n")
	sb.WriteString("View on USDA FoodData Central: " + fdc.FoodURL(food.FDCID) + "\n")

	return sb.String(), nil
}

func metadataLines(food *core.FoodRecord) []string {
	lines := []string{
		food.Description,
		"",
		fmt.Sprintf("FDC ID: %d", food.FDCID),
		"Type: " + dataTypeLabel(*food),
	}
	if food.BrandOwner != "" {
		lines = append(lines, "Brand: "+food.BrandOwner)
	}
	if food.NDBNumber != "" {
		lines = append(lines, "NDB Number: "+string(food.NDBNumber))
	}
	return lines
}
