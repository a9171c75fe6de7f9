package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/namelens/nutrilens/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// KeyNutrients head the detail view.
var KeyNutrients = []string{"Energy", "Protein", "Carbohydrate", "Total lipid"}

// Formatter renders food search results and detail views.
type Formatter interface {
	FormatFoods(foods []core.FoodRecord, preferred []string) (string, error)
	FormatFood(food *core.FoodRecord) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// MarshalJSON renders v as indented JSON.
func MarshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// displayPreferred caps the nutrient columns for narrow terminals.
func displayPreferred(preferred []string) []string {
	if len(preferred) > core.MaxNutrientPreferences {
		return preferred[:core.MaxNutrientPreferences]
	}
	return preferred
}

func brandOrDash(food core.FoodRecord) string {
	if strings.TrimSpace(food.BrandOwner) == "" {
		return "-"
	}
	return food.BrandOwner
}

func dataTypeLabel(food core.FoodRecord) string {
	if strings.TrimSpace(food.DataType) == "" {
		return "Unknown"
	}
	return food.DataType
}
