package fdc

import (
	"fmt"
	"strings"

	"github.com/namelens/nutrilens/internal/core"
)

var shortNames = map[string]string{
	"Total lipid (fat)":                  "Fat",
	"Carbohydrate, by difference":        "Carbs",
	"Fiber, total dietary":               "Fiber",
	"Sugars, total including NLEA":       "Sugars",
	"Fatty acids, total saturated":       "Saturated Fat",
	"Fatty acids, total monounsaturated": "Monounsat. Fat",
	"Fatty acids, total polyunsaturated": "Polyunsat. Fat",
}

// ShortName abbreviates long FDC nutrient names for narrow displays.
func ShortName(name string) string {
	if short, ok := shortNames[name]; ok {
		return short
	}
	return name
}

// FindNutrient returns the first nutrient whose name contains name, ignoring case.
func FindNutrient(nutrients []core.FoodNutrient, name string) (core.FoodNutrient, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return core.FoodNutrient{}, false
	}
	for _, n := range nutrients {
		if n.NutrientName != "" && strings.Contains(strings.ToLower(n.NutrientName), needle) {
			return n, true
		}
	}
	return core.FoodNutrient{}, false
}

// NutrientValue formats the first matching nutrient as "52.0 KCAL", or "N/A".
func NutrientValue(nutrients []core.FoodNutrient, name string) string {
	n, ok := FindNutrient(nutrients, name)
	if !ok || !n.HasValue {
		return "N/A"
	}
	return strings.TrimSpace(fmt.Sprintf("%.1f %s", n.Value, n.UnitName))
}
