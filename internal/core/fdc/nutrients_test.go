package fdc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/namelens/nutrilens/internal/core"
)

func TestNutrientValue(t *testing.T) {
	nutrients := []core.FoodNutrient{
		{NutrientName: "Energy", Value: 52, UnitName: "KCAL", HasValue: true},
		{NutrientName: "Total lipid (fat)", Value: 0.17, UnitName: "G", HasValue: true},
		{NutrientName: "Vitamin C, total ascorbic acid", UnitName: "MG"},
	}

	assert.Equal(t, "52.0 KCAL", NutrientValue(nutrients, "energy"))
	assert.Equal(t, "0.2 G", NutrientValue(nutrients, "lipid"))
	assert.Equal(t, "N/A", NutrientValue(nutrients, "Vitamin C"))
	assert.Equal(t, "N/A", NutrientValue(nutrients, "Iron"))
	assert.Equal(t, "N/A", NutrientValue(nil, "Energy"))
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "Fat", ShortName("Total lipid (fat)"))
	assert.Equal(t, "Carbs", ShortName("Carbohydrate, by difference"))
	assert.Equal(t, "Protein", ShortName("Protein"))
}

func TestFoodURL(t *testing.T) {
	assert.Equal(t, "https://fdc.nal.usda.gov/fdc-app.html#/food-details/171688/nutrients", FoodURL(171688))
}

func TestSearchURLDefaultsBase(t *testing.T) {
	assert.Contains(t, SearchURL("", "apple", nil, 0, "k"), core.DefaultBaseURL+"/foods/search?")
}
