package core

// DefaultNutrients is the display list used until the user picks their own.
var DefaultNutrients = []string{"Energy", "Protein", "Carbohydrate", "Total lipid (fat)", "Fiber", "Sugars"}

// CommonNutrients is the menu offered when choosing display nutrients.
var CommonNutrients = []string{
	"Energy", "Protein", "Total lipid (fat)", "Carbohydrate",
	"Fiber", "Sugars", "Calcium", "Iron", "Magnesium",
	"Phosphorus", "Potassium", "Sodium", "Zinc",
	"Vitamin C", "Thiamin", "Riboflavin", "Niacin",
	"Vitamin B-6", "Folate", "Vitamin B-12", "Vitamin A",
	"Vitamin E", "Vitamin D", "Vitamin K", "Fatty acids, total saturated",
	"Fatty acids, total monounsaturated", "Fatty acids, total polyunsaturated",
	"Cholesterol", "Caffeine",
}

// DefaultNutrientList returns a fresh copy of DefaultNutrients.
func DefaultNutrientList() []string {
	out := make([]string, len(DefaultNutrients))
	copy(out, DefaultNutrients)
	return out
}

// IsCommonNutrient reports whether name appears in CommonNutrients.
func IsCommonNutrient(name string) bool {
	for _, candidate := range CommonNutrients {
		if candidate == name {
			return true
		}
	}
	return false
}
