package output

import (
	"encoding/json"

	"github.com/namelens/nutrilens/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatFoods renders search results as a JSON array.
func (f *JSONFormatter) FormatFoods(foods []core.FoodRecord, preferred []string) (string, error) {
	if foods == nil {
		foods = []core.FoodRecord{}
	}
	return f.marshal(foods)
}

// FormatFood renders a single food as JSON.
func (f *JSONFormatter) FormatFood(food *core.FoodRecord) (string, error) {
	if food == nil {
		return "", nil
	}
	return f.marshal(food)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
