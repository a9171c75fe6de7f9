package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DataType identifies an FDC food data set.
type DataType string

const (
	DataTypeBranded    DataType = "Branded"
	DataTypeFoundation DataType = "Foundation"
	DataTypeSurvey     DataType = "Survey (FNDDS)"
	DataTypeSRLegacy   DataType = "SR Legacy"
)

// DefaultDataTypes are searched when no filter is given.
var DefaultDataTypes = []DataType{DataTypeBranded, DataTypeFoundation, DataTypeSurvey}

// ParseDataType accepts canonical names and short aliases.
func ParseDataType(value string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "branded":
		return DataTypeBranded, nil
	case "foundation":
		return DataTypeFoundation, nil
	case "survey", "fndds", "survey (fndds)":
		return DataTypeSurvey, nil
	case "sr", "legacy", "sr legacy", "sr-legacy":
		return DataTypeSRLegacy, nil
	default:
		return "", fmt.Errorf("unknown data type: %s", value)
	}
}

// SearchMode selects how a lookup query is interpreted.
type SearchMode string

const (
	SearchModeText SearchMode = "text"
	SearchModeFDC  SearchMode = "fdc"
	SearchModeNDB  SearchMode = "ndb"
)

// ParseSearchMode validates and normalizes a search mode string.
func ParseSearchMode(value string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", SearchModeText:
		return SearchModeText, nil
	case SearchModeFDC:
		return SearchModeFDC, nil
	case SearchModeNDB:
		return SearchModeNDB, nil
	default:
		return "", fmt.Errorf("unsupported search mode: %s", value)
	}
}

// UsageLedger counts requests issued since WindowStart.
type UsageLedger struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}

// ResetAt reports when the window closes.
func (l UsageLedger) ResetAt(window time.Duration) time.Time {
	return l.WindowStart.Add(window)
}

// Expired reports whether the window has closed at now. The boundary instant
// counts as expired so it agrees with the limiter, which stops blocking there.
func (l UsageLedger) Expired(now time.Time, window time.Duration) bool {
	return !now.Before(l.ResetAt(window))
}

// NewLedger returns an empty ledger whose window opens at now.
func NewLedger(now time.Time) UsageLedger {
	return UsageLedger{Count: 0, WindowStart: now}
}

// NDBNumber is the legacy nutrient database number. The API returns it as
// either a JSON string or a number.
type NDBNumber string

// UnmarshalJSON accepts string, number, or null.
func (n *NDBNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = NDBNumber(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return fmt.Errorf("ndbNumber: %w", err)
	}
	*n = NDBNumber(num.String())
	return nil
}

// FoodNutrient is a single nutrient amount attached to a food.
type FoodNutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
	UnitName     string  `json:"unitName"`

	// HasValue is false when the API omitted the amount.
	HasValue bool `json:"-"`
}

// UnmarshalJSON handles both the search shape (nutrientName/value/unitName)
// and the detail shape (nutrient{name,unitName}/amount).
func (n *FoodNutrient) UnmarshalJSON(data []byte) error {
	var raw struct {
		NutrientName string   `json:"nutrientName"`
		Value        *float64 `json:"value"`
		UnitName     string   `json:"unitName"`
		Amount       *float64 `json:"amount"`
		Nutrient     *struct {
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = FoodNutrient{NutrientName: raw.NutrientName, UnitName: raw.UnitName}
	if raw.Nutrient != nil {
		if n.NutrientName == "" {
			n.NutrientName = raw.Nutrient.Name
		}
		if n.UnitName == "" {
			n.UnitName = raw.Nutrient.UnitName
		}
	}

	switch {
	case raw.Value != nil:
		n.Value = *raw.Value
		n.HasValue = true
	case raw.Amount != nil:
		n.Value = *raw.Amount
		n.HasValue = true
	}
	return nil
}

// FoodRecord is a food as returned by the FDC API.
type FoodRecord struct {
	FDCID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	BrandOwner    string         `json:"brandOwner,omitempty"`
	NDBNumber     NDBNumber      `json:"ndbNumber,omitempty"`
	FoodNutrients []FoodNutrient `json:"foodNutrients"`
}

// SearchResult is the /foods/search response envelope.
type SearchResult struct {
	TotalHits   int          `json:"totalHits"`
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
	Foods       []FoodRecord `json:"foods"`
}
