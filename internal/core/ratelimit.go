package core

import "time"

const (
	// RateLimit is the FDC quota per window for a single API key.
	RateLimit = 1000

	// RateWindow is the length of the usage window.
	RateWindow = time.Hour

	// RequestTimeout bounds a single outbound call.
	RequestTimeout = 10 * time.Second

	// PageSize is the fixed number of foods requested per search.
	PageSize = 25

	// MaxNutrientPreferences caps how many nutrients a result card shows.
	MaxNutrientPreferences = 6

	// DefaultBaseURL is the FDC API root.
	DefaultBaseURL = "https://api.nal.usda.gov/fdc/v1"
)
