package fdc

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/namelens/nutrilens/internal/core"
)

// FoodDetailsURL links to the public FDC web page for a food.
const FoodDetailsURL = "https://fdc.nal.usda.gov/fdc-app.html#/food-details/%d/nutrients"

// FoodURL returns the public FDC page for fdcID.
func FoodURL(fdcID int) string {
	return fmt.Sprintf(FoodDetailsURL, fdcID)
}

// SearchURL builds a /foods/search URL. dataTypes may be empty to search all types.
func SearchURL(baseURL, query string, dataTypes []core.DataType, pageSize int, apiKey string) string {
	params := url.Values{}
	params.Set("query", query)
	if len(dataTypes) > 0 {
		names := make([]string, 0, len(dataTypes))
		for _, dt := range dataTypes {
			names = append(names, string(dt))
		}
		params.Set("dataType", strings.Join(names, ","))
	}
	if pageSize <= 0 {
		pageSize = core.PageSize
	}
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("api_key", apiKey)
	return trimBase(baseURL) + "/foods/search?" + params.Encode()
}

// FoodURLForID builds a /food/{fdcId} URL.
func FoodURLForID(baseURL, fdcID, apiKey string) string {
	params := url.Values{}
	params.Set("api_key", apiKey)
	return trimBase(baseURL) + "/food/" + url.PathEscape(fdcID) + "?" + params.Encode()
}

func trimBase(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return core.DefaultBaseURL
	}
	return base
}

// redact masks the api_key query parameter for logs and error values.
func redact(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Get("api_key") == "" {
		return rawURL
	}
	query.Set("api_key", "REDACTED")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
