package fdc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/namelens/nutrilens/internal/core"
)

// SearchFoods runs a text search restricted to dataTypes.
func (c *Client) SearchFoods(ctx context.Context, query string, dataTypes []core.DataType) ([]core.FoodRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(dataTypes) == 0 {
		return nil, ErrNoDataTypes
	}

	key, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	var result core.SearchResult
	if err := c.Do(ctx, SearchURL(c.BaseURL, query, dataTypes, core.PageSize, key), &result); err != nil {
		return nil, err
	}
	return nonNil(result.Foods), nil
}

// FoodByFDCID fetches a single food by FDC id.
func (c *Client) FoodByFDCID(ctx context.Context, fdcID string) (*core.FoodRecord, error) {
	fdcID = strings.TrimSpace(fdcID)
	if fdcID == "" {
		return nil, ErrEmptyQuery
	}

	key, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	var food core.FoodRecord
	if err := c.Do(ctx, FoodURLForID(c.BaseURL, fdcID, key), &food); err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Kind == KindUpstream && reqErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s: %w", ErrFoodNotFound, fdcID, err)
		}
		return nil, err
	}
	return &food, nil
}

// FoodsByNDB searches for an NDB number and keeps foods whose ndbNumber
// matches exactly. When nothing matches exactly, all returned foods are kept.
func (c *Client) FoodsByNDB(ctx context.Context, ndbNumber string) ([]core.FoodRecord, error) {
	ndbNumber = strings.TrimSpace(ndbNumber)
	if ndbNumber == "" {
		return nil, ErrEmptyQuery
	}

	key, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	var result core.SearchResult
	if err := c.Do(ctx, SearchURL(c.BaseURL, ndbNumber, nil, core.PageSize, key), &result); err != nil {
		return nil, err
	}
	if len(result.Foods) == 0 {
		return nil, ErrNoNDBMatch
	}

	filtered := make([]core.FoodRecord, 0, len(result.Foods))
	for _, food := range result.Foods {
		if food.NDBNumber != "" && string(food.NDBNumber) == ndbNumber {
			filtered = append(filtered, food)
		}
	}
	if len(filtered) > 0 {
		return filtered, nil
	}
	return result.Foods, nil
}

// Lookup dispatches query by mode.
func (c *Client) Lookup(ctx context.Context, mode core.SearchMode, query string, dataTypes []core.DataType) ([]core.FoodRecord, error) {
	switch mode {
	case core.SearchModeFDC:
		food, err := c.FoodByFDCID(ctx, query)
		if err != nil {
			return nil, err
		}
		return []core.FoodRecord{*food}, nil
	case core.SearchModeNDB:
		return c.FoodsByNDB(ctx, query)
	case core.SearchModeText, "":
		return c.SearchFoods(ctx, query, dataTypes)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", mode)
	}
}

// TestConnection issues a one-result search with apiKey instead of the stored
// credential. It is governed by the rate limiter like any other call.
func (c *Client) TestConnection(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrMissingCredential
	}
	var result core.SearchResult
	return c.Do(ctx, SearchURL(c.BaseURL, "apple", nil, 1, apiKey), &result)
}

func (c *Client) credential(ctx context.Context) (string, error) {
	if c.Credentials == nil {
		return "", ErrMissingCredential
	}
	key, err := c.Credentials.Credential(ctx)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingCredential
	}
	return key, nil
}

func nonNil(foods []core.FoodRecord) []core.FoodRecord {
	if foods == nil {
		return []core.FoodRecord{}
	}
	return foods
}
