package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/observability"
	"github.com/namelens/nutrilens/internal/output"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search foods",
	Long: `Search FoodData Central by description (text), FDC ID (fdc), or NDB number (ndb).

Each search consumes one request from the hourly quota. Results show the
nutrients selected with 'nutrilens nutrients set'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("mode", string(core.SearchModeText), "Search mode: text|fdc|ndb")
	searchCmd.Flags().StringSlice("data-type", []string{"branded", "foundation", "survey"}, "Food data types for text search: branded, foundation, survey, sr")
	addOutputFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	modeRaw, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	mode, err := core.ParseSearchMode(modeRaw)
	if err != nil {
		return err
	}

	dataTypesRaw, err := cmd.Flags().GetStringSlice("data-type")
	if err != nil {
		return err
	}
	dataTypes, err := parseDataTypes(dataTypesRaw)
	if err != nil {
		return err
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close() // nolint:errcheck // best-effort cleanup

	query := strings.TrimSpace(strings.Join(args, " "))
	foods, preferred, err := a.search(ctx, mode, query, dataTypes)
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatFoods(foods, preferred)
	if err != nil {
		return err
	}
	return writeOutput(cmd, "search-"+query, format, rendered)
}

// search runs a lookup and resolves the nutrient columns to display.
func (a *app) search(ctx context.Context, mode core.SearchMode, query string, dataTypes []core.DataType) ([]core.FoodRecord, []string, error) {
	foods, err := a.client.Lookup(ctx, mode, query, dataTypes)
	if err != nil {
		return nil, nil, err
	}

	preferred, err := a.prefs.NutrientPreferences(ctx)
	if err != nil {
		observability.CLILogger.Warn("Failed to read nutrient preferences, using defaults", zap.Error(err))
	}

	observability.CLILogger.Debug("search complete",
		zap.String("mode", string(mode)),
		zap.String("query", query),
		zap.Int("results", len(foods)))

	return foods, preferred, nil
}

func parseDataTypes(values []string) ([]core.DataType, error) {
	seen := make(map[core.DataType]bool, len(values))
	dataTypes := make([]core.DataType, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		dt, err := core.ParseDataType(value)
		if err != nil {
			return nil, err
		}
		if seen[dt] {
			continue
		}
		seen[dt] = true
		dataTypes = append(dataTypes, dt)
	}
	return dataTypes, nil
}
