package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/observability"
	"github.com/namelens/nutrilens/internal/output"
)

var nutrientsCmd = &cobra.Command{
	Use:   "nutrients",
	Short: "Choose which nutrients appear in search results",
}

var nutrientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List selected and available nutrients",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		preferred, err := a.prefs.NutrientPreferences(ctx)
		if err != nil {
			observability.CLILogger.Warn("Failed to read nutrient preferences, using defaults", zap.Error(err))
		}

		rendered, err := output.FormatNutrients(format, preferred, core.CommonNutrients)
		if err != nil {
			return err
		}
		return writeOutput(cmd, "nutrients", format, rendered)
	},
}

var nutrientsSetCmd = &cobra.Command{
	Use:   "set <name...>",
	Short: fmt.Sprintf("Select up to %d nutrients to display", core.MaxNutrientPreferences),
	Long: fmt.Sprintf(`Select up to %d nutrients to display in search results. Quote names that
contain spaces or commas, e.g.

  nutrilens nutrients set Energy Protein "Total lipid (fat)"`, core.MaxNutrientPreferences),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selection, unknown, err := normalizeNutrientSelection(args)
		if err != nil {
			return err
		}
		for _, name := range unknown {
			observability.CLILogger.Warn("Nutrient is not in the common list; it will match by substring", zap.String("nutrient", name))
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		if err := a.prefs.SetNutrientPreferences(ctx, selection); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Nutrient preferences saved: %s\n", strings.Join(selection, "; "))
		return err
	},
}

var nutrientsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default nutrient selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		if err := a.resetNutrients(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Nutrient preferences reset: %s\n", strings.Join(core.DefaultNutrients, "; "))
		return err
	},
}

func init() {
	addOutputFlags(nutrientsListCmd)

	nutrientsCmd.AddCommand(nutrientsListCmd)
	nutrientsCmd.AddCommand(nutrientsSetCmd)
	nutrientsCmd.AddCommand(nutrientsResetCmd)
	rootCmd.AddCommand(nutrientsCmd)
}

func (a *app) resetNutrients(ctx context.Context) error {
	return a.prefs.ResetNutrientPreferences(ctx)
}

// normalizeNutrientSelection trims and dedupes names, maps case-insensitive
// matches onto the common list, and enforces the selection cap.
func normalizeNutrientSelection(names []string) (selection []string, unknown []string, err error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		canonical, ok := canonicalNutrient(name)
		if !ok {
			unknown = append(unknown, name)
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		selection = append(selection, canonical)
	}

	if len(selection) == 0 {
		return nil, nil, fmt.Errorf("at least one nutrient name is required")
	}
	if len(selection) > core.MaxNutrientPreferences {
		return nil, nil, fmt.Errorf("you can select up to %d nutrients, got %d", core.MaxNutrientPreferences, len(selection))
	}
	return selection, unknown, nil
}

func canonicalNutrient(name string) (string, bool) {
	if core.IsCommonNutrient(name) {
		return name, true
	}
	for _, candidate := range core.CommonNutrients {
		if strings.EqualFold(candidate, name) {
			return candidate, true
		}
	}
	return name, false
}
