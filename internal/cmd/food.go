package cmd

import (
	"github.com/spf13/cobra"

	"github.com/namelens/nutrilens/internal/output"
)

var foodCmd = &cobra.Command{
	Use:   "food <fdcId>",
	Short: "Show nutrient details for a food",
	Long:  "Fetch a single food by FDC ID and show its metadata, key nutrients, every reported nutrient, and a link to the USDA page.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFood,
}

func init() {
	rootCmd.AddCommand(foodCmd)
	addOutputFlags(foodCmd)
}

func runFood(cmd *cobra.Command, args []string) error {
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

	food, err := a.client.FoodByFDCID(ctx, args[0])
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatFood(food)
	if err != nil {
		return err
	}
	return writeOutput(cmd, "food-"+args[0], format, rendered)
}
