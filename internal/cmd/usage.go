package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/engine"
	"github.com/namelens/nutrilens/internal/metrics"
	"github.com/namelens/nutrilens/internal/observability"
	"github.com/namelens/nutrilens/internal/output"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show or reset the local API quota ledger",
}

var usageShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show requests used in the current window",
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

		usage, err := a.limiter.Usage(ctx)
		if err != nil {
			observability.CLILogger.Warn("Failed to read usage ledger", zap.Error(err))
		}

		rendered, err := output.FormatUsage(format, usage)
		if err != nil {
			return err
		}
		return writeOutput(cmd, "usage", format, rendered)
	},
}

var usageResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the local quota counter",
	Long:  "Reset the local quota counter to zero and start a new window. This does not affect the upstream quota.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		ledger, err := a.resetUsage(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Usage reset. New window resets at %s\n",
			ledger.ResetAt(a.limiter.Window).Local().Format(engine.ResetTimeLayout))
		return err
	},
}

func init() {
	addOutputFlags(usageShowCmd)

	usageCmd.AddCommand(usageShowCmd)
	usageCmd.AddCommand(usageResetCmd)
	rootCmd.AddCommand(usageCmd)
}

func (a *app) resetUsage(ctx context.Context) (core.UsageLedger, error) {
	unsubscribe := a.limiter.Subscribe(func(ledger core.UsageLedger) {
		observability.CLILogger.Info("Usage ledger updated",
			zap.Int("count", ledger.Count),
			zap.Time("window_start", ledger.WindowStart))
	})
	defer unsubscribe()

	ledger, err := a.limiter.Reset(ctx)
	if err != nil {
		return core.UsageLedger{}, err
	}
	metrics.RecordUsageReset()
	return ledger, nil
}
