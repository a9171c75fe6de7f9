package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/nutrilens/internal/appid"
	"github.com/namelens/nutrilens/internal/config"
	"github.com/namelens/nutrilens/internal/core/engine"
	"github.com/namelens/nutrilens/internal/observability"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Check the runtime, config directory, preference store, API key, and quota without calling the API.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger := observability.CLILogger
		identity := appid.Get()
		logger.Info("=== " + identity.BinaryName + " doctor ===")

		allChecks := true
		totalChecks := 6

		goVersion := runtime.Version()
		logger.Info(fmt.Sprintf("[1/%d] Go runtime... ok %s %s/%s", totalChecks, goVersion, runtime.GOOS, runtime.GOARCH),
			zap.String("go_version", goVersion))

		version := crucible.GetVersion()
		if version.Gofulmen != "" && version.Crucible != "" {
			logger.Info(fmt.Sprintf("[2/%d] Gofulmen... ok v%s (crucible v%s)", totalChecks, version.Gofulmen, version.Crucible))
		} else {
			logger.Warn(fmt.Sprintf("[2/%d] Gofulmen... version metadata unavailable", totalChecks))
			allChecks = false
		}

		configPath := config.DefaultConfigPath()
		if configPath == "" {
			logger.Warn(fmt.Sprintf("[3/%d] Config directory... cannot resolve", totalChecks))
			allChecks = false
		} else if _, err := os.Stat(configPath); err == nil {
			logger.Info(fmt.Sprintf("[3/%d] Config file... ok %s", totalChecks, configPath))
		} else {
			logger.Info(fmt.Sprintf("[3/%d] Config file... using defaults (run '%s config init' to create %s)", totalChecks, identity.BinaryName, configPath))
		}

		a, err := openApp(ctx)
		if err != nil {
			logger.Warn(fmt.Sprintf("[4/%d] Preference store... cannot open", totalChecks), zap.Error(err))
			logger.Warn(fmt.Sprintf("[5/%d] API key... skipped", totalChecks))
			logger.Warn(fmt.Sprintf("[6/%d] Quota... skipped", totalChecks))
			logger.Warn("Some checks failed. Review the output above for details.")
			return
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		switch {
		case a.db == nil:
			logger.Info(fmt.Sprintf("[4/%d] Preference store... ok (in memory)", totalChecks))
		case a.cfg.Store.URL != "":
			logger.Info(fmt.Sprintf("[4/%d] Preference store... ok %s (remote, %s)", totalChecks, a.cfg.Store.URL, a.db.Driver()))
		default:
			absPath, _ := filepath.Abs(a.cfg.Store.Path)
			logger.Info(fmt.Sprintf("[4/%d] Preference store... ok %s (%s)", totalChecks, absPath, a.db.Driver()))
		}

		credential, err := a.prefs.Credential(ctx)
		switch {
		case err != nil:
			logger.Warn(fmt.Sprintf("[5/%d] API key... unreadable", totalChecks), zap.Error(err))
			allChecks = false
		case credential == "":
			logger.Warn(fmt.Sprintf("[5/%d] API key... not set (run '%s config set-key <key>')", totalChecks, identity.BinaryName))
			allChecks = false
		default:
			logger.Info(fmt.Sprintf("[5/%d] API key... set %s", totalChecks, maskCredential(credential)))
		}

		usage, err := a.limiter.Usage(ctx)
		switch {
		case err != nil:
			logger.Warn(fmt.Sprintf("[6/%d] Quota... ledger unreadable", totalChecks), zap.Error(err))
			allChecks = false
		case usage.Level == engine.UsageNormal:
			logger.Info(fmt.Sprintf("[6/%d] Quota... ok %d/%d used", totalChecks, usage.Count, usage.Limit))
		default:
			logger.Warn(fmt.Sprintf("[6/%d] Quota... %s %d/%d used, resets at %s", totalChecks, usage.Level, usage.Count, usage.Limit,
				usage.ResetAt.Local().Format(engine.ResetTimeLayout)))
		}

		if allChecks {
			logger.Info("All checks passed.")
		} else {
			logger.Warn("Some checks failed. Review the output above for details.")
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
