package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/namelens/nutrilens/internal/appid"
	"github.com/namelens/nutrilens/internal/config"
	errwrap "github.com/namelens/nutrilens/internal/errors"
	"github.com/namelens/nutrilens/internal/observability"
)

var (
	cfgFile   string
	verbose   bool
	ephemeral bool

	// runCtx carries the correlation ID of the current invocation
	runCtx = context.Background()

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           appid.Get().BinaryName,
	Short:         appid.Get().Description,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		runCtx = errwrap.WithCorrelationID(ctx, newCorrelationID())
		cmd.SetContext(runCtx)
		return nil
	},
}

// RunContext returns the context of the current invocation, for error reporting in main.
func RunContext() context.Context {
	return runCtx
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early so config loading stays quiet.
	// initConfig installs the configured system afterwards.
	_ = observability.InitTelemetry(false)

	identity := appid.Get()
	rootCmd.Long = fmt.Sprintf("%s - %s\n\nSearch foods, inspect nutrient details, and track API quota locally.", identity.BinaryName, identity.Description)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep preferences in memory for this run only")
	rootCmd.PersistentFlags().String("store-driver", "", "preference store driver: libsql|sqlite")
	rootCmd.PersistentFlags().String("store-path", "", "preference store file path")
	rootCmd.PersistentFlags().String("base-url", "", "FoodData Central API base URL")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store-driver"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store-path"))
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	identity := appid.Get()
	v := viper.GetViper()
	config.Bind(v)

	observability.InitCLILogger(identity.BinaryName, verbose, "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		configDir := config.DefaultConfigDir()
		if configDir == "" {
			observability.CLILogger.Debug("Could not resolve XDG config directory, falling back to home directory")
			home, err := os.UserHomeDir()
			if err != nil {
				ExitWithCode(observability.CLILogger, foundry.ExitFileNotFound, "Could not find home directory", err)
			}
			v.AddConfigPath(home)
			v.SetConfigName("." + identity.ConfigName)
		} else {
			v.AddConfigPath(configDir)
			v.SetConfigName("config")
		}
		v.AddConfigPath("./config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err == nil {
		observability.CLILogger.Debug("Using config file", zap.String("path", v.ConfigFileUsed()))
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		observability.CLILogger.Debug("No config file found, using defaults and environment variables")
	} else if cfgFile != "" {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Error reading config file", errwrap.WrapConfigInvalid(context.Background(), err, "config file unreadable"))
	} else {
		observability.CLILogger.Warn("Error reading config file", zap.Error(err))
	}

	cfg, err := config.Load(v)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Invalid configuration", errwrap.WrapConfigInvalid(context.Background(), err, err.Error()))
	}

	if !verbose && !strings.EqualFold(cfg.Logging.Level, "info") {
		observability.InitCLILogger(identity.BinaryName, false, cfg.Logging.Level)
	}

	if err := observability.InitTelemetry(cfg.Metrics.Enabled); err != nil {
		observability.CLILogger.Warn("Failed to initialize telemetry", zap.Error(err))
	}
}
