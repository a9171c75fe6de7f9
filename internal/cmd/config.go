package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/namelens/nutrilens/internal/config"
	"github.com/namelens/nutrilens/internal/core/fdc"
	"github.com/namelens/nutrilens/internal/observability"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the API key and configuration",
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <key>",
	Short: "Store the FoodData Central API key",
	Long:  "Store the FoodData Central API key. Get a free key at https://fdc.nal.usda.gov/api-key-signup.html",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		key := strings.TrimSpace(args[0])
		if err := a.prefs.SetCredential(ctx, key); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "API key saved (%s)\n", maskCredential(key))
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		rendered, err := a.describeConfig(ctx, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
		return err
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the API key with a one-result search",
	Long:  "Issue a single search for 'apple' to verify the key. This consumes one request from the hourly quota.",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := cmd.Flags().GetString("key")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		if err := a.testConnection(ctx, key); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "Connection successful! API key is valid.")
		return err
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if err := writeDefaultConfig(configPath, configInitForce); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return err
	},
}

func init() {
	configTestCmd.Flags().String("key", "", "Key to test instead of the stored one")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

type configView struct {
	ConfigFile string        `yaml:"config_file"`
	Credential string        `yaml:"credential"`
	Ephemeral  bool          `yaml:"ephemeral,omitempty"`
	Config     config.Config `yaml:"config"`
}

func (a *app) describeConfig(ctx context.Context, configFile string) (string, error) {
	credential, err := a.prefs.Credential(ctx)
	if err != nil {
		return "", err
	}
	if configFile == "" {
		configFile = "(none)"
	}

	view := configView{
		ConfigFile: configFile,
		Credential: maskCredential(credential),
		Ephemeral:  a.db == nil,
		Config:     *a.cfg,
	}
	data, err := yaml.Marshal(view)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// testConnection checks key, or the stored credential when key is blank.
func (a *app) testConnection(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		stored, err := a.prefs.Credential(ctx)
		if err != nil {
			return err
		}
		key = stored
	}
	if key == "" {
		return fdc.ErrMissingCredential
	}

	if err := a.client.TestConnection(ctx, key); err != nil {
		observability.CLILogger.Debug("connection test failed", zap.String("kind", string(fdc.KindOf(err))))
		return err
	}
	return nil
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func maskCredential(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
	}
}
