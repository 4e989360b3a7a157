/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/structkit/pkg/config"
	"github.com/ssargent/structkit/pkg/di"
	"github.com/ssargent/structkit/pkg/logging"
)

const appName = "structkit"

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "structkit",
	Short: "structkit - fixed layout binary records",
	Long: `structkit maps declared record layouts onto fixed layout binary frames.

Schemas are YAML or TOML files in the schema directory. Records can be
encoded and decoded from the command line, stored as checksummed frames,
or served over a REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return configureContainer(cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if container != nil {
		if closeErr := container.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", closeErr)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/structkit/config.yaml)")
	rootCmd.PersistentFlags().String("schema-dir", "", "Directory holding schema files")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the frame store")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json)")
}

// configPath returns the config path and whether it was given explicitly
func configPath(cmd *cobra.Command) (string, bool) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.GetDefaultConfigPath(), false
	}
	return path, true
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist, then applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, explicit := configPath(cmd)

	cfg := config.DefaultConfig()
	if config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("schema-dir") {
		cfg.SchemaDir, _ = flags.GetString("schema-dir")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
}

func configureContainer(cfg *config.Config) error {
	if container == nil {
		return errors.New("dependency container not initialized")
	}
	logger, err := logging.New(appName, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	container.Configure(cfg, logger)
	return nil
}
