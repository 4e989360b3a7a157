/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/structkit/pkg/config"
)

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Bootstrap and start the structkit server",
	Long: `Bootstrap structkit by writing a configuration with a generated API key
if none exists, then start the REST API server. This is the recommended way
to get structkit running.

Examples:
  structkit up
  structkit up --data-dir ./mydata --port 9000
  structkit up --config ./custom-config.yaml --print-keys`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := configPath(cmd)
		if !config.ConfigExists(path) {
			cmd.Printf("First run detected. Bootstrapping structkit...\n")
			cfg, err := initializeConfig(cmd, path)
			if err != nil {
				return err
			}
			cmd.Printf("Configuration created at %s\n", path)
			if printKeys, _ := cmd.Flags().GetBool("print-keys"); printKeys {
				cmd.Printf("API key: %s\n", cfg.Security.APIKey)
			}
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return configureContainer(cfg)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		applyServeOverrides(cmd, cfg)
		cmd.Printf("Starting structkit server on %s:%d\n", cfg.Bind, cfg.Port)
		cmd.Printf("Schema directory: %s\n", cfg.SchemaDir)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		return runServer(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
	addServeFlags(upCmd)
	upCmd.Flags().Bool("print-keys", false, "Print the generated API key to the console")
}
