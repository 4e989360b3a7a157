/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/structkit/pkg/api"
	"github.com/ssargent/structkit/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the structkit REST API server.

Every schema in the schema directory is compiled at startup; schemas added
later are loaded on first use. Requests under /api/v1 must carry the API key
from the configuration in the X-API-Key header.

Examples:
  structkit serve
  structkit serve --port 9000 --schema-dir ./schemas
  structkit serve --api-key mysecretkey`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		applyServeOverrides(cmd, cfg)
		return runServer(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().String("bind", "", "Address to bind server to (default from config)")
	cmd.Flags().String("api-key", "", "API key for client authentication (default from config)")
}

func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
	}
}

// runServer loads the schema directory, opens the frame store and serves
// until interrupted
func runServer(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.Security.APIKey == "" || cfg.Security.APIKey == "auto" {
		return errors.New("no API key configured: run 'structkit init' or pass --api-key")
	}
	logger := container.Logger()

	catalog := container.Catalog()
	if err := catalog.LoadDir(); err != nil {
		logger.Warn().Err(err).Str("dir", catalog.Dir()).Msg("some schemas failed to load")
	}

	frames, err := container.FrameStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("schema_dir", cfg.SchemaDir).
		Str("data_dir", cfg.DataDir).
		Strs("schemas", catalog.Names()).
		Msg("starting server")

	starter := container.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, catalog, frames, api.ServerConfig{
		Bind:   cfg.Bind,
		Port:   cfg.Port,
		APIKey: cfg.Security.APIKey,
	})
}
