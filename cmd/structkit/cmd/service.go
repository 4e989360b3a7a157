/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/structkit/pkg/config"
)

const serviceName = "structkit.service"

// systemdUnitDir is where unit files are installed
var systemdUnitDir = "/etc/systemd/system"

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage structkit as a systemd service",
	Long: `Manage the structkit API server as a systemd service. This command
provides native integration with systemd for production deployments.

The service will be installed with proper security settings and
automatic restart on failure.`,
}

// installServiceCmd represents the service install command
var installServiceCmd = &cobra.Command{
	Use:   "install",
	Short: "Install structkit as a systemd service",
	Long: `Install structkit as a systemd service with proper configuration.

This will:
- Create or use existing configuration
- Generate systemd unit file
- Enable and optionally start the service

Examples:
  structkit service install
  structkit service install --config /etc/structkit/config.yaml --user structkit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		binary, _ := cmd.Flags().GetString("binary")
		startNow, _ := cmd.Flags().GetBool("start")
		path, _ := configPath(cmd)

		if os.Geteuid() != 0 {
			return fmt.Errorf("service install requires root privileges, run with: sudo structkit service install")
		}

		cmd.Printf("Installing structkit systemd service...\n")

		if !config.ConfigExists(path) {
			if _, err := initializeConfig(cmd, path); err != nil {
				return err
			}
			cmd.Printf("Created new configuration at %s\n", path)
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if binary == "" {
			if binary, err = os.Executable(); err != nil {
				return fmt.Errorf("failed to locate structkit binary: %w", err)
			}
		}

		if err := createSystemdUnit(systemdUnitDir, cfg, path, user, binary); err != nil {
			return fmt.Errorf("failed to create systemd unit: %w", err)
		}
		if err := runSystemctlCommand("daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}
		if err := runSystemctlCommand("enable", serviceName); err != nil {
			return fmt.Errorf("failed to enable service: %w", err)
		}
		cmd.Printf("Service enabled successfully\n")

		if startNow {
			if err := runSystemctlCommand("start", serviceName); err != nil {
				return fmt.Errorf("failed to start service: %w", err)
			}
			cmd.Printf("Service started successfully\n")
		}

		cmd.Printf("\nService: %s\n", serviceName)
		cmd.Printf("Config: %s\n", path)
		cmd.Printf("Schemas: %s\n", cfg.SchemaDir)
		cmd.Printf("Data: %s\n", cfg.DataDir)
		cmd.Printf("Port: %d\n", cfg.Port)
		if !startNow {
			cmd.Printf("\nTo start the service: sudo systemctl start %s\n", serviceName)
		}
		cmd.Printf("To check status: sudo systemctl status %s\n", serviceName)
		cmd.Printf("To view logs: sudo journalctl -u %s -f\n", serviceName)
		return nil
	},
}

// systemctlCmd builds a service subcommand that runs one systemctl action
func systemctlCmd(action, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runSystemctlCommand(action, serviceName); err != nil {
				return fmt.Errorf("failed to %s service: %w", action, err)
			}
			if done != "" {
				cmd.Printf("%s\n", done)
			}
			return nil
		},
	}
}

// logsCmd represents the service logs command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show structkit service logs",
	Long: `Show structkit service logs using journalctl.

Examples:
  structkit service logs
  structkit service logs -f  # Follow logs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		lines, _ := cmd.Flags().GetInt("lines")
		return runCommand("journalctl", journalArgs(follow, lines)...)
	},
}

// uninstallCmd represents the service uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the structkit service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return fmt.Errorf("service uninstall requires root privileges, run with: sudo structkit service uninstall")
		}

		cmd.Printf("Uninstalling structkit service...\n")

		_ = runSystemctlCommand("stop", serviceName) // Ignore errors if already stopped
		if err := runSystemctlCommand("disable", serviceName); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}

		unitPath := filepath.Join(systemdUnitDir, serviceName)
		if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		if err := runSystemctlCommand("daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}

		cmd.Printf("structkit service uninstalled\n")
		cmd.Printf("Note: Configuration, schema and data files were not removed\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(installServiceCmd)
	serviceCmd.AddCommand(systemctlCmd("start", "Start the structkit service", "structkit service started"))
	serviceCmd.AddCommand(systemctlCmd("stop", "Stop the structkit service", "structkit service stopped"))
	serviceCmd.AddCommand(systemctlCmd("restart", "Restart the structkit service", "structkit service restarted"))
	serviceCmd.AddCommand(systemctlCmd("status", "Show structkit service status", ""))
	serviceCmd.AddCommand(logsCmd)
	serviceCmd.AddCommand(uninstallCmd)

	installServiceCmd.Flags().String("user", "structkit", "User to run the service as")
	installServiceCmd.Flags().String("binary", "", "Path to the structkit binary (default: this executable)")
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")

	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
}

// renderSystemdUnit renders the unit file that runs the API server
func renderSystemdUnit(cfg *config.Config, configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=structkit API Server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadOnlyPaths=%s
ReadOnlyPaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, cfg.DataDir, cfg.SchemaDir, filepath.Dir(configPath))
}

// createSystemdUnit writes the unit file into dir
func createSystemdUnit(dir string, cfg *config.Config, configPath, user, binary string) error {
	unitPath := filepath.Join(dir, serviceName)
	return os.WriteFile(unitPath, []byte(renderSystemdUnit(cfg, configPath, user, binary)), 0600)
}

func journalArgs(follow bool, lines int) []string {
	args := []string{"-u", serviceName}
	if follow {
		args = append(args, "-f")
	}
	if lines > 0 {
		args = append(args, fmt.Sprintf("-n%d", lines))
	}
	return args
}

// runSystemctlCommand runs a systemctl command
func runSystemctlCommand(args ...string) error {
	return runCommand("systemctl", args...)
}

// runCommand runs a system command and returns its error
func runCommand(command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
