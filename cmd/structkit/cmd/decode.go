package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <schema> <hex>",
	Short: "Decode a hex encoded record",
	Long: `Decode a record from hex and print its values as JSON. Fields beyond
the end of the input keep their zero value.

Examples:
  structkit decode telemetry 00000001020000000a
  structkit decode telemetry abab00000001 --start 2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		compiled, err := container.Catalog().Get(args[0])
		if err != nil {
			return err
		}
		payload, err := hex.DecodeString(strings.TrimSpace(args[1]))
		if err != nil {
			return fmt.Errorf("payload must be hex encoded: %w", err)
		}
		start, _ := cmd.Flags().GetInt("start")

		rec, err := compiled.Decode(payload, start)
		if err != nil {
			return fmt.Errorf("failed to decode record: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), rec)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().Int("start", 0, "Byte offset the record starts at")
}
