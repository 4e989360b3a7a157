package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <schema> [field=value ...]",
	Short: "Encode a record and print it as hex",
	Long: `Encode a record with a schema and print the bytes as hex. Fields that
are not given encode as zero.

Examples:
  structkit encode telemetry id=1 flag=2 'samples=[10,-1,0,7,1000]'
  structkit encode telemetry --json '{"id": 1, "flag": 2}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		compiled, err := container.Catalog().Get(args[0])
		if err != nil {
			return err
		}
		values, err := parseValues(cmd, args[1:])
		if err != nil {
			return err
		}

		payload, err := compiled.EncodeValues(values)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(payload))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().String("json", "", "Field values as a JSON object")
}
