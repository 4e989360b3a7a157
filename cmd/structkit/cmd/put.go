package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <schema> [field=value ...]",
	Short: "Encode a record and store it as a frame",
	Long: `Encode a record with a schema, seal it in a checksummed frame and
store it. The frame id is printed on success.

Example:
  structkit put telemetry id=1 flag=2`,
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

		frames, err := container.FrameStore()
		if err != nil {
			return err
		}
		id, err := frames.Put(compiled.Name(), payload)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), id.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().String("json", "", "Field values as a JSON object")
}
