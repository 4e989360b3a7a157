package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored frame",
	Long: `Delete a stored frame by id.

Example:
  structkit delete 2ZkTwqmsJx7q0wZ9dmYjg1nM3Vq`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid frame id %q: %w", args[0], err)
		}

		frames, err := container.FrameStore()
		if err != nil {
			return err
		}
		if err := frames.Delete(id); err != nil {
			return err
		}

		cmd.Printf("Deleted frame %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
