package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored frames in creation order",
	Long: `List stored frames in creation order.

Examples:
  structkit list --limit 20
  structkit list --after 2ZkTwqmsJx7q0wZ9dmYjg1nM3Vq`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		afterRaw, _ := cmd.Flags().GetString("after")

		after := ksuid.Nil
		if afterRaw != "" {
			id, err := ksuid.Parse(afterRaw)
			if err != nil {
				return fmt.Errorf("invalid --after id %q: %w", afterRaw, err)
			}
			after = id
		}

		frames, err := container.FrameStore()
		if err != nil {
			return err
		}
		list, err := frames.List(after, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCHEMA\tTIMESTAMP\tSIZE")
		for _, f := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				f.ID, f.Envelope.Schema, f.Envelope.Time().Format(time.RFC3339), len(f.Envelope.Payload))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Int("limit", 100, "Maximum number of frames to list")
	listCmd.Flags().String("after", "", "Only list frames stored after this id")
}
