package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/structkit/pkg/api"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a stored frame",
	Long: `Load a stored frame, verify its checksum and print it as JSON with
the record decoded by the schema it was stored with.

Example:
  structkit get 2ZkTwqmsJx7q0wZ9dmYjg1nM3Vq`,
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
		frame, err := frames.Get(id)
		if err != nil {
			return err
		}

		env := frame.Envelope
		resp := api.FrameResponse{
			ID:        frame.ID.String(),
			Schema:    env.Schema,
			Timestamp: env.Time(),
			Size:      len(env.Payload),
			Payload:   hex.EncodeToString(env.Payload),
		}
		if compiled, err := container.Catalog().Get(env.Schema); err == nil {
			rec, err := compiled.Decode(env.Payload, 0)
			if err != nil {
				return fmt.Errorf("failed to decode frame: %w", err)
			}
			resp.Values = rec.JSONValues()
		} else {
			logger := container.Logger()
			logger.Warn().Err(err).Str("schema", env.Schema).Msg("frame schema unavailable, printing raw payload")
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
