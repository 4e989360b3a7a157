package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// layoutCmd represents the layout command
var layoutCmd = &cobra.Command{
	Use:   "layout [schema]",
	Short: "Show the resolved layout of a schema",
	Long: `Show where every field of a schema lands in the encoded record.
Without a schema name, list every schema in the schema directory.

Examples:
  structkit layout
  structkit layout telemetry
  structkit layout telemetry --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := container.Catalog()
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			loadErr := catalog.LoadDir()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCHEMA\tSIZE\tFIELDS")
			for _, name := range catalog.Names() {
				compiled, err := catalog.Get(name)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\n", name, compiled.Size(), compiled.Descriptor().NumField())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return loadErr
		}

		compiled, err := catalog.Get(args[0])
		if err != nil {
			return err
		}
		info := compiled.Layout()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(out, info)
		}

		fmt.Fprintf(out, "%s: %d bytes\n", info.Name, info.Size)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tTYPE\tOFFSET\tSIZE\tCOUNT\tORDER\tCONVERTER")
		for _, f := range info.Fields {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				f.Name, f.Type, f.Offset, f.ElementSize, max(f.ArrayLength, 1), f.ByteOrder, f.Converter)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().Bool("json", false, "Print the layout as JSON")
}
