package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// parseValues collects field values from the --json flag and from
// field=value arguments, the latter taking precedence. A value starting
// with "[" is read as a JSON array; anything else is passed on as text and
// converted to the field type by the schema.
func parseValues(cmd *cobra.Command, assignments []string) (map[string]interface{}, error) {
	values := make(map[string]interface{})

	if raw, _ := cmd.Flags().GetString("json"); raw != "" {
		if err := decodeJSON([]byte(raw), &values); err != nil {
			return nil, fmt.Errorf("invalid --json values: %w", err)
		}
	}

	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want field=value", a)
		}
		if strings.HasPrefix(value, "[") {
			var list []interface{}
			if err := decodeJSON([]byte(value), &list); err != nil {
				return nil, fmt.Errorf("invalid array for %s: %w", name, err)
			}
			values[name] = list
			continue
		}
		values[name] = value
	}
	return values, nil
}

func decodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
