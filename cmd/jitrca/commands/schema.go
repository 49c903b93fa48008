package commands

import (
	"encoding/json"
	"fmt"

	"jit-rca/internal/records"
	"jit-rca/internal/report"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [record|report]",
	Short:     "Print the JSON Schema of the input record or of the analysis report",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"record", "report"},
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "record"
		if len(args) == 1 {
			which = args[0]
		}

		var (
			s   *jsonschema.Schema
			err error
		)
		switch which {
		case "record":
			s, err = jsonschema.For[records.OrderRecord](nil)
		case "report":
			s, err = jsonschema.For[report.Result](nil)
		}
		if err != nil {
			return fmt.Errorf("infer %s schema: %w", which, err)
		}

		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
