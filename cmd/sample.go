package cmd

import (
	"fmt"

	"github.com/KaramelBytes/chartloom/internal/ingest"
	"github.com/KaramelBytes/chartloom/internal/utils"
	"github.com/spf13/cobra"
)

var sampleJSON bool

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the built-in sample dataset",
	Long:  "Print the built-in sample dataset as CSV, or with --json as an /v1/analyze request body.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !sampleJSON {
			_, err := fmt.Fprint(out, ingest.SampleCSV)
			return err
		}
		b, err := utils.PrettyJSON(map[string]any{"rows": ingest.Sample()})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().BoolVar(&sampleJSON, "json", false, "print as a JSON request body for the HTTP API")
}
