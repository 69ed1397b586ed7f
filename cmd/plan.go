package cmd

import (
	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/session"
	"github.com/spf13/cobra"
)

var (
	planFlags  chartFlags
	planFormat string
)

// planView is what plan and restore print.
type planView struct {
	Columns []analysis.ColumnMeta `json:"columns" yaml:"columns"`
	Config  chart.Config          `json:"config" yaml:"config"`
	Plan    chart.Plan            `json:"plan" yaml:"plan"`
}

func viewOf(s *session.Session) planView {
	return planView{Columns: s.Columns(), Config: s.Config(), Plan: s.Plan()}
}

var planCmd = &cobra.Command{
	Use:   "plan <src>",
	Short: "Print the chart plan (labels and series) for a dataset",
	Long:  "Print the chart plan for a dataset. Without overrides the first suggestion is used.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		if err := planFlags.apply(cmd, s); err != nil {
			return err
		}
		return writeFormatted(cmd.OutOrStdout(), viewOf(s), planFormat)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planFlags.register(planCmd)
	planCmd.Flags().StringVar(&planFormat, "format", "json", "output format: json|yaml")
}
