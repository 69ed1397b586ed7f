package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	inspOutputPath string
	inspSampleRows int
	inspTopValues  int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <src>",
	Short: "Summarize a dataset and its inferred column kinds",
	Long:  "Summarize a CSV/TSV/XLSX file, http(s) URL or '-' (stdin) as Markdown.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		ds, err := loadSource(cmd.Context(), src, cmd.InOrStdin())
		if err != nil {
			return err
		}
		opt := analysis.DefaultSummaryOptions()
		opt.InferRows = settings().InferenceSampleRows
		if inspSampleRows > 0 {
			opt.SampleRows = inspSampleRows
		}
		if inspTopValues > 0 {
			opt.TopValues = inspTopValues
		}
		md := analysis.Summarize(src, ds, opt).Markdown()
		if inspOutputPath != "" {
			if err := utils.SafeWriteFile(inspOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote summary to %s\n", inspOutputPath)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	inspectCmd.Flags().IntVar(&inspSampleRows, "head", 5, "number of leading rows to include")
	inspectCmd.Flags().IntVar(&inspTopValues, "top", 8, "top values listed per string column")
}
