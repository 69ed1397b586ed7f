package cmd

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/chartloom/internal/render"
	"github.com/KaramelBytes/chartloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	renderFlags  chartFlags
	renderOutput string
	renderTitle  string
	renderWidth  int
	renderHeight int
)

var renderCmd = &cobra.Command{
	Use:   "render <src>",
	Short: "Render the chart plan to an SVG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderOutput == "" {
			return fmt.Errorf("--output is required")
		}
		s, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		if err := renderFlags.apply(cmd, s); err != nil {
			return err
		}
		opt := render.Options{Width: settings().SVGWidth, Height: settings().SVGHeight, Title: renderTitle}
		if renderWidth > 0 {
			opt.Width = renderWidth
		}
		if renderHeight > 0 {
			opt.Height = renderHeight
		}
		plan := s.Plan()
		var buf bytes.Buffer
		if err := render.SVG(&buf, plan, opt); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(renderOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Rendered %s chart to %s\n", plan.Kind, renderOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderFlags.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "SVG file to write")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "chart title")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "SVG width (overrides svg_width)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "SVG height (overrides svg_height)")
}
