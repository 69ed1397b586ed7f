package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <src>",
	Short: "List chart suggestions for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		sugs := s.Suggestions()
		if len(sugs) == 0 {
			fmt.Fprintln(out, "No suggestions: need a number column plus a date or string column, or two number columns.")
			return nil
		}
		for i, sg := range sugs {
			fmt.Fprintf(out, "%d. %s  (--kind %s --x %s --y %s --agg %s)\n",
				i+1, sg.Label, sg.Kind, sg.X, strings.Join(sg.Y, ","), sg.Aggregation)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}
