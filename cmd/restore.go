package cmd

import (
	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/spf13/cobra"
)

var restoreFormat string

var restoreCmd = &cobra.Command{
	Use:   "restore <token|url>",
	Short: "Decode a share token or link and print its chart plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		if err := s.RestoreFromToken(share.TokenFromURL(args[0])); err != nil {
			return err
		}
		return writeFormatted(cmd.OutOrStdout(), viewOf(s), restoreFormat)
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVar(&restoreFormat, "format", "json", "output format: json|yaml")
}
