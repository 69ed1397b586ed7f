package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/spf13/cobra"
)

var (
	shareFlags   chartFlags
	shareEmbed   bool
	shareBaseURL string
)

var shareCmd = &cobra.Command{
	Use:   "share <src>",
	Short: "Encode the dataset and chart settings into a share link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		if err := shareFlags.apply(cmd, s); err != nil {
			return err
		}
		tok, err := s.RequestShare()
		if err != nil {
			if errors.Is(err, share.ErrTokenTooLarge) {
				return fmt.Errorf("dataset too large to share (limit %d chars); try fewer rows or raise --max-token-chars", newCodec().MaxTokenChars())
			}
			return err
		}
		base := shareBaseURL
		if base == "" {
			base = settings().ShareBaseURL
		}
		out := cmd.OutOrStdout()
		link := share.ShareURL(base, tok)
		fmt.Fprintln(out, link)
		if shareEmbed {
			if base == "" {
				fmt.Fprintln(os.Stderr, "⚠ Warning: no share base URL configured; the embed snippet points at a bare fragment")
			}
			fmt.Fprintln(out, share.EmbedSnippet(link))
		}
		fmt.Fprintf(os.Stderr, "✓ Share token: %d chars\n", len(tok))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareFlags.register(shareCmd)
	shareCmd.Flags().BoolVar(&shareEmbed, "embed", false, "also print an iframe embed snippet")
	shareCmd.Flags().StringVar(&shareBaseURL, "base-url", "", "page URL the token is appended to (overrides share_base_url)")
}
