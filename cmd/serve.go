package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/chartloom/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyze/restore HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		addr := serveAddr
		if addr == "" {
			addr = c.ServerAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(server.Options{
			Addr:          addr,
			ShareBaseURL:  c.ShareBaseURL,
			MaxTokenChars: c.ShareMaxTokenChars,
			SampleRows:    c.InferenceSampleRows,
			Defaults:      defaultChart(),
			Logger:        logger,
		})
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server_addr)")
}
