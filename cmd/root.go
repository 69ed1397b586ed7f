package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
	cfgpkg "github.com/KaramelBytes/chartloom/internal/config"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/ingest"
	"github.com/KaramelBytes/chartloom/internal/session"
	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int
	// Analysis/share flags (override config if set)
	flagSampleRows    int
	flagMaxTokenChars int

	// Loaded configuration; never nil after loadConfig.
	cfg    *cfgpkg.Global
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "chartloom",
	Short: "chartloom: turn tabular data into chart suggestions and shareable links",
	Long: `chartloom reads CSV/TSV/XLSX data, infers column types, suggests charts,
builds chart plans and packs the whole state into a compact URL fragment token.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.chartloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds for URL sources (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagSampleRows, "sample-rows", 0, "rows sampled for type inference (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagMaxTokenChars, "max-token-chars", 0, "share token length limit (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("sample-rows") && flagSampleRows > 0 {
		cfg.InferenceSampleRows = flagSampleRows
	}
	if f.Changed("max-token-chars") && flagMaxTokenChars > 0 {
		cfg.ShareMaxTokenChars = flagMaxTokenChars
	}

	level := cfg.SlogLevel()
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func settings() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Default()
	}
	return cfg
}

func newFetcher() *ingest.Fetcher {
	c := settings()
	return ingest.NewFetcher(c.HTTPTimeout(), c.RetryMaxAttempts, c.RetryBaseDelay(), c.RetryMaxDelay())
}

func newCodec() *share.Codec {
	return share.NewCodec(share.WithMaxTokenChars(settings().ShareMaxTokenChars))
}

// defaultChart maps the configured defaults onto a chart config. Invalid
// values were already rejected by config validation.
func defaultChart() chart.Config {
	c := settings()
	def := chart.DefaultConfig()
	if k, err := chart.ParseKind(c.DefaultChartKind); err == nil {
		def.Kind = k
	}
	if a, err := analysis.ParseAggregation(c.DefaultAggregation); err == nil {
		def.Aggregation = a
	}
	return def
}

func newSession() *session.Session {
	return session.New(
		session.WithLogger(logger),
		session.WithCodec(newCodec()),
		session.WithSampleRows(settings().InferenceSampleRows),
		session.WithDefaults(defaultChart()),
	)
}

// loadSource reads a path, URL or "-" (stdin) into a dataset.
func loadSource(ctx context.Context, src string, stdin io.Reader) (*dataset.Dataset, error) {
	ds, err := ingest.Load(ctx, src, ingest.Options{Fetcher: newFetcher(), Stdin: stdin})
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %s has no data rows\n", src)
	}
	logger.Debug("source loaded", "source", src, "rows", ds.Len(), "columns", len(ds.Columns))
	return ds, nil
}

// openSession loads src into a fresh session.
func openSession(cmd *cobra.Command, src string) (*session.Session, error) {
	ds, err := loadSource(cmd.Context(), src, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	s := newSession()
	s.LoadDataset(ds)
	return s, nil
}
