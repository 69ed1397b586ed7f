package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/session"
	"github.com/KaramelBytes/chartloom/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// chartFlags are the chart overrides shared by plan, share, render and watch.
type chartFlags struct {
	kind       string
	x          string
	y          []string
	agg        string
	suggestion int
}

func (f *chartFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.kind, "kind", "", "chart kind: auto|line|bar|scatter|pie")
	c.Flags().StringVar(&f.x, "x", "", "x axis column")
	c.Flags().StringSliceVar(&f.y, "y", nil, "y column(s), comma-separated (repeatable)")
	c.Flags().StringVar(&f.agg, "agg", "", "aggregation: none|sum|avg|median|count")
	c.Flags().IntVar(&f.suggestion, "suggestion", 0, "apply the Nth suggestion (1-based) before other overrides")
}

// apply layers the flags over the session's current configuration. The
// session is left untouched when nothing was set.
func (f *chartFlags) apply(c *cobra.Command, s *session.Session) error {
	fl := c.Flags()
	cfg := s.Config()
	changed := false
	if f.suggestion != 0 {
		sugs := s.Suggestions()
		if f.suggestion < 1 || f.suggestion > len(sugs) {
			return fmt.Errorf("--suggestion %d out of range (have %d)", f.suggestion, len(sugs))
		}
		cfg = sugs[f.suggestion-1].Config()
		changed = true
	}
	if fl.Changed("kind") {
		k, err := chart.ParseKind(f.kind)
		if err != nil {
			return err
		}
		cfg.Kind = k
		changed = true
	}
	if fl.Changed("x") {
		cfg.X = strings.TrimSpace(f.x)
		changed = true
	}
	if fl.Changed("y") {
		cfg.Y = nil
		for _, y := range f.y {
			if y = strings.TrimSpace(y); y != "" {
				cfg.Y = append(cfg.Y, y)
			}
		}
		changed = true
	}
	if fl.Changed("agg") {
		a, err := analysis.ParseAggregation(f.agg)
		if err != nil {
			return err
		}
		cfg.Aggregation = a
		changed = true
	}
	if !changed {
		return nil
	}
	return s.ChangeConfig(cfg)
}

// writeFormatted prints v as indented JSON or YAML.
func writeFormatted(w io.Writer, v any, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml", "yml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unsupported --format: %s (use json|yaml)", format)
	}
}
