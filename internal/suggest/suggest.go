// Package suggest proposes chart encodings from inferred column kinds.
package suggest

import (
	"fmt"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
)

// Suggestion is a ready-to-apply chart encoding.
type Suggestion struct {
	Label       string               `json:"label" yaml:"label"`
	Kind        chart.Kind           `json:"chartKind" yaml:"chart_kind"`
	X           string               `json:"x" yaml:"x"`
	Y           []string             `json:"y" yaml:"y"`
	Aggregation analysis.Aggregation `json:"aggregation" yaml:"aggregation"`
}

// Config converts s into a chart configuration.
func (s Suggestion) Config() chart.Config {
	return chart.Config{
		Kind:        s.Kind,
		X:           s.X,
		Y:           append([]string(nil), s.Y...),
		Aggregation: s.Aggregation,
	}
}

// Suggest returns encodings for meta, most preferred first. Every rule that
// applies fires; the result is empty when none does.
func Suggest(meta []analysis.ColumnMeta) []Suggestion {
	var date, cat string
	var nums []string
	for _, m := range meta {
		switch m.Kind {
		case analysis.KindDate:
			if date == "" {
				date = m.Name
			}
		case analysis.KindNumber:
			if len(nums) < 2 {
				nums = append(nums, m.Name)
			}
		case analysis.KindString:
			if cat == "" {
				cat = m.Name
			}
		}
	}

	var out []Suggestion
	if date != "" && len(nums) > 0 {
		out = append(out, Suggestion{
			Label:       fmt.Sprintf("Line: %s over %s", nums[0], date),
			Kind:        chart.KindLine,
			X:           date,
			Y:           []string{nums[0]},
			Aggregation: analysis.AggNone,
		})
	}
	if cat != "" && len(nums) > 0 {
		out = append(out, Suggestion{
			Label:       fmt.Sprintf("Bar: %s by %s", nums[0], cat),
			Kind:        chart.KindBar,
			X:           cat,
			Y:           []string{nums[0]},
			Aggregation: analysis.AggAvg,
		})
	}
	if len(nums) >= 2 {
		out = append(out, Suggestion{
			Label:       fmt.Sprintf("Scatter: %s vs %s", nums[0], nums[1]),
			Kind:        chart.KindScatter,
			X:           nums[0],
			Y:           []string{nums[1]},
			Aggregation: analysis.AggNone,
		})
	}
	if cat != "" && len(nums) > 0 {
		out = append(out, Suggestion{
			Label:       fmt.Sprintf("Pie: %s by %s", nums[0], cat),
			Kind:        chart.KindPie,
			X:           cat,
			Y:           []string{nums[0]},
			Aggregation: analysis.AggSum,
		})
	}
	return out
}
