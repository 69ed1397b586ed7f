// Package render draws chart plans as SVG using go-gg.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"
)

// ErrUnsupported is returned for chart kinds the SVG backend cannot draw.
var ErrUnsupported = errors.New("render: unsupported chart kind")

// ErrEmpty is returned when a plan has nothing to draw.
var ErrEmpty = errors.New("render: plan has no data")

// Options controls SVG output.
type Options struct {
	Width  int
	Height int
	Title  string
}

// SVG writes plan to w. Category charts (line, bar) are drawn against the
// label index, one colour per series; nil values are skipped. Scatter
// charts use their points directly.
func SVG(w io.Writer, plan chart.Plan, opt Options) (err error) {
	if opt.Width <= 0 {
		opt.Width = 800
	}
	if opt.Height <= 0 {
		opt.Height = 450
	}
	tab, err := planTable(plan)
	if err != nil {
		return err
	}
	// go-gg panics on data it cannot scale.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render: %v", r)
		}
	}()
	p := gg.NewPlot(tab)
	switch plan.Kind {
	case chart.KindLine:
		p.Add(gg.LayerLines{X: "index", Y: "value", Color: "series"})
		p.Add(gg.LayerPoints{X: "index", Y: "value", Color: "series"})
		p.Add(gg.AxisLabel("x", "row"))
	case chart.KindBar:
		p.Add(gg.LayerSteps{LayerPaths: gg.LayerPaths{X: "index", Y: "value", Color: "series"}, Step: gg.StepHMid})
		p.Add(gg.LayerPoints{X: "index", Y: "value", Color: "series"})
		p.Add(gg.AxisLabel("x", "group"))
	case chart.KindScatter:
		p.Add(gg.LayerPoints{X: "x", Y: "y"})
	}
	if opt.Title != "" {
		p.Add(gg.Title(opt.Title))
	}
	return p.WriteSVG(w, opt.Width, opt.Height)
}

// planTable flattens a plan into columns go-gg can scale.
func planTable(plan chart.Plan) (*table.Table, error) {
	switch plan.Kind {
	case chart.KindLine, chart.KindBar:
		var idx, vals []float64
		var series []string
		for _, s := range plan.Datasets {
			for i, v := range s.Values {
				if v == nil {
					continue
				}
				idx = append(idx, float64(i))
				vals = append(vals, *v)
				series = append(series, s.Label)
			}
		}
		if len(idx) == 0 {
			return nil, ErrEmpty
		}
		return new(table.Builder).Add("index", idx).Add("value", vals).Add("series", series).Done(), nil
	case chart.KindScatter:
		var xs, ys []float64
		for _, s := range plan.Datasets {
			for _, pt := range s.Points {
				xs = append(xs, pt.X)
				ys = append(ys, pt.Y)
			}
		}
		if len(xs) == 0 {
			return nil, ErrEmpty
		}
		return new(table.Builder).Add("x", xs).Add("y", ys).Done(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, plan.Kind)
	}
}
