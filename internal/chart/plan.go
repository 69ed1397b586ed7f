package chart

import (
	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/dataset"
)

// Plan is a renderer-agnostic chart description.
type Plan struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Labels   []string `json:"labels" yaml:"labels"`
	Datasets []Series `json:"datasets" yaml:"datasets"`
}

// Series is one labelled data series. Category charts fill Values, where a
// nil entry is a gap; scatter charts fill Points.
type Series struct {
	Label  string     `json:"label" yaml:"label"`
	Values []*float64 `json:"data,omitempty" yaml:"data,omitempty"`
	Points []Point    `json:"points,omitempty" yaml:"points,omitempty"`
}

// Point is one scatter point.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ResolveKind turns KindAuto into line when the x column is date-like and
// bar otherwise. Other kinds are returned unchanged.
func ResolveKind(ds *dataset.Dataset, cfg Config, meta []analysis.ColumnMeta) Kind {
	if cfg.Kind != KindAuto && cfg.Kind != "" {
		return cfg.Kind
	}
	x := resolveX(ds, cfg)
	if kind, ok := analysis.KindOf(meta, x); ok {
		if kind == analysis.KindDate {
			return KindLine
		}
		return KindBar
	}
	if ds.Len() > 0 && dataset.LooksLikeDate(ds.Rows[0].Value(x)) {
		return KindLine
	}
	return KindBar
}

func resolveX(ds *dataset.Dataset, cfg Config) string {
	if cfg.X == "" && ds != nil && len(ds.Columns) > 0 {
		return ds.Columns[0]
	}
	return cfg.X
}

// BuildPlan projects ds through cfg. It never mutates its inputs.
func BuildPlan(ds *dataset.Dataset, cfg Config, meta []analysis.ColumnMeta) Plan {
	kind := ResolveKind(ds, cfg, meta)
	plan := Plan{Kind: kind}
	if ds.Len() == 0 || len(ds.Columns) == 0 {
		return plan
	}
	x := resolveX(ds, cfg)
	agg := cfg.Aggregation
	if agg == "" {
		agg = analysis.AggNone
	}

	switch {
	case kind == KindPie:
		fn := agg
		if fn == analysis.AggNone {
			fn = analysis.AggSum
		}
		var y string
		if len(cfg.Y) > 0 {
			y = cfg.Y[0]
		}
		groups := analysis.GroupBy(ds.Rows, x)
		plan.Labels = copyKeys(groups)
		plan.Datasets = []Series{{Label: y, Values: aggregateGroups(groups, y, fn)}}
	case kind == KindScatter:
		if len(cfg.Y) == 0 {
			return plan
		}
		y := cfg.Y[0]
		pts := []Point{}
		for _, r := range ds.Rows {
			xv, okx := dataset.TryParseNumber(r.Value(x))
			yv, oky := dataset.TryParseNumber(r.Value(y))
			if okx && oky {
				pts = append(pts, Point{X: xv, Y: yv})
			}
		}
		plan.Datasets = []Series{{Label: y + " vs " + x, Points: pts}}
	case agg == analysis.AggNone:
		plan.Labels = ds.Column(x)
		for _, y := range cfg.Y {
			vals := make([]*float64, len(ds.Rows))
			for i, r := range ds.Rows {
				if v, ok := dataset.TryParseNumber(r.Value(y)); ok {
					vals[i] = &v
				}
			}
			plan.Datasets = append(plan.Datasets, Series{Label: y, Values: vals})
		}
	default:
		groups := analysis.GroupBy(ds.Rows, x)
		plan.Labels = copyKeys(groups)
		for _, y := range cfg.Y {
			plan.Datasets = append(plan.Datasets, Series{Label: y, Values: aggregateGroups(groups, y, agg)})
		}
	}
	return plan
}

func copyKeys(g *analysis.Groups) []string {
	return append([]string{}, g.Keys()...)
}

// aggregateGroups reduces y per group; a group with no result is 0.
func aggregateGroups(g *analysis.Groups, y string, fn analysis.Aggregation) []*float64 {
	out := make([]*float64, g.Len())
	for i, k := range g.Keys() {
		v, _ := analysis.Aggregate(g.Rows(k), y, fn)
		out[i] = &v
	}
	return out
}
