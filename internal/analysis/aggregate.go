package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/aclements/go-moremath/stats"
)

// Aggregation is a per-group reduction.
type Aggregation string

const (
	AggNone   Aggregation = "none"
	AggSum    Aggregation = "sum"
	AggAvg    Aggregation = "avg"
	AggMedian Aggregation = "median"
	AggCount  Aggregation = "count"
)

// Aggregations lists every recognized aggregation.
var Aggregations = []Aggregation{AggNone, AggSum, AggAvg, AggMedian, AggCount}

// ParseAggregation accepts an aggregation name case-insensitively. An empty
// string is AggNone.
func ParseAggregation(s string) (Aggregation, error) {
	v := Aggregation(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return AggNone, nil
	}
	for _, a := range Aggregations {
		if a == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("unsupported aggregation: %s (use none|sum|avg|median|count)", s)
}

// Groups holds rows partitioned by one key column. Keys keep the order in
// which they were first seen.
type Groups struct {
	keys []string
	rows map[string][]dataset.Row
}

// GroupBy partitions rows by the raw value of key. Missing values group
// under "".
func GroupBy(rows []dataset.Row, key string) *Groups {
	g := &Groups{rows: make(map[string][]dataset.Row)}
	for _, r := range rows {
		k := r.Value(key)
		if _, exists := g.rows[k]; !exists {
			g.keys = append(g.keys, k)
		}
		g.rows[k] = append(g.rows[k], r)
	}
	return g
}

// Keys returns group keys in discovery order.
func (g *Groups) Keys() []string { return g.keys }

// Rows returns the rows of one group in source order.
func (g *Groups) Rows(key string) []dataset.Row { return g.rows[key] }

// Len returns the number of groups.
func (g *Groups) Len() int { return len(g.keys) }

// Aggregate reduces column over rows. The bool is false when there is no
// result: no coercible numbers for sum/avg/median, or an unknown fn.
// Count ignores column content.
func Aggregate(rows []dataset.Row, column string, fn Aggregation) (float64, bool) {
	if fn == AggCount {
		return float64(len(rows)), true
	}
	switch fn {
	case AggSum, AggAvg, AggMedian:
	default:
		return 0, false
	}
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if x, ok := dataset.TryParseNumber(r.Value(column)); ok {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sample := stats.Sample{Xs: vals}
	switch fn {
	case AggSum:
		return sample.Sum(), true
	case AggAvg:
		return sample.Mean(), true
	default:
		// R8 at q=0.5: the middle value, or the mean of the middle two.
		return sample.Quantile(0.5), true
	}
}
