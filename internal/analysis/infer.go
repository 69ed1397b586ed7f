package analysis

import "github.com/KaramelBytes/chartloom/internal/dataset"

// Kind is the inferred semantic type of a column.
type Kind string

const (
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindString Kind = "string"
)

// SampleLimit bounds how many leading rows inference looks at.
const SampleLimit = 1000

// majority is the fraction of sampled values that must agree on a kind.
const majority = 0.6

var (
	isNumber = func(v string) bool {
		_, ok := dataset.TryParseNumber(v)
		return ok
	}
	isDate = dataset.LooksLikeDate
)

// ColumnMeta is a column name plus its inferred kind.
type ColumnMeta struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// Infer classifies every column of ds from the first SampleLimit rows.
func Infer(ds *dataset.Dataset) []ColumnMeta {
	return InferSample(ds, SampleLimit)
}

// InferSample classifies columns from at most limit leading rows. A
// non-positive limit falls back to SampleLimit.
//
// Empty values count toward the total only, so a mostly blank column is a
// string column. Date wins over number when both pass the vote.
func InferSample(ds *dataset.Dataset, limit int) []ColumnMeta {
	if ds == nil {
		return nil
	}
	if limit <= 0 {
		limit = SampleLimit
	}
	take := ds.Len()
	if take > limit {
		take = limit
	}
	type tally struct {
		total, empty, numeric, date int
	}
	counts := make([]tally, len(ds.Columns))
	for i := 0; i < take; i++ {
		r := ds.Rows[i]
		for j, col := range ds.Columns {
			c := &counts[j]
			c.total++
			v := r.Value(col)
			if v == "" {
				c.empty++
				continue
			}
			if isNumber(v) {
				c.numeric++
			}
			if isDate(v) {
				c.date++
			}
		}
	}
	out := make([]ColumnMeta, len(ds.Columns))
	for j, col := range ds.Columns {
		c := counts[j]
		threshold := majority * float64(c.total)
		kind := KindString
		switch {
		case float64(c.date) > threshold:
			kind = KindDate
		case float64(c.numeric) > threshold:
			kind = KindNumber
		}
		out[j] = ColumnMeta{Name: col, Kind: kind}
	}
	return out
}

// KindOf returns the kind recorded for name in meta.
func KindOf(meta []ColumnMeta, name string) (Kind, bool) {
	for _, m := range meta {
		if m.Name == name {
			return m.Kind, true
		}
	}
	return "", false
}
