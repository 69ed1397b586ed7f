package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/aclements/go-moremath/stats"
)

// SummaryOptions controls dataset summaries.
type SummaryOptions struct {
	// SampleRows is how many leading rows go into the report; 0 means 5.
	SampleRows int
	// InferRows bounds type inference; 0 means SampleLimit.
	InferRows int
	// TopValues caps the categorical top list; 0 means 8.
	TopValues int
}

// DefaultSummaryOptions returns reasonable defaults for dataset summaries.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{SampleRows: 5, InferRows: SampleLimit, TopValues: 8}
}

// Report is a markdown-friendly description of a loaded dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric stats over every coercible value
	Numeric int
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
	// String top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Summarize builds a Report for ds. Kinds come from InferSample so the
// summary agrees with chart suggestions.
func Summarize(name string, ds *dataset.Dataset, opt SummaryOptions) *Report {
	rep := &Report{Name: name, Rows: ds.Len()}
	if ds == nil || len(ds.Columns) == 0 {
		return rep
	}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	topN := opt.TopValues
	if topN <= 0 {
		topN = 8
	}
	meta := InferSample(ds, opt.InferRows)
	for i, col := range ds.Columns {
		s := ColumnSummary{Name: col, Kind: meta[i].Kind}
		cats := make(map[string]int)
		var nums []float64
		for _, r := range ds.Rows {
			v := r.Value(col)
			if v == "" {
				s.Missing++
				continue
			}
			s.NonNull++
			if len(cats) <= 10000 {
				cats[v]++
			}
			if x, ok := dataset.TryParseNumber(v); ok {
				nums = append(nums, x)
			}
		}
		if s.Numeric = len(nums); s.Numeric > 0 {
			sample := stats.Sample{Xs: nums}
			s.Min, s.Max = sample.Bounds()
			s.Mean = sample.Mean()
			s.Std = sample.StdDev()
		}
		s.Unique = len(cats)
		if s.Kind == KindString && len(cats) > 0 {
			tops := make([]CategoryCount, 0, len(cats))
			for k, v := range cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > topN {
				tops = tops[:topN]
			}
			s.TopValues = tops
		}
		rep.Cols = append(rep.Cols, s)
	}
	for i := 0; i < ds.Len() && i < sampleRows; i++ {
		row := make([]string, len(ds.Columns))
		for j, c := range ds.Columns {
			row[j] = ds.Rows[i].Value(c)
		}
		rep.Samples = append(rep.Samples, row)
	}
	limit := opt.InferRows
	if limit <= 0 {
		limit = SampleLimit
	}
	if ds.Len() > limit {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("column kinds inferred from the first %d/%d rows", limit, ds.Len()))
	}
	return rep
}

// Markdown renders a compact report for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumber:
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case KindString:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
