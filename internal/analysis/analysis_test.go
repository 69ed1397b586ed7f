package analysis

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

func rowsOf(col string, vals ...string) []dataset.Row {
	out := make([]dataset.Row, len(vals))
	for i, v := range vals {
		out[i] = dataset.Row{col: v}
	}
	return out
}

func salesDataset() *dataset.Dataset {
	return dataset.FromRecords(
		[]string{"date", "product", "region", "sales"},
		[][]string{
			{"2025-01-01", "A", "North", "120"},
			{"2025-01-02", "A", "South", "90"},
			{"2025-01-03", "B", "North", "150"},
			{"2025-01-04", "B", "South", "80"},
			{"2025-01-05", "A", "West", "130"},
			{"2025-01-06", "C", "North", "60"},
			{"2025-01-07", "C", "West", "95"},
			{"2025-01-08", "B", "South", "110"},
		},
	)
}

func TestInferSalesColumns(t *testing.T) {
	got := Infer(salesDataset())
	want := []ColumnMeta{
		{Name: "date", Kind: KindDate},
		{Name: "product", Kind: KindString},
		{Name: "region", Kind: KindString},
		{Name: "sales", Kind: KindNumber},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Infer = %v, want %v", got, want)
	}
}

func TestInferThresholds(t *testing.T) {
	cases := []struct {
		name string
		vals []string
		want Kind
	}{
		{"all numbers", []string{"1", "2", "3", "4", "5"}, KindNumber},
		{"just over sixty percent", []string{"1", "2", "3", "4", "x", "y"}, KindNumber},
		{"exactly sixty percent", []string{"1", "2", "3", "x", "y"}, KindString},
		{"mostly blank", []string{"1", "2", "", "", ""}, KindString},
		{"dates with blanks", []string{"2025-01-01", "2025-02-01", "2025-03-01", "2025-04-01", ""}, KindDate},
		{"mixed numbers and dates", []string{"1", "2", "2025-01-01", "2025-01-02", "x"}, KindString},
		{"empty column", []string{"", ""}, KindString},
	}
	for _, c := range cases {
		ds := dataset.New([]string{"v"}, rowsOf("v", c.vals...))
		got := Infer(ds)
		if len(got) != 1 || got[0].Kind != c.want {
			t.Errorf("%s: kind = %v, want %s", c.name, got, c.want)
		}
	}
}

func TestInferPrefersDateOverNumber(t *testing.T) {
	// Values that pass both tallies are classified as dates.
	old := isDate
	defer func() { isDate = old }()
	isDate = func(v string) bool { return len(v) == 4 && isNumber(v) }
	ds := dataset.New([]string{"year"}, rowsOf("year", "2019", "2020", "2021", "2022"))
	if got := Infer(ds)[0].Kind; got != KindDate {
		t.Fatalf("kind = %s, want date", got)
	}
}

func TestInferSamplesLeadingRowsOnly(t *testing.T) {
	var rows []dataset.Row
	for i := 0; i < SampleLimit; i++ {
		rows = append(rows, dataset.Row{"v": fmt.Sprint(i)})
	}
	for i := 0; i < 5000; i++ {
		rows = append(rows, dataset.Row{"v": "text"})
	}
	ds := dataset.New([]string{"v"}, rows)
	if got := Infer(ds)[0].Kind; got != KindNumber {
		t.Fatalf("kind = %s, want number from the sampled head", got)
	}
	if got := InferSample(ds, SampleLimit+5000)[0].Kind; got != KindString {
		t.Fatalf("full scan kind = %s, want string", got)
	}
}

func TestInferEmpty(t *testing.T) {
	if got := Infer(dataset.New(nil, nil)); len(got) != 0 {
		t.Fatalf("expected no columns, got %v", got)
	}
	if got := Infer(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestAggregateMedian(t *testing.T) {
	if got, ok := Aggregate(rowsOf("v", "40", "10", "30", "20"), "v", AggMedian); !ok || got != 25 {
		t.Fatalf("median even = %v, %v; want 25", got, ok)
	}
	if got, ok := Aggregate(rowsOf("v", "30", "10", "20"), "v", AggMedian); !ok || got != 20 {
		t.Fatalf("median odd = %v, %v; want 20", got, ok)
	}
}

func TestAggregateFunctions(t *testing.T) {
	rows := rowsOf("v", "10", "x", "", "20", "60")
	cases := []struct {
		fn   Aggregation
		want float64
		ok   bool
	}{
		{AggSum, 90, true},
		{AggAvg, 30, true},
		{AggMedian, 20, true},
		{AggCount, 5, true},
		{AggNone, 0, false},
		{Aggregation("max"), 0, false},
	}
	for _, c := range cases {
		got, ok := Aggregate(rows, "v", c.fn)
		if ok != c.ok || got != c.want {
			t.Errorf("Aggregate(%s) = %v, %v; want %v, %v", c.fn, got, ok, c.want, c.ok)
		}
	}
}

func TestAggregateNoNumericValues(t *testing.T) {
	rows := rowsOf("v", "a", "b", "")
	for _, fn := range []Aggregation{AggSum, AggAvg, AggMedian} {
		if got, ok := Aggregate(rows, "v", fn); ok {
			t.Errorf("%s over non-numeric = %v, expected no result", fn, got)
		}
	}
	if got, ok := Aggregate(rows, "v", AggCount); !ok || got != 3 {
		t.Fatalf("count = %v, %v; want 3", got, ok)
	}
	if _, ok := Aggregate(nil, "v", AggSum); ok {
		t.Fatalf("sum over empty group should have no result")
	}
}

func TestGroupByKeepsDiscoveryOrder(t *testing.T) {
	ds := salesDataset()
	g := GroupBy(ds.Rows, "region")
	if want := []string{"North", "South", "West"}; !reflect.DeepEqual(g.Keys(), want) {
		t.Fatalf("keys = %v, want %v", g.Keys(), want)
	}
	if n := len(g.Rows("South")); n != 3 {
		t.Fatalf("South rows = %d, want 3", n)
	}
	if avg, _ := Aggregate(g.Rows("North"), "sales", AggAvg); avg != 110 {
		t.Fatalf("North avg = %v, want 110", avg)
	}
	missing := GroupBy([]dataset.Row{{"k": ""}, {}}, "k")
	if missing.Len() != 1 || len(missing.Rows("")) != 2 {
		t.Fatalf("missing keys should share one group: %v", missing.Keys())
	}
}

func TestParseAggregation(t *testing.T) {
	if a, err := ParseAggregation(""); err != nil || a != AggNone {
		t.Fatalf("empty = %v, %v", a, err)
	}
	if a, err := ParseAggregation(" AVG "); err != nil || a != AggAvg {
		t.Fatalf("AVG = %v, %v", a, err)
	}
	if _, err := ParseAggregation("mode"); err == nil {
		t.Fatalf("expected error for unknown aggregation")
	}
}

func TestSummarizeMarkdown(t *testing.T) {
	rep := Summarize("sales.csv", salesDataset(), DefaultSummaryOptions())
	if rep.Rows != 8 || len(rep.Cols) != 4 {
		t.Fatalf("unexpected report shape: rows=%d cols=%d", rep.Rows, len(rep.Cols))
	}
	sales := rep.Cols[3]
	if sales.Kind != KindNumber || sales.Min != 60 || sales.Max != 150 || math.Abs(sales.Mean-104.375) > 1e-9 {
		t.Fatalf("unexpected sales summary %+v", sales)
	}
	region := rep.Cols[2]
	if region.Unique != 3 || len(region.TopValues) == 0 || region.TopValues[0].Value != "North" {
		t.Fatalf("unexpected region summary %+v", region)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "Source: sales.csv", "Rows: 8",
		"[SCHEMA]", "- date: date", "- sales: number", "- region: string",
		"[HEAD AND SAMPLE ROWS]", "| date | product | region | sales |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "[NOTES]") {
		t.Fatalf("small dataset should not carry notes:\n%s", md)
	}
}

func TestAggregateMedianSmallGroups(t *testing.T) {
	cases := []struct {
		vals []string
		want float64
	}{
		{[]string{"5"}, 5},
		{[]string{"2", "1"}, 1.5},
		{[]string{"9", "1", "5", "3", "7"}, 5},
		{[]string{"6", "1", "4", "2", "5", "3"}, 3.5},
	}
	for _, c := range cases {
		if got, ok := Aggregate(rowsOf("v", c.vals...), "v", AggMedian); !ok || got != c.want {
			t.Errorf("median(%v) = %v, %v; want %v", c.vals, got, ok, c.want)
		}
	}
}

func TestSummarizeNumericStats(t *testing.T) {
	ds := dataset.New([]string{"v"}, rowsOf("v", "2", "4", "4", "4", "5", "5", "7", "9", ""))
	c := Summarize("v.csv", ds, DefaultSummaryOptions()).Cols[0]
	if c.Numeric != 8 || c.Missing != 1 || c.Min != 2 || c.Max != 9 {
		t.Fatalf("unexpected summary %+v", c)
	}
	if math.Abs(c.Mean-5) > 1e-9 || math.Abs(c.Std-math.Sqrt(32.0/7)) > 1e-9 {
		t.Fatalf("mean/std = %v/%v", c.Mean, c.Std)
	}

	one := Summarize("one", dataset.New([]string{"v"}, rowsOf("v", "3")), DefaultSummaryOptions()).Cols[0]
	if one.Std != 0 || one.Min != 3 || one.Max != 3 {
		t.Fatalf("single value summary %+v", one)
	}
	none := Summarize("none", dataset.New([]string{"v"}, rowsOf("v", "a")), DefaultSummaryOptions()).Cols[0]
	if none.Numeric != 0 || none.Min != 0 || none.Max != 0 {
		t.Fatalf("non-numeric column should have zero stats %+v", none)
	}
}
