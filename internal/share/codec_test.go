package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/klauspost/compress/flate"
)

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

func TestRoundTrip(t *testing.T) {
	ds := salesDataset()
	cfg := chart.Config{Kind: chart.KindBar, X: "region", Y: []string{"sales"}, Aggregation: analysis.AggAvg}
	c := NewCodec()
	tok, err := c.Encode(ds, cfg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, r := range tok {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			t.Fatalf("token has fragment-unsafe rune %q", r)
		}
	}
	st, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(st.Dataset.Columns, ds.Columns) {
		t.Fatalf("columns = %v, want %v", st.Dataset.Columns, ds.Columns)
	}
	if !reflect.DeepEqual(st.Dataset.Rows, ds.Rows) {
		t.Fatalf("rows differ after round trip")
	}
	want := Settings{Type: "bar", X: "region", Y: []string{"sales"}, Agg: "avg"}
	if !reflect.DeepEqual(st.Settings, want) {
		t.Fatalf("settings = %+v, want %+v", st.Settings, want)
	}
}

func TestPayloadShape(t *testing.T) {
	tok, err := NewCodec().Encode(salesDataset(), chart.Config{Kind: chart.KindLine, X: "date", Aggregation: analysis.AggNone})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	compressed, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	var raw bytes.Buffer
	if _, err := raw.ReadFrom(flate.NewReader(bytes.NewReader(compressed))); err != nil {
		t.Fatalf("inflate: %v", err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(raw.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.HasPrefix(string(got["rows"]), `[{"date":"2025-01-01","product":"A","region":"North","sales":"120"}`) {
		t.Fatalf("unexpected rows %s", got["rows"])
	}
	if string(got["settings"]) != `{"type":"line","x":"date","y":[],"agg":"none"}` {
		t.Fatalf("unexpected settings %s", got["settings"])
	}
}

func randomDataset(n int) *dataset.Dataset {
	rng := rand.New(rand.NewSource(1))
	records := make([][]string, n)
	for i := range records {
		records[i] = []string{fmt.Sprintf("%x", rng.Int63()), fmt.Sprintf("%x", rng.Int63())}
	}
	return dataset.FromRecords([]string{"a", "b"}, records)
}

func TestEncodeTooLarge(t *testing.T) {
	c := NewCodec()
	tok, err := c.Encode(randomDataset(20000), chart.DefaultConfig())
	if !errors.Is(err, ErrTokenTooLarge) {
		t.Fatalf("expected ErrTokenTooLarge, got %v (len %d)", err, len(tok))
	}
	if tok != "" {
		t.Fatalf("no token should be produced on overflow")
	}
}

func TestEncodeBoundIsExclusive(t *testing.T) {
	ds := salesDataset()
	tok, err := NewCodec().Encode(ds, chart.DefaultConfig())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := NewCodec(WithMaxTokenChars(len(tok))).Encode(ds, chart.DefaultConfig()); !errors.Is(err, ErrTokenTooLarge) {
		t.Fatalf("token length equal to the bound must be rejected, got %v", err)
	}
	if _, err := NewCodec(WithMaxTokenChars(len(tok) + 1)).Encode(ds, chart.DefaultConfig()); err != nil {
		t.Fatalf("token below the bound must succeed: %v", err)
	}
}

func deflateToken(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if _, err := fw.Write([]byte(s)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeFailures(t *testing.T) {
	c := NewCodec()
	invalid := []string{
		"",
		"not a token!",
		"aGVsbG8gd29ybGQ",
		strings.Repeat("A", 64),
		deflateToken(t, "{not json"),
		deflateToken(t, `{"rows":[{"a":{"nested":1}}]}`),
	}
	for _, tok := range invalid {
		if st, err := c.Decode(tok); !errors.Is(err, ErrInvalidToken) || st != nil {
			t.Errorf("Decode(%q) = %v, %v; want ErrInvalidToken", tok, st, err)
		}
	}
	noData := []string{
		deflateToken(t, `{"settings":{"type":"bar"}}`),
		deflateToken(t, `{"rows":true}`),
		deflateToken(t, `{"rows":{"a":"1"}}`),
		deflateToken(t, `{"rows":null}`),
	}
	for _, tok := range noData {
		if st, err := c.Decode(tok); !errors.Is(err, ErrNoDataset) || st != nil {
			t.Errorf("Decode = %v, %v; want ErrNoDataset", st, err)
		}
	}
}

func TestDecodePayloadLimit(t *testing.T) {
	tok := deflateToken(t, `{"rows":[{"a":"`+strings.Repeat("x", 4096)+`"}]}`)
	if _, err := NewCodec(WithMaxPayloadBytes(1024)).Decode(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected payload limit error, got %v", err)
	}
	if _, err := NewCodec().Decode(tok); err != nil {
		t.Fatalf("default limit should accept: %v", err)
	}
}

func TestDecodeMissingSettings(t *testing.T) {
	st, err := NewCodec().Decode(deflateToken(t, `{"rows":[{"a":"1"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(st.Settings, Settings{}) || st.Dataset.Len() != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestURLHelpers(t *testing.T) {
	u := ShareURL("https://example.com/app#old", "abc_-1")
	if u != "https://example.com/app#abc_-1" {
		t.Fatalf("ShareURL = %q", u)
	}
	for _, in := range []string{u, "#abc_-1", " abc_-1 "} {
		if got := TokenFromURL(in); got != "abc_-1" {
			t.Errorf("TokenFromURL(%q) = %q", in, got)
		}
	}
	snippet := EmbedSnippet("https://example.com/app#abc")
	if snippet != `<iframe src="https://example.com/app#abc" style="width:100%;min-height:460px;border:0;border-radius:16px"></iframe>` {
		t.Fatalf("EmbedSnippet = %q", snippet)
	}
}

func TestRoundTripLatin1Cells(t *testing.T) {
	ds := dataset.FromRecords([]string{"city", "n"}, [][]string{{"M\xfcnchen", "1"}, {"Z\xfcrich", "2"}})
	c := NewCodec()
	tok, err := c.Encode(ds, chart.Config{Kind: chart.KindBar, X: "city", Y: []string{"n"}, Aggregation: analysis.AggSum})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	st, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(st.Dataset.Rows, ds.Rows) {
		t.Fatalf("rows = %q, want %q", st.Dataset.Rows, ds.Rows)
	}
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	ds := dataset.New([]string{"city"}, []dataset.Row{{"city": "M\xfcnchen"}})
	if _, err := NewCodec().Encode(ds, chart.DefaultConfig()); !errors.Is(err, ErrInvalidText) {
		t.Fatalf("expected ErrInvalidText, got %v", err)
	}
}
