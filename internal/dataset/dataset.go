package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Row maps a column name to its raw cell text. A key that is absent and a
// key holding "" are both treated as a missing value.
type Row map[string]string

// Get returns the raw value for col and whether the key is present at all.
func (r Row) Get(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// Value returns the raw value for col, or "" when the key is absent.
func (r Row) Value(col string) string { return r[col] }

// Missing reports whether the cell for col is absent or empty.
func (r Row) Missing(col string) bool { return r[col] == "" }

// Dataset is an ordered sequence of rows sharing one column set.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New builds a dataset. When columns is empty the column list is derived
// from the first row; map iteration has no order, so the keys are sorted.
func New(columns []string, rows []Row) *Dataset {
	if len(columns) == 0 && len(rows) > 0 {
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the raw values of one column in row order.
func (d *Dataset) Column(name string) []string {
	out := make([]string, d.Len())
	for i, r := range d.Rows {
		out[i] = r.Value(name)
	}
	return out
}

// FromRecords converts a header plus string records (CSV style) into a
// dataset. Short records are padded with missing values; blank header
// cells are named "column_N". Invalid UTF-8 (a Latin-1 file, say) is
// replaced with U+FFFD so the rows survive a JSON round trip unchanged.
func FromRecords(header []string, records [][]string) *Dataset {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(validText(h))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		cols[i] = name
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		r := make(Row, len(cols))
		for j, c := range cols {
			if j < len(rec) {
				r[c] = validText(rec[j])
			} else {
				r[c] = ""
			}
		}
		rows = append(rows, r)
	}
	return &Dataset{Columns: cols, Rows: rows}
}

func validText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

// ValidUTF8 reports whether every column name, key and value is valid
// UTF-8. JSON encoding rewrites invalid bytes, so only valid datasets
// round-trip exactly.
func (d *Dataset) ValidUTF8() bool {
	if d == nil {
		return true
	}
	for _, c := range d.Columns {
		if !utf8.ValidString(c) {
			return false
		}
	}
	for _, r := range d.Rows {
		for k, v := range r {
			if !utf8.ValidString(k) || !utf8.ValidString(v) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON writes the rows as an array of objects with keys in column
// order. Keys a row carries beyond the column list follow in sorted order.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, r := range d.Rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		first := true
		write := func(k, v string) error {
			if !first {
				b.WriteByte(',')
			}
			first = false
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			vb, err := json.Marshal(v)
			if err != nil {
				return err
			}
			b.Write(kb)
			b.WriteByte(':')
			b.Write(vb)
			return nil
		}
		known := make(map[string]bool, len(d.Columns))
		for _, c := range d.Columns {
			known[c] = true
			if v, ok := r[c]; ok {
				if err := write(c, v); err != nil {
					return nil, err
				}
			}
		}
		var extra []string
		for k := range r {
			if !known[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			if err := write(k, r[k]); err != nil {
				return nil, err
			}
		}
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// ErrNotArray is returned when decoding JSON that is not an array of rows.
var ErrNotArray = errors.New("dataset: rows must be a JSON array")

// UnmarshalJSON reads an array of row objects. Cell values may be strings,
// numbers, booleans or null (null is stored as absent). The column list is
// the first object's keys in document order.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return ErrNotArray
	}
	var cols []string
	var rows []Row
	for dec.More() {
		row, keys, err := readRow(dec)
		if err != nil {
			return fmt.Errorf("dataset: row %d: %w", len(rows)+1, err)
		}
		if len(rows) == 0 {
			cols = keys
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	d.Columns = cols
	d.Rows = rows
	return nil
}

func readRow(dec *json.Decoder) (Row, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	row := Row{}
	var keys []string
	seen := map[string]bool{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		val, present, err := cellText(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", key, err)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		if present {
			row[key] = val
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return row, keys, nil
}

func cellText(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", false, err
		}
		if b {
			return "true", true, nil
		}
		return "false", true, nil
	case '{', '[':
		return "", false, fmt.Errorf("nested values are not supported")
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false, err
		}
		return n.String(), true, nil
	}
}
