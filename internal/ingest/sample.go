package ingest

import (
	"strings"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

// SampleCSV is the built-in demo dataset.
const SampleCSV = `date,product,region,sales
2025-01-01,A,North,120
2025-01-02,A,South,90
2025-01-03,B,North,150
2025-01-04,B,South,80
2025-01-05,A,West,130
2025-01-06,C,North,60
2025-01-07,C,West,95
2025-01-08,B,South,110
`

// Sample returns a fresh copy of the demo dataset.
func Sample() *dataset.Dataset {
	ds, err := readDelimited(strings.NewReader(SampleCSV), ',')
	if err != nil {
		panic("ingest: bad sample csv: " + err.Error())
	}
	return ds
}
