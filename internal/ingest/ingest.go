package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

// Reader decodes one tabular format into a dataset.
type Reader interface {
	CanRead(filename string) bool
	Read(name string, content []byte) (*dataset.Dataset, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported data format")

// ReadFile selects a reader based on the file name and decodes the file.
func ReadFile(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Decode(filepath.Base(path), data)
}

// Decode picks a reader for name and decodes content with it.
func Decode(name string, content []byte) (*dataset.Dataset, error) {
	for _, r := range registry {
		if r.CanRead(name) {
			return r.Read(name, content)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
}

// Options configures Load.
type Options struct {
	Fetcher *Fetcher
	Stdin   io.Reader
}

// Load reads a dataset from a source string: an http(s) URL, "-" for
// pasted CSV on stdin, or a file path.
func Load(ctx context.Context, src string, opt Options) (*dataset.Dataset, error) {
	switch {
	case src == "-":
		in := opt.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return ParseCSVText(data)
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		f := opt.Fetcher
		if f == nil {
			f = NewFetcher(0, 0, 0, 0)
		}
		return f.Load(ctx, src)
	default:
		return ReadFile(src)
	}
}

// ParseCSVText decodes pasted delimited text, sniffing the delimiter from
// the header line.
func ParseCSVText(data []byte) (*dataset.Dataset, error) {
	return readDelimited(bytes.NewReader(data), sniffDelimiter("", data))
}
