// Package share encodes a dataset and chart configuration into a compact
// token that is safe to place in a URL fragment, and decodes it back.
package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/klauspost/compress/flate"
)

const (
	// MaxTokenChars is the default token length bound. Tokens at or above
	// it are not produced.
	MaxTokenChars = 150000
	// MaxPayloadBytes bounds the decompressed payload when decoding.
	MaxPayloadBytes = 64 << 20
)

var (
	// ErrTokenTooLarge means the encoded state does not fit the bound.
	ErrTokenTooLarge = errors.New("share: token exceeds size limit")
	// ErrInvalidToken means the token could not be decoded.
	ErrInvalidToken = errors.New("share: invalid token")
	// ErrInvalidText means the dataset holds invalid UTF-8, which JSON
	// would silently rewrite.
	ErrInvalidText = errors.New("share: dataset contains invalid UTF-8")
	// ErrNoDataset means the token decoded but carries no row array.
	ErrNoDataset = errors.New("share: token has no dataset")
)

// Settings is the wire form of a chart configuration.
type Settings struct {
	Type string   `json:"type"`
	X    string   `json:"x"`
	Y    []string `json:"y"`
	Agg  string   `json:"agg"`
}

// SettingsFrom converts a chart configuration to its wire form.
func SettingsFrom(cfg chart.Config) Settings {
	y := cfg.Y
	if y == nil {
		y = []string{}
	}
	return Settings{Type: string(cfg.Kind), X: cfg.X, Y: y, Agg: string(cfg.Aggregation)}
}

// State is a decoded token.
type State struct {
	Dataset  *dataset.Dataset
	Settings Settings
}

type payload struct {
	Rows     *dataset.Dataset `json:"rows"`
	Settings Settings         `json:"settings"`
}

// Codec encodes and decodes share tokens. The zero value is not usable;
// call NewCodec.
type Codec struct {
	maxTokenChars   int
	maxPayloadBytes int64
	level           int
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxTokenChars overrides the token length bound.
func WithMaxTokenChars(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxTokenChars = n
		}
	}
}

// WithMaxPayloadBytes overrides the decompressed payload bound.
func WithMaxPayloadBytes(n int64) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxPayloadBytes = n
		}
	}
}

// NewCodec returns a codec with default bounds and best compression.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		maxTokenChars:   MaxTokenChars,
		maxPayloadBytes: MaxPayloadBytes,
		level:           flate.BestCompression,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// MaxTokenChars returns the configured token bound.
func (c *Codec) MaxTokenChars() int { return c.maxTokenChars }

// Encode serializes ds and cfg into a token. It returns ErrTokenTooLarge,
// and no token, when the result would reach the bound, and ErrInvalidText
// when a cell is not valid UTF-8.
func (c *Codec) Encode(ds *dataset.Dataset, cfg chart.Config) (string, error) {
	if ds == nil {
		ds = dataset.New(nil, nil)
	}
	if !ds.ValidUTF8() {
		return "", ErrInvalidText
	}
	raw, err := json.Marshal(payload{Rows: ds, Settings: SettingsFrom(cfg)})
	if err != nil {
		return "", fmt.Errorf("share: marshal state: %w", err)
	}
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, c.level)
	if err != nil {
		return "", fmt.Errorf("share: compressor: %w", err)
	}
	if _, err := fw.Write(raw); err != nil {
		return "", fmt.Errorf("share: compress: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("share: compress: %w", err)
	}
	if base64.RawURLEncoding.EncodedLen(buf.Len()) >= c.maxTokenChars {
		return "", fmt.Errorf("%w: %d >= %d chars", ErrTokenTooLarge, base64.RawURLEncoding.EncodedLen(buf.Len()), c.maxTokenChars)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Every failure is reported as an error wrapping
// ErrInvalidToken or ErrNoDataset; no partial state is returned.
func (c *Codec) Decode(token string) (st *State, err error) {
	defer func() {
		if r := recover(); r != nil {
			st, err = nil, fmt.Errorf("%w: %v", ErrInvalidToken, r)
		}
	}()
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	compressed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	raw, err := io.ReadAll(io.LimitReader(fr, c.maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if int64(len(raw)) > c.maxPayloadBytes {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidToken, c.maxPayloadBytes)
	}
	var probe struct {
		Rows     json.RawMessage `json:"rows"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	rows := bytes.TrimSpace(probe.Rows)
	if len(rows) == 0 || rows[0] != '[' {
		return nil, ErrNoDataset
	}
	ds := &dataset.Dataset{}
	if err := json.Unmarshal(rows, ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var settings Settings
	if s := bytes.TrimSpace(probe.Settings); len(s) > 0 && !bytes.Equal(s, []byte("null")) {
		if err := json.Unmarshal(s, &settings); err != nil {
			return nil, fmt.Errorf("%w: settings: %v", ErrInvalidToken, err)
		}
	}
	return &State{Dataset: ds, Settings: settings}, nil
}
