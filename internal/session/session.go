// Package session holds the current dataset and chart configuration and
// dispatches user commands into the pure analysis, suggestion, planning and
// sharing code.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/KaramelBytes/chartloom/internal/suggest"
	"github.com/google/uuid"
)

// Session is one user's working state. It is not safe for concurrent use.
type Session struct {
	ID string

	codec      *share.Codec
	logger     *slog.Logger
	sampleRows int

	ds          *dataset.Dataset
	cfg         chart.Config
	meta        []analysis.ColumnMeta
	suggestions []suggest.Suggestion
	token       string
}

// Option configures a Session.
type Option func(*Session)

// WithCodec sets the share codec.
func WithCodec(c *share.Codec) Option {
	return func(s *Session) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithLogger sets the base logger; the session adds its id.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSampleRows bounds type inference.
func WithSampleRows(n int) Option {
	return func(s *Session) { s.sampleRows = n }
}

// WithDefaults sets the configuration of the empty session.
func WithDefaults(cfg chart.Config) Option {
	return func(s *Session) { s.cfg = cfg.Clone() }
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		codec:      share.NewCodec(),
		logger:     slog.Default(),
		sampleRows: analysis.SampleLimit,
		ds:         dataset.New(nil, nil),
		cfg:        chart.DefaultConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("session_id", s.ID)
	return s
}

// LoadDataset replaces the dataset. The x column resets to the first
// column and y is cleared; the first suggestion, if any, is then applied
// and a share token published. Token overflow is logged, not returned.
func (s *Session) LoadDataset(ds *dataset.Dataset) {
	s.load(ds)
	_, _ = s.RequestShare()
}

// load replaces the dataset and derived state without publishing.
func (s *Session) load(ds *dataset.Dataset) {
	if ds == nil {
		ds = dataset.New(nil, nil)
	}
	s.ds = ds
	s.meta = analysis.InferSample(ds, s.sampleRows)
	s.suggestions = suggest.Suggest(s.meta)
	s.cfg.X = ""
	if len(ds.Columns) > 0 {
		s.cfg.X = ds.Columns[0]
	}
	s.cfg.Y = nil
	if len(s.suggestions) > 0 {
		s.cfg = s.suggestions[0].Config()
	}
	s.logger.Debug("dataset loaded",
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"suggestions", len(s.suggestions),
	)
}

// ChangeConfig validates cfg against the current dataset and applies it.
func (s *Session) ChangeConfig(cfg chart.Config) error {
	if cfg.Kind == "" {
		cfg.Kind = chart.KindAuto
	}
	if cfg.Aggregation == "" {
		cfg.Aggregation = analysis.AggNone
	}
	if err := cfg.ValidateFor(s.ds); err != nil {
		return err
	}
	s.cfg = cfg.Clone()
	_, _ = s.RequestShare()
	return nil
}

// RequestShare encodes the current state. On failure the previously
// published token is kept and the error returned.
func (s *Session) RequestShare() (string, error) {
	tok, err := s.codec.Encode(s.ds, s.cfg)
	if err != nil {
		if errors.Is(err, share.ErrTokenTooLarge) {
			s.logger.Warn("share token too large; keeping previous link", "rows", s.ds.Len(), "max_chars", s.codec.MaxTokenChars())
		} else {
			s.logger.Error("share token encode failed", "error", err)
		}
		return s.token, err
	}
	s.token = tok
	s.logger.Debug("share token published", "chars", len(tok))
	return tok, nil
}

// RestoreFromToken replaces the session state with the one in token. On
// failure the session is left untouched.
func (s *Session) RestoreFromToken(token string) error {
	st, err := s.codec.Decode(token)
	if err != nil {
		s.logger.Warn("nothing to restore", "error", err)
		return fmt.Errorf("restore: %w", err)
	}
	s.load(st.Dataset)

	cfg := s.cfg.Clone()
	if k, err := chart.ParseKind(st.Settings.Type); err == nil {
		cfg.Kind = k
	} else {
		cfg.Kind = chart.KindAuto
	}
	if st.Settings.X != "" && st.Dataset.HasColumn(st.Settings.X) {
		cfg.X = st.Settings.X
	}
	cfg.Y = nil
	seen := map[string]bool{}
	for _, y := range st.Settings.Y {
		if st.Dataset.HasColumn(y) && !seen[y] {
			seen[y] = true
			cfg.Y = append(cfg.Y, y)
		}
	}
	if a, err := analysis.ParseAggregation(st.Settings.Agg); err == nil {
		cfg.Aggregation = a
	} else {
		cfg.Aggregation = analysis.AggNone
	}
	s.cfg = cfg
	_, _ = s.RequestShare()
	s.logger.Info("state restored", "rows", st.Dataset.Len(), "chart_kind", cfg.Kind)
	return nil
}

// Plan builds the chart plan for the current state.
func (s *Session) Plan() chart.Plan {
	return chart.BuildPlan(s.ds, s.cfg, s.meta)
}

// Columns returns the inferred column metadata.
func (s *Session) Columns() []analysis.ColumnMeta { return s.meta }

// Suggestions returns the suggestions for the current dataset.
func (s *Session) Suggestions() []suggest.Suggestion { return s.suggestions }

// Config returns a copy of the current configuration.
func (s *Session) Config() chart.Config { return s.cfg.Clone() }

// Dataset returns the current dataset.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Token returns the last published share token, or "".
func (s *Session) Token() string { return s.token }
