package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/go-playground/validator/v10"
)

// Kind is a chart type. KindAuto is resolved at plan time.
type Kind string

const (
	KindAuto    Kind = "auto"
	KindLine    Kind = "line"
	KindBar     Kind = "bar"
	KindScatter Kind = "scatter"
	KindPie     Kind = "pie"
)

// Kinds lists every accepted chart kind.
var Kinds = []Kind{KindAuto, KindLine, KindBar, KindScatter, KindPie}

// ParseKind accepts a kind name case-insensitively. Empty means auto.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindAuto, nil
	}
	for _, v := range Kinds {
		if v == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported chart kind: %s (use auto|line|bar|scatter|pie)", s)
}

// Config is the user-driven chart configuration.
type Config struct {
	Kind        Kind                 `json:"chartKind" yaml:"chart_kind" validate:"required,oneof=auto line bar scatter pie"`
	X           string               `json:"x" yaml:"x"`
	Y           []string             `json:"y" yaml:"y" validate:"dive,required"`
	Aggregation analysis.Aggregation `json:"aggregation" yaml:"aggregation" validate:"required,oneof=none sum avg median count"`
}

// DefaultConfig is the configuration of a fresh session.
func DefaultConfig() Config {
	return Config{Kind: KindAuto, Aggregation: analysis.AggNone}
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	c.Y = append([]string(nil), c.Y...)
	return c
}

var validate = validator.New()

// Validate checks field values only.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid chart config: %s=%v fails %s", fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid chart config: %w", err)
	}
	return nil
}

// ValidateFor checks field values and that every referenced column exists
// in ds.
func (c Config) ValidateFor(ds *dataset.Dataset) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.X != "" && !ds.HasColumn(c.X) {
		return fmt.Errorf("invalid chart config: unknown x column %q", c.X)
	}
	for _, y := range c.Y {
		if !ds.HasColumn(y) {
			return fmt.Errorf("invalid chart config: unknown y column %q", y)
		}
	}
	return nil
}
