package core

import (
	"fmt"
	"strings"
)

// DecisionSchema is the closed set of decision shapes an EvaluationTask can
// require from its agents. Each concrete schema knows how to validate a raw
// decision value and normalize a confidence score; alignment analysis and
// resolution dispatch on the concrete type (a Go type switch), not on any
// inheritance hierarchy.
type DecisionSchema interface {
	// Validate reports whether decision conforms to this schema.
	Validate(decision interface{}) bool
	// NormalizeConfidence clamps a raw confidence value to [0.0, 1.0].
	NormalizeConfidence(confidence float64) float64
	// SchemaType returns the schema's stable type tag.
	SchemaType() string
}

// BooleanDecisionSchema is a binary decision schema: compatible/incompatible,
// approve/reject, safe/unsafe, with customizable labels for display.
type BooleanDecisionSchema struct {
	PositiveLabel string
	NegativeLabel string
}

// NewBooleanDecisionSchema returns a BooleanDecisionSchema with the given
// display labels, defaulting empty labels to "positive"/"negative".
func NewBooleanDecisionSchema(positiveLabel, negativeLabel string) *BooleanDecisionSchema {
	if positiveLabel == "" {
		positiveLabel = "positive"
	}
	if negativeLabel == "" {
		negativeLabel = "negative"
	}
	return &BooleanDecisionSchema{PositiveLabel: positiveLabel, NegativeLabel: negativeLabel}
}

func (s *BooleanDecisionSchema) Validate(decision interface{}) bool {
	_, ok := decision.(bool)
	return ok
}

func (s *BooleanDecisionSchema) NormalizeConfidence(confidence float64) float64 {
	return clampConfidence(confidence)
}

func (s *BooleanDecisionSchema) SchemaType() string { return "boolean" }

// CategoricalDecisionSchema classifies a decision into one (or, if
// AllowMultiple, several) of a fixed, non-empty set of unique categories.
type CategoricalDecisionSchema struct {
	Categories    []string
	AllowMultiple bool
}

// NewCategoricalDecisionSchema validates that categories has at least two
// unique, non-blank entries before constructing the schema.
func NewCategoricalDecisionSchema(categories []string, allowMultiple bool) (*CategoricalDecisionSchema, error) {
	if len(categories) < 2 {
		return nil, fmt.Errorf("%w: categorical schema requires at least 2 categories", ErrInvalidSchema)
	}
	seen := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		if strings.TrimSpace(cat) == "" {
			return nil, fmt.Errorf("%w: categories cannot be empty strings", ErrInvalidSchema)
		}
		if _, dup := seen[cat]; dup {
			return nil, fmt.Errorf("%w: categories must be unique", ErrInvalidSchema)
		}
		seen[cat] = struct{}{}
	}
	return &CategoricalDecisionSchema{Categories: categories, AllowMultiple: allowMultiple}, nil
}

func (s *CategoricalDecisionSchema) Validate(decision interface{}) bool {
	if s.AllowMultiple {
		values, ok := decision.([]string)
		if !ok {
			return false
		}
		for _, v := range values {
			if !s.contains(v) {
				return false
			}
		}
		return true
	}
	value, ok := decision.(string)
	if !ok {
		return false
	}
	return s.contains(value)
}

func (s *CategoricalDecisionSchema) contains(value string) bool {
	for _, cat := range s.Categories {
		if cat == value {
			return true
		}
	}
	return false
}

func (s *CategoricalDecisionSchema) NormalizeConfidence(confidence float64) float64 {
	return clampConfidence(confidence)
}

func (s *CategoricalDecisionSchema) SchemaType() string { return "categorical" }

// ScalarDecisionSchema bounds a decision to a numeric range, e.g. risk scores
// (0-100), ratings (1-5), probabilities (0.0-1.0).
type ScalarDecisionSchema struct {
	MinValue float64
	MaxValue float64
}

// NewScalarDecisionSchema validates max > min before constructing the schema.
func NewScalarDecisionSchema(minValue, maxValue float64) (*ScalarDecisionSchema, error) {
	if maxValue <= minValue {
		return nil, fmt.Errorf("%w: max_value must be greater than min_value", ErrInvalidSchema)
	}
	return &ScalarDecisionSchema{MinValue: minValue, MaxValue: maxValue}, nil
}

func (s *ScalarDecisionSchema) Validate(decision interface{}) bool {
	value, ok := toFloat64(decision)
	if !ok {
		return false
	}
	return value >= s.MinValue && value <= s.MaxValue
}

func (s *ScalarDecisionSchema) NormalizeConfidence(confidence float64) float64 {
	return clampConfidence(confidence)
}

func (s *ScalarDecisionSchema) SchemaType() string { return "scalar" }

// FreeFormDecisionSchema accepts open-ended text, optionally bounded by
// length, e.g. recommendations, explanations, detailed assessments.
type FreeFormDecisionSchema struct {
	MinLength *int
	MaxLength *int
}

// NewFreeFormDecisionSchema validates max > min (when both are set) before
// constructing the schema.
func NewFreeFormDecisionSchema(minLength, maxLength *int) (*FreeFormDecisionSchema, error) {
	if minLength != nil && maxLength != nil && *maxLength <= *minLength {
		return nil, fmt.Errorf("%w: max_length must be greater than min_length", ErrInvalidSchema)
	}
	return &FreeFormDecisionSchema{MinLength: minLength, MaxLength: maxLength}, nil
}

func (s *FreeFormDecisionSchema) Validate(decision interface{}) bool {
	value, ok := decision.(string)
	if !ok {
		return false
	}
	if s.MinLength != nil && len(value) < *s.MinLength {
		return false
	}
	if s.MaxLength != nil && len(value) > *s.MaxLength {
		return false
	}
	return true
}

func (s *FreeFormDecisionSchema) NormalizeConfidence(confidence float64) float64 {
	return clampConfidence(confidence)
}

func (s *FreeFormDecisionSchema) SchemaType() string { return "freeform" }

func clampConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
