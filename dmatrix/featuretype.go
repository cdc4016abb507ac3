package dmatrix

import (
	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// FeatureType tags how a learner treats a column.
type FeatureType string

const (
	FeatureInt   FeatureType = "int"
	FeatureFloat FeatureType = "float"
	// FeatureIndicator marks 0/1 columns converted from booleans.
	FeatureIndicator   FeatureType = "i"
	FeatureCategorical FeatureType = "c"
	// FeatureQuantitative is only set explicitly by the caller.
	FeatureQuantitative FeatureType = "q"
)

// Valid reports whether f is a known tag.
func (f FeatureType) Valid() bool {
	switch f {
	case FeatureInt, FeatureFloat, FeatureIndicator, FeatureCategorical, FeatureQuantitative:
		return true
	}
	return false
}

// ParseFeatureTypes converts string tags, rejecting unknown ones.
func ParseFeatureTypes(tags []string) ([]FeatureType, error) {
	if tags == nil {
		return nil, nil
	}
	out := make([]FeatureType, len(tags))
	for i, s := range tags {
		ft := FeatureType(s)
		if !ft.Valid() {
			return nil, errors.NewValueErrorf("ParseFeatureTypes", "unknown feature type %q at position %d", s, i)
		}
		out[i] = ft
	}
	return out, nil
}

// Strings returns the tags as plain strings.
func Strings(types []FeatureType) []string {
	if types == nil {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// featureTypeOf maps a dtype to its inferred tag. Sparse dtypes take the tag of
// the wrapped dtype. ok is false for dtypes that cannot be converted.
func featureTypeOf(dt frame.DType) (FeatureType, bool) {
	switch dt.Dense().Kind {
	case frame.KindInt, frame.KindNullableInt:
		return FeatureInt, true
	case frame.KindFloat, frame.KindNullableFloat:
		return FeatureFloat, true
	case frame.KindBool, frame.KindNullableBool:
		return FeatureIndicator, true
	case frame.KindCategorical:
		return FeatureCategorical, true
	}
	return "", false
}
