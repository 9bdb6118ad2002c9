// Package normalize coerces loosely-typed provider payloads — especially JSON
// extracted from free-form model output — into canonical shapes. Coercion is
// schema-driven: each response kind declares its expected fields, types, and
// defaults, and a single generic routine applies them.
package normalize

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
)

// Kind is the declared primitive type of a schema field.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
)

// Tier grades how a normalized value was obtained.
type Tier string

const (
	// TierHigh: value parsed directly at the declared type, or a text match
	// inside a sentence containing a topical keyword.
	TierHigh Tier = "high"
	// TierMedium: value recovered by coercion (array unwrap, string-to-number
	// parse) or a bare pattern match anywhere in the text.
	TierMedium Tier = "medium"
	// TierLow: the documented default was substituted.
	TierLow Tier = "low"
)

// Confidence maps a tier onto the numeric [0,1] scale used everywhere else.
func (t Tier) Confidence() float64 {
	switch t {
	case TierHigh:
		return 0.9
	case TierMedium:
		return 0.7
	default:
		return 0.5
	}
}

// FieldSpec declares one expected field. Default is part of the contract:
// it is substituted whenever the raw value is absent or uncoercible.
type FieldSpec struct {
	Key     string
	Kind    Kind
	Default any
}

// Schema is the full declaration for one response kind.
type Schema []FieldSpec

// Result holds the coerced values and the tier each one earned.
type Result struct {
	Values map[string]any
	Tiers  map[string]Tier
}

// Confidence returns the lowest tier confidence across all fields. An empty
// result reports the low-tier constant.
func (r Result) Confidence() float64 {
	min := TierLow.Confidence()
	first := true
	for _, t := range r.Tiers {
		c := t.Confidence()
		if first || c < min {
			min = c
			first = false
		}
	}
	return min
}

// Float returns the named value as a float64, or the zero value.
func (r Result) Float(key string) float64 { return cast.ToFloat64(r.Values[key]) }

// Int returns the named value as an int, or the zero value.
func (r Result) Int(key string) int { return cast.ToInt(r.Values[key]) }

// String returns the named value as a string, or "".
func (r Result) String(key string) string { return cast.ToString(r.Values[key]) }

// Bool returns the named value as a bool, or false.
func (r Result) Bool(key string) bool { return cast.ToBool(r.Values[key]) }

// Apply coerces raw against the schema. Per field: an array collapses to its
// first element (recovery heuristic for models that return scalars wrapped in
// arrays); a missing or wrongly-typed value becomes the declared default.
// Apply never fails — unusable input degrades tier by tier.
func Apply(raw map[string]any, schema Schema) Result {
	out := Result{
		Values: make(map[string]any, len(schema)),
		Tiers:  make(map[string]Tier, len(schema)),
	}

	for _, spec := range schema {
		v, ok := raw[spec.Key]
		if !ok || v == nil {
			out.Values[spec.Key] = spec.Default
			out.Tiers[spec.Key] = TierLow
			continue
		}

		v, unwrapped := firstElement(v)
		coerced, exact, err := coerce(v, spec.Kind)
		if err != nil {
			out.Values[spec.Key] = spec.Default
			out.Tiers[spec.Key] = TierLow
			continue
		}

		out.Values[spec.Key] = coerced
		if exact && !unwrapped {
			out.Tiers[spec.Key] = TierHigh
		} else {
			out.Tiers[spec.Key] = TierMedium
		}
	}

	return out
}

// firstElement collapses []any to its first element. Empty arrays are
// treated as absent.
func firstElement(v any) (any, bool) {
	arr, ok := v.([]any)
	if !ok {
		return v, false
	}
	if len(arr) == 0 {
		return nil, true
	}
	return arr[0], true
}

// coerce converts v to the declared kind. exact reports whether v already
// had the right underlying type (as opposed to a lossy string/number parse).
func coerce(v any, kind Kind) (out any, exact bool, err error) {
	if v == nil {
		return nil, false, eris.New("normalize: nil value")
	}
	switch kind {
	case KindString:
		_, exact = v.(string)
		s, castErr := cast.ToStringE(v)
		return s, exact, castErr
	case KindFloat:
		switch v.(type) {
		case float64, float32, int, int64:
			exact = true
		}
		f, castErr := cast.ToFloat64E(v)
		return f, exact, castErr
	case KindInt:
		switch t := v.(type) {
		case int, int64:
			exact = true
		case float64:
			// JSON numbers decode as float64; whole values are exact ints.
			exact = t == float64(int64(t))
		}
		n, castErr := cast.ToIntE(v)
		return n, exact, castErr
	case KindBool:
		_, exact = v.(bool)
		b, castErr := cast.ToBoolE(v)
		return b, exact, castErr
	}
	return nil, false, eris.Errorf("normalize: unknown kind %d", kind)
}
