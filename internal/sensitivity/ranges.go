package sensitivity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value types accepted by ParseValues and CoerceValue.
const (
	TypeFloat64 = "float64"
	TypeInt     = "int"
	TypeInt64   = "int64"
	TypeBool    = "bool"
	TypeString  = "string"
)

// maxValues bounds a single generated range.
const maxValues = 10000

// RangeSpec defines a floating-point value range.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}
	step, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}
	if step <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %g", step)
	}
	if min > max {
		return RangeSpec{}, fmt.Errorf("min %g is greater than max %g", min, max)
	}

	return RangeSpec{Min: min, Max: max, Step: step}, nil
}

// checkIntegral rejects bounds or a step with a fractional part.
func (r RangeSpec) checkIntegral() error {
	for _, b := range []struct {
		name string
		v    float64
	}{{"min", r.Min}, {"max", r.Max}, {"step", r.Step}} {
		if b.v != math.Trunc(b.v) {
			return fmt.Errorf("%s %g is not an integer", b.name, b.v)
		}
	}
	return nil
}

// GenerateRange returns the values from min to max (inclusive) stepping by
// step, rounded to 1e-9 to avoid accumulated floating point drift. It
// returns nil for an invalid range or one that would exceed maxValues.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	expected := int((max-min)/step) + 1
	if expected > maxValues || expected < 0 {
		return nil
	}

	result := make([]float64, 0, expected)
	for i := 0; i < expected+1; i++ {
		v := math.Round((min+float64(i)*step)*1e9) / 1e9
		if v > max+step/1000 {
			break
		}
		result = append(result, v)
	}
	return result
}

// GenerateIntRange returns the integers from min to max (inclusive).
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	expected := (max-min)/step + 1
	if expected > maxValues || expected < 0 {
		return nil
	}
	result := make([]int, 0, expected)
	for v := min; v <= max; v += step {
		result = append(result, v)
	}
	return result
}

// ParseValues parses a comma-separated list or a "min:max:step" range into
// candidate values of the given type. Ranges are only valid for numeric
// types.
func ParseValues(s, typ string) ([]any, error) {
	if typ == "" {
		typ = TypeFloat64
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty value list")
	}

	if strings.Contains(s, ":") && typ != TypeString {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		if typ == TypeInt || typ == TypeInt64 {
			if err := spec.checkIntegral(); err != nil {
				return nil, fmt.Errorf("range %q for type %s: %w", s, typ, err)
			}
		}
		var out []any
		switch typ {
		case TypeFloat64:
			for _, v := range GenerateRange(spec.Min, spec.Max, spec.Step) {
				out = append(out, v)
			}
		case TypeInt:
			for _, v := range GenerateIntRange(int(spec.Min), int(spec.Max), int(spec.Step)) {
				out = append(out, v)
			}
		case TypeInt64:
			for _, v := range GenerateIntRange(int(spec.Min), int(spec.Max), int(spec.Step)) {
				out = append(out, int64(v))
			}
		default:
			return nil, fmt.Errorf("range %q not supported for type %s", s, typ)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("range %q produced no values (limit %d)", s, maxValues)
		}
		return out, nil
	}

	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := CoerceValue(p, typ)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return out, nil
}

// CoerceValue converts v (typically decoded from JSON or YAML) to the Go
// type named by typ. It fails rather than silently defaulting to zero.
func CoerceValue(v any, typ string) (any, error) {
	switch typ {
	case TypeFloat64, "":
		switch val := v.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as float64: %w", val, err)
			}
			return f, nil
		case bool:
			if val {
				return 1.0, nil
			}
			return 0.0, nil
		}
		if f, ok := ToFloat64(v); ok {
			return f, nil
		}
	case TypeInt, TypeInt64:
		var n int64
		switch val := v.(type) {
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as %s: %w", val, typ, err)
			}
			n = parsed
		default:
			f, ok := ToFloat64(v)
			if !ok {
				return nil, fmt.Errorf("unsupported coercion: %T to %s", v, typ)
			}
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("%v is not an integer", v)
			}
			n = int64(f)
		}
		if typ == TypeInt {
			return int(n), nil
		}
		return n, nil
	case TypeBool:
		switch val := v.(type) {
		case bool:
			return val, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as bool: %w", val, err)
			}
			return b, nil
		}
		if f, ok := ToFloat64(v); ok {
			return f != 0, nil
		}
	case TypeString:
		switch val := v.(type) {
		case string:
			return strings.TrimSpace(val), nil
		default:
			return fmt.Sprint(val), nil
		}
	default:
		return nil, fmt.Errorf("unknown type %q", typ)
	}
	return nil, fmt.Errorf("unsupported coercion: %T to %s", v, typ)
}
