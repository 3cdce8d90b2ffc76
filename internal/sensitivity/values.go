// Package sensitivity evaluates a scalar function over the cartesian product
// of candidate input values and reduces the resulting table into pairwise
// matrices for display.
package sensitivity

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Param is one named input and its ordered candidate values.
type Param struct {
	Name   string
	Values []any
}

// InputSpec is the ordered set of inputs that defines the analysis space.
// It is immutable once built by NewInputSpec.
type InputSpec struct {
	params []Param
	index  map[string]int
}

// NewInputSpec validates params and returns an immutable InputSpec. Values
// are copied so later changes to the caller's slices have no effect.
func NewInputSpec(params ...Param) (*InputSpec, error) {
	if len(params) == 0 {
		return nil, &ConfigurationError{Err: ErrNoInputs}
	}
	spec := &InputSpec{
		params: make([]Param, len(params)),
		index:  make(map[string]int, len(params)),
	}
	for i, p := range params {
		if p.Name == "" {
			return nil, configErrorf("input %d has an empty name", i)
		}
		if _, dup := spec.index[p.Name]; dup {
			return nil, configErrorf("duplicate input name %q", p.Name)
		}
		if len(p.Values) == 0 {
			return nil, configErrorf("input %q has no candidate values", p.Name)
		}
		for j, v := range p.Values {
			if !isScalar(v) {
				return nil, configErrorf("input %q value %d: unsupported type %T", p.Name, j, v)
			}
			if isNaN(v) {
				return nil, configErrorf("input %q value %d: NaN is not a valid candidate", p.Name, j)
			}
		}
		spec.params[i] = Param{Name: p.Name, Values: append([]any(nil), p.Values...)}
		spec.index[p.Name] = i
	}
	return spec, nil
}

// Len returns the number of inputs.
func (s *InputSpec) Len() int { return len(s.params) }

// Names returns the input names in declaration order.
func (s *InputSpec) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

// Values returns a copy of the candidate values for name.
func (s *InputSpec) Values(name string) ([]any, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return append([]any(nil), s.params[i].Values...), true
}

// Params returns a copy of the ordered params.
func (s *InputSpec) Params() []Param {
	out := make([]Param, len(s.params))
	for i, p := range s.params {
		out[i] = Param{Name: p.Name, Values: append([]any(nil), p.Values...)}
	}
	return out
}

// isScalar reports whether v is a comparable scalar usable as an input value.
func isScalar(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isNaN reports whether v is a float32 or float64 NaN. NaN never equals
// itself, so it cannot key a row or column of a projection.
func isNaN(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(rv.Float())
	}
	return false
}

// ToFloat64 converts a numeric or boolean scalar to float64.
// Strings and other kinds report false.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Args is the named argument set passed to a Func: input values for one
// combination overlaid with the fixed arguments.
type Args map[string]any

// Float returns the named argument as a float64. Integer and boolean values
// are converted.
func (a Args) Float(name string) (float64, error) {
	v, ok := a[name]
	if !ok {
		return 0, &ArgumentError{Name: name, Msg: "missing"}
	}
	if s, isStr := v.(string); isStr {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ArgumentError{Name: name, Msg: fmt.Sprintf("cannot parse %q as float64", s)}
		}
		return f, nil
	}
	f, ok := ToFloat64(v)
	if !ok {
		return 0, &ArgumentError{Name: name, Msg: fmt.Sprintf("%T is not numeric", v)}
	}
	return f, nil
}

// Int returns the named argument as an int. Floats must be integral.
func (a Args) Int(name string) (int, error) {
	f, err := a.Float(name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, &ArgumentError{Name: name, Msg: fmt.Sprintf("%v is not an integer", a[name])}
	}
	return int(f), nil
}

// String returns the named argument formatted as a string.
func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", &ArgumentError{Name: name, Msg: "missing"}
	}
	if s, isStr := v.(string); isStr {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// Bool returns the named argument as a bool.
func (a Args) Bool(name string) (bool, error) {
	v, ok := a[name]
	if !ok {
		return false, &ArgumentError{Name: name, Msg: "missing"}
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, &ArgumentError{Name: name, Msg: fmt.Sprintf("cannot parse %q as bool", val)}
		}
		return b, nil
	}
	f, ok := ToFloat64(v)
	if !ok {
		return false, &ArgumentError{Name: name, Msg: fmt.Sprintf("%T is not a bool", v)}
	}
	return f != 0, nil
}

// Func is the function under analysis. It must be deterministic and return
// a single scalar for the given arguments.
type Func func(Args) (float64, error)
