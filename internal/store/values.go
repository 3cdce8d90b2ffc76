package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// typedValue is the stored form of one input value. Values are kept as
// text tagged with their kind so that ints stay ints and floats survive
// NaN, infinities and exact bit patterns.
type typedValue struct {
	Kind  string `json:"k"`
	Value string `json:"v"`
}

// encodeValue converts a scalar input value to its stored form. Named types
// are stored by their underlying kind.
func encodeValue(v any) (typedValue, error) {
	if v == nil {
		return typedValue{}, fmt.Errorf("cannot store nil value")
	}
	rv := reflect.ValueOf(v)
	kind := rv.Kind()
	tv := typedValue{Kind: kind.String()}
	switch kind {
	case reflect.Bool:
		tv.Value = strconv.FormatBool(rv.Bool())
	case reflect.String:
		tv.Value = rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		tv.Value = strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		tv.Value = strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		tv.Value = strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		tv.Value = strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	default:
		return typedValue{}, fmt.Errorf("cannot store value of type %T", v)
	}
	return tv, nil
}

// decodeValue reverses encodeValue.
func decodeValue(tv typedValue) (any, error) {
	switch tv.Kind {
	case "bool":
		return strconv.ParseBool(tv.Value)
	case "string":
		return tv.Value, nil
	case "float64":
		return strconv.ParseFloat(tv.Value, 64)
	case "float32":
		f, err := strconv.ParseFloat(tv.Value, 32)
		return float32(f), err
	}

	if bits, ok := intKinds[tv.Kind]; ok {
		n, err := strconv.ParseInt(tv.Value, 10, bits)
		if err != nil {
			return nil, err
		}
		switch tv.Kind {
		case "int":
			return int(n), nil
		case "int8":
			return int8(n), nil
		case "int16":
			return int16(n), nil
		case "int32":
			return int32(n), nil
		}
		return n, nil
	}
	if bits, ok := uintKinds[tv.Kind]; ok {
		n, err := strconv.ParseUint(tv.Value, 10, bits)
		if err != nil {
			return nil, err
		}
		switch tv.Kind {
		case "uint":
			return uint(n), nil
		case "uint8":
			return uint8(n), nil
		case "uint16":
			return uint16(n), nil
		case "uint32":
			return uint32(n), nil
		}
		return n, nil
	}
	return nil, fmt.Errorf("unknown stored kind %q", tv.Kind)
}

var intKinds = map[string]int{"int": 64, "int8": 8, "int16": 16, "int32": 32, "int64": 64}

var uintKinds = map[string]int{"uint": 64, "uint8": 8, "uint16": 16, "uint32": 32, "uint64": 64}

func encodeRow(values []any) (string, error) {
	out := make([]typedValue, len(values))
	for i, v := range values {
		tv, err := encodeValue(v)
		if err != nil {
			return "", err
		}
		out[i] = tv
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRow(s string) ([]any, error) {
	var tvs []typedValue
	if err := json.Unmarshal([]byte(s), &tvs); err != nil {
		return nil, fmt.Errorf("decode row values: %w", err)
	}
	out := make([]any, len(tvs))
	for i, tv := range tvs {
		v, err := decodeValue(tv)
		if err != nil {
			return nil, fmt.Errorf("decode value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
