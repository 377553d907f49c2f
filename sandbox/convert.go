package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
)

// goToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]any
func goToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := goToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := goToStarlark(v)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func stringsToList(values []string) *starlark.List {
	list := make([]starlark.Value, len(values))
	for i, v := range values {
		list[i] = starlark.String(v)
	}
	return starlark.NewList(list)
}

func floatsToList(values []float64) *starlark.List {
	list := make([]starlark.Value, len(values))
	for i, v := range values {
		list[i] = starlark.Float(v)
	}
	return starlark.NewList(list)
}

// toFloat extracts a Go float64 from a Starlark int or float.
func toFloat(v starlark.Value) (float64, error) {
	switch val := v.(type) {
	case starlark.Float:
		return float64(val), nil
	case starlark.Int:
		f, _ := starlark.AsFloat(val)
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %s", v.Type())
	}
}

// toFloatSlice extracts a []float64 from a Starlark iterable of numbers.
func toFloatSlice(v starlark.Value, argName string) ([]float64, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list of numbers, got %s", argName, v.Type())
	}

	var out []float64
	iter := iterable.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		f, err := toFloat(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", argName, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// toStringSlice extracts a []string from a Starlark iterable, stringifying
// non-string scalars so category axes accept numbers and dates.
func toStringSlice(v starlark.Value, argName string) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %s", argName, v.Type())
	}

	var out []string
	iter := iterable.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		switch val := item.(type) {
		case starlark.String:
			out = append(out, string(val))
		case starlark.Int, starlark.Float, starlark.Bool:
			out = append(out, val.String())
		default:
			return nil, fmt.Errorf("%s: expected strings or scalars, got %s", argName, item.Type())
		}
	}
	return out, nil
}
