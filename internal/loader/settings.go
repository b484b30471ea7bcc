package loader

import (
	"fmt"
	"math"

	"github.com/roach88/callgen/internal/ir"
)

// SettingsFromMap extracts the known settings keys from a decoded settings
// record. Every key, known or not, is kept in Settings.Values.
func SettingsFromMap(raw map[string]any) (ir.Settings, error) {
	values, _ := normalizeValue(raw).(map[string]any)
	if values == nil {
		values = map[string]any{}
	}

	var s ir.Settings
	var err error
	str := func(key string, dst *string) {
		if err != nil {
			return
		}
		v, ok := values[key]
		if !ok {
			return
		}
		sv, isStr := v.(string)
		if !isStr {
			err = fmt.Errorf("settings.%s: expected string, got %T", key, v)
			return
		}
		*dst = sv
	}

	str("namespace", &s.Namespace)
	str("kind", &s.Kind)
	str("default_parent", &s.DefaultParent)
	str("default_result", &s.DefaultResult)
	str("requires", &s.Requires)
	if err != nil {
		return ir.Settings{}, err
	}

	if v, ok := values["allow_unknown_types"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return ir.Settings{}, fmt.Errorf("settings.allow_unknown_types: expected bool, got %T", v)
		}
		s.AllowUnknownTypes = b
	}

	s.Values = values
	return s, nil
}

// normalizeValue makes decoded values uniform across formats: integers become
// int64, integral floats (JSON numbers) become int64, and nested maps become
// map[string]any.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeValue(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeValue(elem)
		}
		return out
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
		return val
	default:
		return v
	}
}
