package interp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/axon/pkg/diag"
)

// Runtime values are plain Go values: int64, float64, string, bool, nil,
// []any and map[string]any. The helpers below define the language's
// truthiness, stringification, equality, ordering and membership semantics
// over that set.

// Truthy implements the language's truthiness rules: nil, false, zero
// numbers, empty strings and empty collections are falsy; everything else is
// truthy.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case int:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// Stringify renders a value the way templates, "+" concatenation and the log
// sinks present it. Maps render with sorted keys so output is stable.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = Stringify(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + Stringify(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// asNumber normalizes numeric values to float64 and reports whether v is
// numeric at all. isInt is true for integer-typed values.
func asNumber(v any) (f float64, isInt bool, ok bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true, true
	case int:
		return float64(val), true, true
	case float64:
		return val, false, true
	default:
		return 0, false, false
	}
}

func asInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// equalValues is the language's structural equality: numbers compare by
// value across int/float, lists and maps compare element-wise, everything
// else compares by type and value.
func equalValues(a, b any) bool {
	if af, _, aok := asNumber(a); aok {
		if bf, _, bok := asNumber(b); bok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !equalValues(v, bval) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// orderValues compares a and b for the ordering operators. It supports
// number/number and string/string pairs; anything else is an operator error.
func orderValues(a, b any) (int, error) {
	if af, _, aok := asNumber(a); aok {
		if bf, _, bok := asNumber(b); bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), nil
		}
	}
	return 0, diag.New(diag.KindUnsupportedOperator,
		"Cannot order %s and %s", typeName(a), typeName(b))
}

// containsValue implements the "in" operator: substring for strings,
// element membership for lists, key membership for maps.
func containsValue(member, container any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := member.(string)
		if !ok {
			return false, diag.New(diag.KindUnsupportedOperator,
				"Left operand of 'in' must be a string when the right is a string, got %s", typeName(member))
		}
		return strings.Contains(c, s), nil
	case []any:
		for _, item := range c {
			if equalValues(member, item) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		key, ok := member.(string)
		if !ok {
			return false, diag.New(diag.KindUnsupportedOperator,
				"Map membership requires a string key, got %s", typeName(member))
		}
		_, present := c[key]
		return present, nil
	default:
		return false, diag.New(diag.KindUnsupportedOperator,
			"Right operand of 'in' must be a string, list or map, got %s", typeName(container))
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int64, int:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
