package tableview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one row of data keyed by field identifier.
type Record map[string]any

// Column pairs a display label with the field it shows.
type Column struct {
	Label string
	Field string
}

// Keys returns the record's field identifiers in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text returns the plain string form of a field, "" when missing or nil.
func (r Record) Text(field string) string {
	return stringify(r[field])
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// joinedText concatenates every value of the record, space separated, in key
// order. Search patterns are matched against this.
func (r Record) joinedText() string {
	keys := r.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = stringify(r[k])
	}
	return strings.Join(parts, " ")
}

// Compare orders two field values by the native ordering of their type.
// Missing values sort first. A string compared against a number is compared
// numerically when it parses as one, otherwise both sides are compared as
// formatted text.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return compareFloat(af, bf)
	}

	switch av := a.(type) {
	case string:
		switch bv := b.(type) {
		case string:
			return strings.Compare(av, bv)
		default:
			if bNum {
				if f, err := strconv.ParseFloat(strings.TrimSpace(av), 64); err == nil {
					return compareFloat(f, bf)
				}
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}

	if bs, ok := b.(string); ok && aNum {
		if f, err := strconv.ParseFloat(strings.TrimSpace(bs), 64); err == nil {
			return compareFloat(af, f)
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
