package eligibility

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// StringSet is an ordered collection of distinct strings.
// The zero value is an empty set.
type StringSet []string

// NormalizeStrings converts the shapes collection fields arrive in to a StringSet.
// nil and "" become an empty set, any other scalar becomes a single-element set
// and a list becomes a set of its stringified elements. Duplicates are dropped,
// first occurrence wins.
func NormalizeStrings(v any) StringSet {
	switch val := v.(type) {
	case nil:
		return StringSet{}
	case string:
		if val == "" {
			return StringSet{}
		}
		return StringSet{val}
	case StringSet:
		return appendUnique(make(StringSet, 0, len(val)), val...)
	case []string:
		return appendUnique(make(StringSet, 0, len(val)), val...)
	case []any:
		set := make(StringSet, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			set = appendUnique(set, stringify(item))
		}
		return set
	default:
		return StringSet{stringify(val)}
	}
}

func appendUnique(set StringSet, values ...string) StringSet {
	for _, v := range values {
		if !slices.Contains(set, v) {
			set = append(set, v)
		}
	}
	return set
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatNumber(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Len returns the number of elements.
func (s StringSet) Len() int { return len(s) }

// IsEmpty reports whether the set imposes no restriction.
func (s StringSet) IsEmpty() bool { return len(s) == 0 }

// Contains reports whether v is an exact member of the set.
func (s StringSet) Contains(v string) bool { return slices.Contains(s, v) }

// Intersects reports whether at least one element is shared with other.
func (s StringSet) Intersects(other StringSet) bool {
	for _, v := range s {
		if other.Contains(v) {
			return true
		}
	}
	return false
}

// Join concatenates the elements with sep.
func (s StringSet) Join(sep string) string { return strings.Join(s, sep) }

// UnmarshalJSON accepts null, a single value or a list.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode string set: %w", err)
	}
	*s = NormalizeStrings(raw)
	return nil
}

// MarshalJSON always encodes a list, never null.
func (s StringSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
