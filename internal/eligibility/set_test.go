package eligibility

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		expect StringSet
	}{
		{name: "nil", input: nil, expect: StringSet{}},
		{name: "scalar", input: "Hispanic/Latino", expect: StringSet{"Hispanic/Latino"}},
		{name: "empty scalar", input: "", expect: StringSet{}},
		{name: "string list", input: []string{"a", "b", "a"}, expect: StringSet{"a", "b"}},
		{name: "generic list", input: []any{"a", 2.0, true, nil}, expect: StringSet{"a", "2", "true"}},
		{name: "number scalar", input: 3.5, expect: StringSet{"3.5"}},
		{name: "set", input: StringSet{"x", "x", "y"}, expect: StringSet{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeStrings(tt.input); !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %#v, got %#v", tt.expect, got)
			}
		})
	}
}

func TestStringSetJSON(t *testing.T) {
	t.Parallel()

	var payload struct {
		Scalar StringSet `json:"scalar"`
		List   StringSet `json:"list"`
		Null   StringSet `json:"null"`
		Absent StringSet `json:"absent"`
	}

	raw := `{"scalar": "Asian", "list": ["Asian", "White"], "null": null}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(payload.Scalar, StringSet{"Asian"}) {
		t.Fatalf("scalar: %#v", payload.Scalar)
	}
	if !reflect.DeepEqual(payload.List, StringSet{"Asian", "White"}) {
		t.Fatalf("list: %#v", payload.List)
	}
	if !payload.Null.IsEmpty() || !payload.Absent.IsEmpty() {
		t.Fatalf("expected empty sets, got %#v and %#v", payload.Null, payload.Absent)
	}

	out, err := json.Marshal(payload.Absent)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected empty list encoding, got %s", out)
	}
}

func TestStringSetIntersects(t *testing.T) {
	t.Parallel()

	if !(StringSet{"a", "b"}).Intersects(StringSet{"c", "b"}) {
		t.Fatal("expected overlap")
	}
	if (StringSet{"a"}).Intersects(StringSet{"A"}) {
		t.Fatal("intersection must be case sensitive")
	}
	if (StringSet{}).Intersects(StringSet{"a"}) {
		t.Fatal("empty set intersects nothing")
	}
}

func TestFlagJSON(t *testing.T) {
	t.Parallel()

	var payload struct {
		True   Flag `json:"t"`
		False  Flag `json:"f"`
		Null   Flag `json:"n"`
		Absent Flag `json:"a"`
	}

	if err := json.Unmarshal([]byte(`{"t": true, "f": false, "n": null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if payload.True != FlagTrue || !payload.True.Required() {
		t.Fatalf("expected true flag, got %v", payload.True)
	}
	if payload.False != FlagFalse || payload.False.Required() {
		t.Fatalf("expected explicit false, got %v", payload.False)
	}
	if payload.Null != FlagUnset || payload.Absent != FlagUnset {
		t.Fatalf("expected unset flags, got %v and %v", payload.Null, payload.Absent)
	}

	if err := json.Unmarshal([]byte(`{"t": "yes"}`), &payload); err == nil {
		t.Fatal("expected error for non-boolean flag")
	}

	out, err := json.Marshal(struct {
		A Flag `json:"a"`
		B Flag `json:"b"`
	}{A: FlagUnset, B: FlagFalse})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":null,"b":false}` {
		t.Fatalf("unexpected encoding: %s", out)
	}
}
