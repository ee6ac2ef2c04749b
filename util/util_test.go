package util

import (
	"testing"
)

func TestPtrDeref(t *testing.T) {
	p := Ptr(42)
	if *p != 42 {
		t.Errorf("expected 42, got %d", *p)
	}
	if Deref(p) != 42 {
		t.Errorf("expected 42, got %d", Deref(p))
	}
	var nilPtr *int
	if Deref(nilPtr) != 0 {
		t.Error("expected zero value for nil pointer")
	}
}

func TestKeysValues(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2}
	keys := Keys(m)
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d", len(keys))
	}
	vals := Values(m)
	if len(vals) != 2 {
		t.Errorf("expected 2 values, got %d", len(vals))
	}
}

func TestContains(t *testing.T) {
	if !Contains([]string{"a", "b"}, "b") {
		t.Error("expected slice to contain 'b'")
	}
	if Contains([]int{1, 2}, 3) {
		t.Error("did not expect slice to contain 3")
	}
}

func TestFilterMap(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	if len(evens) != 2 || evens[0] != 2 || evens[1] != 4 {
		t.Errorf("expected [2 4], got %v", evens)
	}
	doubled := Map([]int{1, 2}, func(n int) int { return n * 2 })
	if doubled[0] != 2 || doubled[1] != 4 {
		t.Errorf("expected [2 4], got %v", doubled)
	}
}

func TestCoalesce(t *testing.T) {
	if Coalesce("", "fallback") != "fallback" {
		t.Error("expected fallback value")
	}
	if Coalesce("first", "second") != "first" {
		t.Error("expected first value")
	}
}

func TestToFloat64(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{float64(1.5), 1.5},
		{float32(2), 2},
		{int(3), 3},
		{int64(-4), -4},
		{uint8(5), 5},
	}
	for _, tc := range cases {
		got, err := ToFloat64(tc.in)
		if err != nil {
			t.Fatalf("ToFloat64(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ToFloat64(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestToFloat64NonNumeric(t *testing.T) {
	if _, err := ToFloat64("five"); err == nil {
		t.Error("expected error for non-numeric value")
	}
}

func TestToFloat64Slice(t *testing.T) {
	out, err := ToFloat64Slice([]any{1, 2.5, int64(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 || out[0] != 1 || out[1] != 2.5 || out[2] != 3 {
		t.Errorf("unexpected result: %v", out)
	}

	if _, err := ToFloat64Slice([]any{1, "x"}); err == nil {
		t.Error("expected error for mixed slice")
	}
}
