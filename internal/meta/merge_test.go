package meta

import "testing"

func TestMergeRules(t *testing.T) {
	cases := []struct {
		name, base, patch, want string
	}{
		{"null deletes", `{"a":1}`, `{"a":null}`, `{}`},
		{"lists concatenate", `{"a":[1]}`, `{"a":[2]}`, `{"a":[1,2]}`},
		{"maps merge", `{"a":{"b":1}}`, `{"a":{"c":2}}`, `{"a":{"b":1,"c":2}}`},
		{"absent keeps base", `{"a":1,"b":2}`, `{"b":3}`, `{"a":1,"b":3}`},
		{"scalar overwrites map", `{"a":{"b":1}}`, `{"a":5}`, `{"a":5}`},
		{"map overwrites scalar", `{"a":5}`, `{"a":{"b":1}}`, `{"a":{"b":1}}`},
		{"list overwrites map", `{"a":{"b":1}}`, `{"a":[1]}`, `{"a":[1]}`},
		{"nested null deletes", `{"a":{"b":1,"c":2}}`, `{"a":{"b":null}}`, `{"a":{"c":2}}`},
		{"null on missing key", `{"a":1}`, `{"z":null}`, `{"a":1}`},
		{"new key", `{}`, `{"x":{"y":[true]}}`, `{"x":{"y":[true]}}`},
		{"document from null", `null`, `{"a":1}`, `{"a":1}`},
		{"top-level lists", `[1]`, `[2,3]`, `[1,2,3]`},
		{"top-level scalar", `{"a":1}`, `"s"`, `"s"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(MustParse(tc.base), MustParse(tc.patch))
			if want := MustParse(tc.want); !got.Equal(want) {
				t.Errorf("Merge(%s, %s): expected %s, got %s", tc.base, tc.patch, want, got)
			}
		})
	}
}

func TestMergeDoesNotMutate(t *testing.T) {
	base := MustParse(`{"a":{"b":[1]},"c":1}`)
	patch := MustParse(`{"a":{"b":[2]},"c":null}`)
	baseCopy, patchCopy := base.Clone(), patch.Clone()

	Merge(base, patch)

	if !base.Equal(baseCopy) {
		t.Errorf("Base was modified: %s", base)
	}
	if !patch.Equal(patchCopy) {
		t.Errorf("Patch was modified: %s", patch)
	}
}

func TestValueNumbersKeepPrecision(t *testing.T) {
	v := MustParse(`{"big":12345678901234567890,"f":1.5}`)
	if got := v.String(); got != `{"big":12345678901234567890,"f":1.5}` {
		t.Errorf("Expected numbers to round-trip exactly, got %s", got)
	}
}

func TestFromAnyYAMLShapes(t *testing.T) {
	v, err := FromAny(map[string]any{
		"n":    7,
		"f":    2.5,
		"list": []any{"x", nil},
		"sub":  map[any]any{1: true},
	})
	if err != nil {
		t.Fatalf("Failed to convert: %v", err)
	}
	want := MustParse(`{"n":7,"f":2.5,"list":["x",null],"sub":{"1":true}}`)
	if !v.Equal(want) {
		t.Errorf("Expected %s, got %s", want, v)
	}
	if _, err := FromAny(struct{}{}); err == nil {
		t.Errorf("Expected unsupported type to fail")
	}
}
