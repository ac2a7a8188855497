package meta

import (
	"errors"
	"testing"
)

func TestQuery(t *testing.T) {
	doc := MustParse(`{
		"name": "nightly",
		"tags": ["a", "b", "c"],
		"runs": [{"id": 1, "ok": true}, {"id": 2, "ok": false}],
		"odd key": {"x": 1}
	}`)
	cases := map[string]string{
		"$":               doc.String(),
		"":                doc.String(),
		"name":            `"nightly"`,
		"$.name":          `"nightly"`,
		"tags[0]":         `"a"`,
		"$.tags[-1]":      `"c"`,
		"tags[9]":         `null`,
		"runs[1].id":      `2`,
		"runs[*].id":      `[1,2]`,
		"runs.*.ok":       `[true,false]`,
		`$["odd key"].x`:  `1`,
		"missing.deeper":  `null`,
		"$.runs[0]['ok']": `true`,
	}
	for expr, want := range cases {
		got, err := Query(doc, expr)
		if err != nil {
			t.Errorf("Query(%q) failed: %v", expr, err)
			continue
		}
		if !got.Equal(MustParse(want)) {
			t.Errorf("Query(%q): expected %s, got %s", expr, want, got)
		}
	}
}

func TestQueryErrors(t *testing.T) {
	doc := MustParse(`{"name":"x","tags":[1]}`)
	for _, expr := range []string{"name.first", "tags.x", "name[0]", "tags[abc]", "tags[0", "a..b"} {
		if _, err := Query(doc, expr); !errors.Is(err, ErrPath) {
			t.Errorf("Query(%q): expected ErrPath, got %v", expr, err)
		}
	}
}
