package meta

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrPath = errors.New("meta: bad path")

// Query evaluates a read-only path against v.
//
//	$                 the document
//	.name  ["name"]   object member
//	[2]  [-1]         array item, negative counts from the end
//	.*  [*]           every member or item, collected into an array
//
// The leading "$" and the first "." are optional. Missing members and
// out-of-range items evaluate to null.
func Query(v Value, expr string) (Value, error) {
	steps, err := parsePath(expr)
	if err != nil {
		return Value{}, err
	}
	return eval(v, steps)
}

type step struct {
	name     string
	index    int
	isIndex  bool
	wildcard bool
}

func parsePath(expr string) ([]step, error) {
	s := strings.TrimSpace(expr)
	s = strings.TrimPrefix(s, "$")
	var steps []step
	first := true
	for len(s) > 0 {
		switch {
		case s[0] == '.':
			s = s[1:]
			fallthrough
		case first && s[0] != '[':
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}
			name := s[:end]
			if name == "" {
				return nil, fmt.Errorf("%w: empty member name in %q", ErrPath, expr)
			}
			if name == "*" {
				steps = append(steps, step{wildcard: true})
			} else {
				steps = append(steps, step{name: name})
			}
			s = s[end:]
		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed [ in %q", ErrPath, expr)
			}
			inner := strings.TrimSpace(s[1:end])
			s = s[end+1:]
			st, err := bracketStep(inner, expr)
			if err != nil {
				return nil, err
			}
			steps = append(steps, st)
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrPath, s[0], expr)
		}
		first = false
	}
	return steps, nil
}

func bracketStep(inner, expr string) (step, error) {
	switch {
	case inner == "*":
		return step{wildcard: true}, nil
	case len(inner) >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[len(inner)-1] == inner[0]:
		return step{name: inner[1 : len(inner)-1]}, nil
	}
	i, err := strconv.Atoi(inner)
	if err != nil {
		return step{}, fmt.Errorf("%w: bad index %q in %q", ErrPath, inner, expr)
	}
	return step{index: i, isIndex: true}, nil
}

func eval(v Value, steps []step) (Value, error) {
	if len(steps) == 0 {
		return v, nil
	}
	st, rest := steps[0], steps[1:]

	if st.wildcard {
		var children []Value
		switch v.kind {
		case KindArray:
			children = v.arr
		case KindObject:
			for _, k := range v.Keys() {
				children = append(children, v.obj[k])
			}
		case KindNull:
			return Null(), nil
		default:
			return Value{}, fmt.Errorf("%w: cannot expand %s", ErrPath, v.kind)
		}
		out := make([]Value, 0, len(children))
		for _, c := range children {
			r, err := eval(c, rest)
			if err != nil {
				return Value{}, err
			}
			out = append(out, r)
		}
		return Array(out...), nil
	}

	switch v.kind {
	case KindNull:
		return Null(), nil
	case KindObject:
		if st.isIndex {
			return Value{}, fmt.Errorf("%w: cannot index object with [%d]", ErrPath, st.index)
		}
		f, ok := v.obj[st.name]
		if !ok {
			return Null(), nil
		}
		return eval(f, rest)
	case KindArray:
		if !st.isIndex {
			return Value{}, fmt.Errorf("%w: cannot read member %q of array", ErrPath, st.name)
		}
		i := st.index
		if i < 0 {
			i += len(v.arr)
		}
		if i < 0 || i >= len(v.arr) {
			return Null(), nil
		}
		return eval(v.arr[i], rest)
	}
	return Value{}, fmt.Errorf("%w: cannot descend into %s", ErrPath, v.kind)
}
