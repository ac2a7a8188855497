package meta

// Merge applies patch to base and returns the result. Neither input is
// modified.
//
// Member by member over an object:
//
//	patch value null        -> member removed
//	object onto object      -> merged recursively
//	array onto array        -> base items followed by patch items
//	anything else           -> patch value replaces base value
//	member absent in patch  -> base value kept
//
// The same rules apply to the documents as a whole. Array concatenation
// and null deletion inside nested members are intentional and differ from
// RFC 7396.
func Merge(base, patch Value) Value {
	switch {
	case base.kind == KindObject && patch.kind == KindObject:
		out := base.Clone()
		for k, pv := range patch.obj {
			if pv.kind == KindNull {
				delete(out.obj, k)
				continue
			}
			if bv, ok := out.obj[k]; ok {
				out.obj[k] = Merge(bv, pv)
			} else {
				out.obj[k] = pv.Clone()
			}
		}
		return out
	case base.kind == KindArray && patch.kind == KindArray:
		items := make([]Value, 0, len(base.arr)+len(patch.arr))
		for _, it := range base.arr {
			items = append(items, it.Clone())
		}
		for _, it := range patch.arr {
			items = append(items, it.Clone())
		}
		return Array(items...)
	}
	return patch.Clone()
}
