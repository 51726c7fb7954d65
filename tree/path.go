// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package tree

import "fmt"

// Path traverses a sequential path through the structure of t, where path
// elements are either strings (denoting keys) or integers (denoting offsets
// into the elements of a member). If the path is valid, the element reached
// is returned; its concrete type is *Tree, *Member, or string.
//
// If a path element is a string, the current element must be a tree, or a
// member holding exactly one tree, and the string selects the member of that
// tree with the given key.
//
// If a path element is an integer, the current element must be a member, and
// the integer selects one of its elements. Negative indices count backward
// from the end (-1 is last, -2 second last, etc.).
//
// With no path elements, Path returns t.
func Path(t *Tree, path ...any) (any, error) {
	var cur any = t
	for _, elt := range path {
		switch p := elt.(type) {
		case string:
			obj, ok := asTree(cur)
			if !ok {
				return nil, fmt.Errorf("cannot traverse %s with key %q", describe(cur), p)
			}
			m := obj.Find(p)
			if m == nil {
				return nil, fmt.Errorf("key %q not found", p)
			}
			cur = m
		case int:
			m, ok := cur.(*Member)
			if !ok {
				return nil, fmt.Errorf("cannot traverse %s with offset %d", describe(cur), p)
			}
			i, ok := fixBound(m.Len(), p)
			if !ok {
				return nil, fmt.Errorf("offset %d out of bounds (n=%d)", p, m.Len())
			}
			if m.kind == Objects {
				cur = m.objs[i]
			} else {
				cur = m.values[i]
			}
		default:
			return nil, fmt.Errorf("invalid path element %T", elt)
		}
	}
	return cur, nil
}

func asTree(v any) (*Tree, bool) {
	switch t := v.(type) {
	case *Tree:
		return t, true
	case *Member:
		if t.kind == Objects && len(t.objs) == 1 {
			return t.objs[0], true
		}
	}
	return nil, false
}

func describe(v any) string {
	switch t := v.(type) {
	case *Tree:
		return "tree"
	case *Member:
		return fmt.Sprintf("member %q (%d %v)", t.key, t.Len(), t.kind)
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func fixBound(n, i int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}
