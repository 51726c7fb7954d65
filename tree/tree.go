// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package tree defines the hierarchical data tree exchanged between the data
// server and the template translator, along with its text encoding.
//
// A Tree is an ordered collection of members. Each member has a key and a
// non-empty list of elements, which are either all strings (a value list) or
// all child trees (an object list). The kind of a member is fixed when its key
// is first added; adding an element of the other kind is a programming error
// and panics with a *ShapeError.
//
// Trees are built incrementally:
//
//	var row tree.Tree
//	row.Add("Owner", "A")
//	row.Add("Plate", "ABC")
//
//	var res tree.Tree
//	res.AddObjectList("Vehicles", &row)
//	fmt.Println(res.String()) // {Vehicles:[{Owner:A,Plate:ABC}]}
//
// # Encoding
//
// The compact encoding writes a tree as {key:value,...}. A member with a
// single element is written bare, unless it is a forced array; otherwise its
// elements are enclosed in brackets. Nested trees are enclosed in braces. Any
// of the bytes \ { } [ ] , inside a key or scalar is escaped with a
// backslash, as is a colon inside a key. Other bytes, including quotation
// marks, are written as they are. Decode inverts Encode for every tree built
// with the Add methods.
//
// The pretty encoding indents each level with a tab, puts each member on its
// own line and quotes scalars. DecodeLoose accepts it.
package tree

import (
	"fmt"
	"slices"
)

// Kind identifies the shape of the elements of a member.
type Kind byte

// Constants defining the valid Kind values.
const (
	Invalid Kind = iota // invalid kind
	Values              // a list of strings
	Objects             // a list of child trees
)

var kindStr = [...]string{
	Invalid: "invalid",
	Values:  "values",
	Objects: "objects",
}

func (k Kind) String() string {
	if int(k) >= len(kindStr) {
		return kindStr[Invalid]
	}
	return kindStr[k]
}

// A Tree is an ordered collection of keyed members. The zero value is an
// empty tree ready for use. A nil *Tree is treated as empty by all the
// methods that do not modify the tree.
type Tree struct {
	members []*Member
}

// New constructs a new empty tree.
func New() *Tree { return new(Tree) }

// A Member is a single key and its elements, belonging to a Tree.
type Member struct {
	key    string
	kind   Kind
	forced bool
	values []string
	objs   []*Tree
}

// Key returns the key of m.
func (m *Member) Key() string { return m.key }

// Kind reports whether m holds strings or child trees.
func (m *Member) Kind() Kind { return m.kind }

// Forced reports whether m was marked as a forced array when it was added.
func (m *Member) Forced() bool { return m.forced }

// Bracketed reports whether the encoding of m encloses its elements in
// brackets, which is true if m is forced or has more than one element.
func (m *Member) Bracketed() bool { return m.forced || m.Len() > 1 }

// Len returns the number of elements of m.
func (m *Member) Len() int {
	if m.kind == Objects {
		return len(m.objs)
	}
	return len(m.values)
}

// Values returns a copy of the strings of m, or nil if m holds objects.
func (m *Member) Values() []string { return slices.Clone(m.values) }

// Objects returns a copy of the child trees of m, or nil if m holds strings.
// The trees themselves are shared with m.
func (m *Member) Objects() []*Tree { return slices.Clone(m.objs) }

// Single returns the only string of m. It reports false if m holds objects,
// or does not have exactly one element.
func (m *Member) Single() (string, bool) {
	if m.kind != Values || len(m.values) != 1 {
		return "", false
	}
	return m.values[0], true
}

// Len returns the number of members of t.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.members)
}

// Members returns the members of t in insertion order.
func (t *Tree) Members() []*Member {
	if t == nil {
		return nil
	}
	return slices.Clone(t.members)
}

// Keys returns the keys of t in insertion order.
func (t *Tree) Keys() []string {
	keys := make([]string, t.Len())
	for i := range keys {
		keys[i] = t.members[i].key
	}
	return keys
}

// Find returns the member of t with the given key, or nil.
func (t *Tree) Find(key string) *Member {
	if t == nil {
		return nil
	}
	for _, m := range t.members {
		if m.key == key {
			return m
		}
	}
	return nil
}

// Value returns the only string stored under key. It reports false if key is
// absent, holds objects, or holds other than exactly one string.
func (t *Tree) Value(key string) (string, bool) {
	if m := t.Find(key); m != nil {
		return m.Single()
	}
	return "", false
}

// Objects returns the child trees stored under key. It returns nil if key is
// absent or holds strings.
func (t *Tree) Objects(key string) []*Tree {
	if m := t.Find(key); m != nil {
		return m.Objects()
	}
	return nil
}

// Add appends value to the strings stored under key. If key is new, it is
// added to the end of t. Add panics with a *ShapeError if key holds objects.
func (t *Tree) Add(key, value string) { t.mustAdd(key, false, Values, value, nil) }

// AddList is as Add, but if key is new it is marked as a forced array, so
// that its elements are always enclosed in brackets.
func (t *Tree) AddList(key, value string) { t.mustAdd(key, true, Values, value, nil) }

// AddObject appends obj to the child trees stored under key. If key is new,
// it is added to the end of t. A nil obj is added as an empty tree.
// AddObject panics with a *ShapeError if key holds strings.
//
// The caller must not modify obj after adding it.
func (t *Tree) AddObject(key string, obj *Tree) { t.mustAdd(key, false, Objects, "", obj) }

// AddObjectList is as AddObject, but if key is new it is marked as a forced
// array.
func (t *Tree) AddObjectList(key string, obj *Tree) { t.mustAdd(key, true, Objects, "", obj) }

func (t *Tree) mustAdd(key string, forced bool, kind Kind, s string, obj *Tree) {
	if err := t.add(key, forced, kind, s, obj); err != nil {
		panic(err)
	}
}

// add appends an element under key, or reports a *ShapeError if the kind of
// the element does not match the existing elements.
func (t *Tree) add(key string, forced bool, kind Kind, s string, obj *Tree) error {
	m := t.Find(key)
	if m == nil {
		m = &Member{key: key, kind: kind, forced: forced}
		t.members = append(t.members, m)
	} else if m.kind != kind {
		return &ShapeError{Key: key, Have: m.kind, Add: kind}
	}
	if kind == Objects {
		if obj == nil {
			obj = new(Tree)
		}
		m.objs = append(m.objs, obj)
	} else {
		m.values = append(m.values, s)
	}
	return nil
}

// Equal reports whether a and b are structurally equal: they have the same
// keys in the same order, and corresponding members have the same kind, the
// same elements in the same order, and the same bracketed rendering.
func Equal(a, b *Tree) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		ma, mb := a.members[i], b.members[i]
		if ma.key != mb.key || ma.kind != mb.kind || ma.Bracketed() != mb.Bracketed() {
			return false
		}
		if !slices.Equal(ma.values, mb.values) {
			return false
		}
		if !slices.EqualFunc(ma.objs, mb.objs, Equal) {
			return false
		}
	}
	return true
}

// ShapeError is the concrete type of the panic reported when an element is
// added to a member holding elements of the other kind.
type ShapeError struct {
	Key  string // the key of the member
	Have Kind   // the kind already stored under Key
	Add  Kind   // the kind of the element being added
}

// Error satisfies the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("key %q holds %v, cannot add %v", e.Key, e.Have, e.Add)
}
