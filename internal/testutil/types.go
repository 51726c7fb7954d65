// Package testutil defines support code for unit tests.
package testutil

import (
	"math/rand/v2"
	"strings"

	"github.com/creachadair/htmt/tree"
)

// alphabet mixes plain text with every byte that has structural meaning in
// either tree encoding.
const alphabet = "abcXYZ019 _-.\t\n\\{}[],:\"'<>="

// RandomString returns a string of up to n bytes drawn from an alphabet that
// includes the special characters of the tree encodings.
func RandomString(r *rand.Rand, n int) string {
	var sb strings.Builder
	for range r.IntN(n + 1) {
		sb.WriteByte(alphabet[r.IntN(len(alphabet))])
	}
	return sb.String()
}

// RandomTree constructs a tree using only the Add methods, with nested trees
// up to the given depth.
func RandomTree(r *rand.Rand, depth int) *tree.Tree {
	t := tree.New()
	for range r.IntN(5) {
		key := RandomString(r, 6)
		m := t.Find(key)
		isObj := depth > 0 && r.IntN(3) == 0
		if m != nil {
			isObj = m.Kind() == tree.Objects
		}
		for range 1 + r.IntN(3) {
			forced := r.IntN(2) == 0
			switch {
			case isObj && forced:
				t.AddObjectList(key, RandomTree(r, depth-1))
			case isObj:
				t.AddObject(key, RandomTree(r, depth-1))
			case forced:
				t.AddList(key, RandomString(r, 8))
			default:
				t.Add(key, RandomString(r, 8))
			}
		}
	}
	return t
}

// Rows constructs a tree with key holding one object per row, where each row
// is a list of alternating keys and values.
func Rows(key string, rows ...[]string) *tree.Tree {
	t := tree.New()
	for _, row := range rows {
		obj := tree.New()
		for i := 0; i+1 < len(row); i += 2 {
			obj.Add(row[i], row[i+1])
		}
		t.AddObjectList(key, obj)
	}
	return t
}
