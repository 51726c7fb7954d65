// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"io"
	"strings"

	"github.com/creachadair/htmt/internal/escape"
	"go4.org/mem"
)

// A Formatter carries the settings for encoding trees as text.
// A zero value is ready for use and produces the compact encoding.
type Formatter struct {
	// If true, indent nested members and quote scalars.
	Pretty bool

	// The indentation added per level in pretty output (default "\t").
	Indent string
}

func (f Formatter) indent() string {
	if f.Indent == "" {
		return "\t"
	}
	return f.Indent
}

// Encode renders t as text, in compact form unless pretty is true.
func Encode(t *Tree, pretty bool) string { return Formatter{Pretty: pretty}.String(t) }

// String returns the compact encoding of t.
func (t *Tree) String() string { return Encode(t, false) }

// Format writes the encoding of t to w using the settings from f.
func (f Formatter) Format(w io.Writer, t *Tree) error {
	_, err := io.WriteString(w, f.String(t))
	return err
}

// String returns the encoding of t using the settings from f.
func (f Formatter) String(t *Tree) string {
	var sb strings.Builder
	f.formatTree(&sb, t, 0)
	return sb.String()
}

func (f Formatter) pad(sb *strings.Builder, depth int) {
	if f.Pretty {
		for range depth {
			sb.WriteString(f.indent())
		}
	}
}

func (f Formatter) newline(sb *strings.Builder) {
	if f.Pretty {
		sb.WriteByte('\n')
	}
}

// formatTree writes t, whose closing brace is indented to depth. The opening
// brace is not indented; the caller has already positioned it.
func (f Formatter) formatTree(sb *strings.Builder, t *Tree, depth int) {
	if t.Len() == 0 {
		sb.WriteString("{}")
		return
	}
	sb.WriteByte('{')
	f.newline(sb)
	for i, m := range t.members {
		f.pad(sb, depth+1)
		f.formatKey(sb, m.key)
		sb.WriteByte(':')
		if f.Pretty {
			sb.WriteByte(' ')
		}
		f.formatMember(sb, m, depth+1)
		if i+1 < len(t.members) {
			sb.WriteByte(',')
		}
		f.newline(sb)
	}
	f.pad(sb, depth)
	sb.WriteByte('}')
}

// formatMember writes the elements of m, a member at the given depth.
func (f Formatter) formatMember(sb *strings.Builder, m *Member, depth int) {
	if !m.Bracketed() {
		if m.kind == Objects {
			f.formatTree(sb, m.objs[0], depth)
		} else {
			f.formatScalar(sb, m.values[0])
		}
		return
	}

	sb.WriteByte('[')
	f.newline(sb)
	n := m.Len()
	for i := range n {
		f.pad(sb, depth+1)
		if m.kind == Objects {
			f.formatTree(sb, m.objs[i], depth+1)
		} else {
			f.formatScalar(sb, m.values[i])
		}
		if i+1 < n {
			sb.WriteByte(',')
		}
		f.newline(sb)
	}
	f.pad(sb, depth)
	sb.WriteByte(']')
}

func (f Formatter) formatKey(sb *strings.Builder, key string) {
	extra := escape.Key
	if f.Pretty {
		extra += escape.Space
	}
	sb.Write(escape.Escape(mem.S(key), extra))
}

func (f Formatter) formatScalar(sb *strings.Builder, s string) {
	if f.Pretty {
		sb.Write(escape.Quote(mem.S(s)))
	} else {
		sb.Write(escape.Escape(mem.S(s), ""))
	}
}
