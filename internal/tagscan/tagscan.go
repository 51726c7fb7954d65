// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package tagscan finds the extent of nested, delimited regions of text.
//
// Both the template parser and the tree decoder use the same rule: the text
// begins with an opening marker, every later opening marker increases the
// depth, and the region ends just after the closing marker that would take
// the depth below zero. Markers are compared as exact substrings, so
// multi-byte tags like "<HTMT:" and "</HTMT>" nest the same way as "{" and "}".
package tagscan

import (
	"go4.org/mem"
)

// Match reports the offset in text just past the close marker that balances
// the open marker at the start of text. It returns -1 if text does not begin
// with open, or if the input ends before the open marker is balanced.
func Match(text, open, close string) int { return MatchEscaped(text, open, close, 0) }

// MatchEscaped is as Match, but if esc != 0 the byte following each
// occurrence of esc is skipped, so that escaped markers do not count.
func MatchEscaped(text, open, close string, esc byte) int {
	src, om, cm := mem.S(text), mem.S(open), mem.S(close)
	if open == "" || close == "" || !mem.HasPrefix(src, om) {
		return -1
	}

	// The marker at the start of text is depth 0.
	depth := 0
	for i := len(open); i < len(text); {
		if esc != 0 && text[i] == esc {
			i += 2
			continue
		}
		rest := src.SliceFrom(i)
		if mem.HasPrefix(rest, om) {
			depth++
			i += len(open)
		} else if mem.HasPrefix(rest, cm) {
			if depth == 0 {
				return i + len(close)
			}
			depth--
			i += len(close)
		} else {
			i++
		}
	}
	return -1
}

// First reports the offset of the left-most occurrence in text of any of the
// given markers, and the index of the marker found. If several markers occur
// at the same offset, the one listed first wins. If none occurs, First
// returns (-1, -1).
func First(text string, markers ...string) (pos, which int) {
	pos, which = -1, -1
	src := mem.S(text)
	for i, m := range markers {
		if m == "" {
			continue
		}
		lim := src
		if pos >= 0 {
			// Only a strictly earlier match can win.
			lim = src.SliceTo(min(len(text), pos+len(m)-1))
		}
		if p := mem.Index(lim, mem.S(m)); p >= 0 && (pos < 0 || p < pos) {
			pos, which = p, i
		}
	}
	return pos, which
}
