// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package htmt

import (
	"fmt"
	"strings"
)

// A Span describes a contiguous span of a source input.
type Span struct {
	Pos int // the start offset, 0-based
	End int // the end offset, 0-based (noninclusive)
}

func newSpan(pos, end int) Span { return Span{Pos: pos, End: end} }

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// A Location describes the complete location of a range of source text,
// including line and column offsets.
type Location struct {
	Span
	First, Last LineCol
}

func (loc Location) String() string {
	if loc.First == loc.Last {
		return loc.First.String()
	}
	return loc.First.String() + "-" + loc.Last.String()
}

// lineCol returns the line and column of offset pos in src.
func lineCol(src string, pos int) LineCol {
	pos = min(max(pos, 0), len(src))
	line := strings.Count(src[:pos], "\n")
	col := pos - (strings.LastIndexByte(src[:pos], '\n') + 1)
	return LineCol{Line: line + 1, Column: col}
}

// locate returns the complete location of sp in src.
func locate(src string, sp Span) Location {
	return Location{Span: sp, First: lineCol(src, sp.Pos), Last: lineCol(src, sp.End)}
}
