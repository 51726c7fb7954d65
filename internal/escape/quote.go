// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package escape

import (
	"go4.org/mem"
)

// Special lists the bytes that carry structure in the compact tree encoding.
// Each must be preceded by a backslash when it occurs in a key or scalar.
const Special = `\{}[],`

// Key lists the bytes escaped in keys in addition to Special. A key ends at
// the first unescaped colon; a scalar ends only at a comma.
const Key = ":"

// Space lists the bytes that are escaped in keys of the pretty encoding,
// where unescaped whitespace is insignificant and a quotation mark begins a
// quoted scalar.
const Space = " \t\r\n\""

var special = func() (tab [256]bool) {
	for i := 0; i < len(Special); i++ {
		tab[Special[i]] = true
	}
	return
}()

// IsSpecial reports whether b must be escaped in the compact encoding.
func IsSpecial(b byte) bool { return special[b] }

// Escape returns a copy of src in which every byte of Special, as well as
// every byte of extra, is preceded by a backslash.
func Escape(src mem.RO, extra string) []byte {
	buf := make([]byte, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		b := src.At(i)
		if special[b] || (extra != "" && mem.IndexByte(mem.S(extra), b) >= 0) {
			buf = append(buf, '\\')
		}
		buf = append(buf, b)
	}
	return buf
}

// Quote encodes src as a double-quoted scalar for the pretty encoding.
// Only double quotes and backslashes are escaped inside the quotes.
func Quote(src mem.RO) []byte {
	buf := make([]byte, 0, src.Len()+2)
	buf = append(buf, '"')
	for i := 0; i < src.Len(); i++ {
		b := src.At(i)
		if b == '"' || b == '\\' {
			buf = append(buf, '\\')
		}
		buf = append(buf, b)
	}
	return append(buf, '"')
}
