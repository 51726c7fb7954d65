// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package escape handles escaping and unescaping of keys and scalars in the
// tree wire format.
package escape

import (
	"errors"

	"go4.org/mem"
)

// Unescape decodes a key or scalar from the compact encoding. Each backslash
// is removed and the byte following it is kept literally. Unescape reports an
// error if src ends with an incomplete escape sequence.
func Unescape(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(dec, src), nil
	}
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		dec = append(dec, src.At(0))
		src = src.SliceFrom(1)

		// Look for the next escape, and if there is none blit the remainder.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

// IndexUnescaped returns the offset of the first occurrence of b in s that is
// not preceded by an escaping backslash, or -1.
func IndexUnescaped(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case b:
			return i
		}
	}
	return -1
}

// IndexAnyUnescaped returns the offset of the first unescaped byte of s that
// occurs in chars, or -1.
func IndexAnyUnescaped(s, chars string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if mem.IndexByte(mem.S(chars), s[i]) >= 0 {
			return i
		}
	}
	return -1
}
