// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creachadair/htmt/internal/escape"
	"github.com/creachadair/htmt/internal/tagscan"
	"go4.org/mem"
)

// DecodeError is the concrete type of errors reported by Decode and
// DecodeLoose.
type DecodeError struct {
	Offset  int // byte offset of the error in the (compacted) input
	Message string

	err error
}

// Error satisfies the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %s (offset %d)", e.Message, e.Offset)
}

// Unwrap supports error wrapping.
func (e *DecodeError) Unwrap() error { return e.err }

func failf(pos int, msg string, args ...any) error {
	return &DecodeError{Offset: pos, Message: fmt.Sprintf(msg, args...)}
}

// Decode parses the compact encoding of a tree. The input must begin with
// "{" and end with the matching "}". In case of error, Decode returns a nil
// tree and an error of concrete type *DecodeError.
func Decode(text string) (*Tree, error) {
	if text == "" || text[0] != '{' || text[len(text)-1] != '}' {
		return nil, failf(0, "input must begin with %q and end with %q", "{", "}")
	}
	t, err := decodeObject(text, 0)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// decodeObject decodes src, which begins with "{", whose first byte is at
// offset base of the input.
func decodeObject(src string, base int) (*Tree, error) {
	end := tagscan.MatchEscaped(src, "{", "}", '\\')
	if end < 0 {
		return nil, failf(base, "unterminated object")
	} else if end != len(src) {
		return nil, failf(base+end, "unexpected input after object")
	}

	t := new(Tree)
	body, off := src[1:end-1], base+1
	for i := 0; i < len(body); {
		div := escape.IndexUnescaped(body[i:], ':')
		if div < 0 {
			return nil, failf(off+i, "missing %q after key", ":")
		}
		key, err := unescapeText(body[i:i+div], off+i, "{}[],")
		if err != nil {
			return nil, err
		}

		v := i + div + 1
		next, err := decodeMember(t, key, body, v, off)
		if err != nil {
			return nil, err
		}
		if next == len(body) {
			break
		} else if body[next] != ',' {
			return nil, failf(off+next, "got %q, want %q after value", body[next], ",")
		}
		i = next + 1
		if i == len(body) {
			return nil, failf(off+next, "trailing %q in object", ",")
		}
	}
	return t, nil
}

// decodeMember decodes the value beginning at offset v of body and adds it
// to t under key. It returns the offset of the first byte after the value.
func decodeMember(t *Tree, key, body string, v, off int) (int, error) {
	if v == len(body) {
		return v, addAt(t, key, false, Values, "", nil, off+v)
	}
	switch body[v] {
	case '{':
		end := tagscan.MatchEscaped(body[v:], "{", "}", '\\')
		if end < 0 {
			return 0, failf(off+v, "unterminated object")
		}
		obj, err := decodeObject(body[v:v+end], off+v)
		if err != nil {
			return 0, err
		}
		return v + end, addAt(t, key, false, Objects, "", obj, off+v)

	case '[':
		end := tagscan.MatchEscaped(body[v:], "[", "]", '\\')
		if end < 0 {
			return 0, failf(off+v, "unterminated array")
		}
		if err := decodeArray(t, key, body[v+1:v+end-1], off+v+1); err != nil {
			return 0, err
		}
		return v + end, nil

	default:
		n := escape.IndexUnescaped(body[v:], ',')
		if n < 0 {
			n = len(body) - v
		}
		s, err := unescapeText(body[v:v+n], off+v, "{}[]")
		if err != nil {
			return 0, err
		}
		return v + n, addAt(t, key, false, Values, s, nil, off+v)
	}
}

// decodeArray decodes the elements of an array, without its brackets, and
// adds them to t under key. The shape of the first element decides the kind
// of the whole array.
func decodeArray(t *Tree, key, body string, off int) error {
	// Only a single-element array needs the forced mark to keep its brackets.
	forced := isSingleton(body)
	if body == "" || body[0] != '{' {
		for i := 0; ; {
			n := escape.IndexUnescaped(body[i:], ',')
			if n < 0 {
				n = len(body) - i
			}
			s, err := unescapeText(body[i:i+n], off+i, "{}[]")
			if err != nil {
				return err
			}
			if err := addAt(t, key, forced, Values, s, nil, off+i); err != nil {
				return err
			}
			i += n
			if i == len(body) {
				return nil
			}
			i++ // skip comma
		}
	}
	for i := 0; i < len(body); {
		if body[i] != '{' {
			return failf(off+i, "array mixes objects and values")
		}
		end := tagscan.MatchEscaped(body[i:], "{", "}", '\\')
		if end < 0 {
			return failf(off+i, "unterminated object")
		}
		obj, err := decodeObject(body[i:i+end], off+i)
		if err != nil {
			return err
		}
		if err := addAt(t, key, forced, Objects, "", obj, off+i); err != nil {
			return err
		}
		i += end
		if i == len(body) {
			break
		} else if body[i] != ',' {
			return failf(off+i, "got %q, want %q after array element", body[i], ",")
		} else if i+1 == len(body) {
			return failf(off+i, "trailing %q in array", ",")
		}
		i++
	}
	return nil
}

// isSingleton reports whether the array body has exactly one element.
func isSingleton(body string) bool {
	if body != "" && body[0] == '{' {
		end := tagscan.MatchEscaped(body, "{", "}", '\\')
		return end == len(body)
	}
	return escape.IndexUnescaped(body, ',') < 0
}

// addAt adds an element to t, converting a shape mismatch into a decoding
// error at the given offset.
func addAt(t *Tree, key string, forced bool, kind Kind, s string, obj *Tree, pos int) error {
	if err := t.add(key, forced, kind, s, obj); err != nil {
		return &DecodeError{Offset: pos, Message: err.Error(), err: err}
	}
	return nil
}

// unescapeText decodes a key or scalar beginning at offset pos, which must
// not contain any unescaped byte of bad.
func unescapeText(raw string, pos int, bad string) (string, error) {
	if i := escape.IndexAnyUnescaped(raw, bad); i >= 0 {
		return "", failf(pos+i, "unexpected %q", raw[i])
	}
	dec, err := escape.Unescape(mem.S(raw))
	if err != nil {
		return "", &DecodeError{Offset: pos + len(raw), Message: err.Error(), err: err}
	}
	return string(dec), nil
}

// DecodeLoose parses the encoding of a tree that may contain insignificant
// whitespace and quoted scalars, as produced by the pretty encoding.
// Whitespace outside quotes is discarded unless escaped; quoted text is kept
// verbatim. The remaining text is decoded as by Decode, and error offsets
// refer to that compacted text.
func DecodeLoose(text string) (*Tree, error) {
	compact, err := compactText(text)
	if err != nil {
		return nil, err
	}
	return Decode(compact)
}

var errUnterminatedQuote = errors.New("unterminated quotation")

// compactText converts loose text into the compact encoding.
func compactText(text string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(text))

	quote := -1 // offset of the open quotation mark, or -1
	for i := 0; i < len(text); i++ {
		b := text[i]
		if b == '\\' {
			if i+1 == len(text) {
				return "", failf(i, "incomplete escape sequence")
			}
			i++
			b = text[i]
			if quote < 0 || escape.IsSpecial(b) {
				sb.WriteByte('\\')
			}
			sb.WriteByte(b)
			continue
		}
		if quote >= 0 {
			if b == '"' {
				quote = -1
				continue
			}
			if escape.IsSpecial(b) {
				sb.WriteByte('\\')
			}
			sb.WriteByte(b)
			continue
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			// discard
		case '"':
			quote = i
		default:
			sb.WriteByte(b)
		}
	}
	if quote >= 0 {
		return "", &DecodeError{Offset: quote, Message: errUnterminatedQuote.Error(), err: errUnterminatedQuote}
	}
	return sb.String(), nil
}
