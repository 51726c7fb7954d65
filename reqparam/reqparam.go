// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package reqparam decodes the request parameters that templates refer to
// from URL-encoded query strings and form bodies.
package reqparam

import (
	"net/url"
	"strings"
)

// Params is a flat set of request parameters. Each name has one value.
type Params map[string]string

// Parse decodes raw, a sequence of name=value pairs separated by "&".
// Names and values are percent-decoded, with "+" standing for a space; text
// that is not a valid encoding is kept as written. A pair without "=" has an
// empty value. When a name repeats, the last value wins.
func Parse(raw string) Params {
	out := make(Params)
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		name, value, _ := strings.Cut(pair, "=")
		out[unescape(name)] = unescape(value)
	}
	return out
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}

// Merge returns a new Params containing the parameters of each argument in
// order, so that later values replace earlier ones.
func Merge(ps ...Params) Params {
	out := make(Params)
	for _, p := range ps {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

// Has reports whether p has a parameter with the given name. Unless
// allowEmpty is true, the value must also be non-empty.
func (p Params) Has(name string, allowEmpty bool) bool {
	v, ok := p[name]
	return ok && (allowEmpty || v != "")
}

// HasAll reports whether p has every one of the named parameters, as for Has.
func (p Params) HasAll(allowEmpty bool, names ...string) bool {
	for _, name := range names {
		if !p.Has(name, allowEmpty) {
			return false
		}
	}
	return true
}

// HasAny reports whether p has at least one of the named parameters, as for
// Has.
func (p Params) HasAny(allowEmpty bool, names ...string) bool {
	for _, name := range names {
		if p.Has(name, allowEmpty) {
			return true
		}
	}
	return false
}
