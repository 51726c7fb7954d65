// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package htmt

import (
	"errors"
	"fmt"
	"strings"
)

// Syntax names the markers recognized by the template parser. A guard named
// N opens with "<N:arg>" and closes with "</N>". A reference named N is
// written "<N:key>" and has no closing marker.
//
// A field left empty takes its name from DefaultSyntax.
type Syntax struct {
	Iterate string `json:"iterate,omitempty" yaml:"iterate,omitempty"` // repeat the body per object
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`     // substitute a value from the tree
	Param   string `json:"param,omitempty" yaml:"param,omitempty"`     // substitute a request parameter
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`       // include the body for a status code
	Cond    string `json:"cond,omitempty" yaml:"cond,omitempty"`       // include the body if a condition holds
}

// DefaultSyntax is the marker syntax used by Parse.
var DefaultSyntax = Syntax{
	Iterate: "HTMT",
	Value:   "HTMTVAL",
	Param:   "HTMTPARAM",
	Code:    "HTMTCODE",
	Cond:    "HTMTCOND",
}

// withDefaults returns a copy of s with empty fields populated from
// DefaultSyntax.
func (s Syntax) withDefaults() Syntax {
	fill := func(v *string, dflt string) {
		if *v == "" {
			*v = dflt
		}
	}
	fill(&s.Iterate, DefaultSyntax.Iterate)
	fill(&s.Value, DefaultSyntax.Value)
	fill(&s.Param, DefaultSyntax.Param)
	fill(&s.Code, DefaultSyntax.Code)
	fill(&s.Cond, DefaultSyntax.Cond)
	return s
}

func (s Syntax) names() []string { return []string{s.Iterate, s.Value, s.Param, s.Code, s.Cond} }

// Validate reports an error if the marker names of s, after defaults are
// applied, are not usable: each must be non-empty, must not contain spaces
// or any of the characters < > : /, and all must be distinct.
func (s Syntax) Validate() error {
	s = s.withDefaults()
	var errs []error
	seen := make(map[string]bool)
	for _, name := range s.names() {
		if strings.ContainsAny(name, "<>:/ \t\r\n") {
			errs = append(errs, fmt.Errorf("invalid marker name %q", name))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("duplicate marker name %q", name))
		}
		seen[name] = true
	}
	return errors.Join(errs...)
}

func openMarker(name string) string  { return "<" + name + ":" }
func closeMarker(name string) string { return "</" + name + ">" }
