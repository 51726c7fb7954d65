// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package htmt

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/creachadair/htmt/cond"
	"github.com/creachadair/htmt/internal/tagscan"
)

// SyntaxError is the concrete type of errors reported by the parser.
type SyntaxError struct {
	Name     string  // the name of the template, if known
	Offset   int     // byte offset of the error in the source
	Location LineCol // line and column of Offset
	Message  string

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	if s.Name != "" {
		return fmt.Sprintf("%s: at %s: %s", s.Name, s.Location, s.Message)
	}
	return fmt.Sprintf("at %s: %s", s.Location, s.Message)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }

// Options control the parsing of templates. A nil *Options is ready for use
// and provides default values as described.
type Options struct {
	// The markers recognized by the parser (default DefaultSyntax).
	Syntax Syntax

	// A name for the template, used in errors and log messages.
	Name string

	// The logger to which evaluation warnings are written by Apply.
	// If nil, warnings go to slog.Default.
	Logger *slog.Logger
}

func (o *Options) syntax() Syntax {
	if o == nil {
		return DefaultSyntax
	}
	return o.Syntax.withDefaults()
}

func (o *Options) name() string {
	if o == nil {
		return ""
	}
	return o.Name
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Parse parses src as a template using DefaultSyntax. In case of error, the
// concrete type is *SyntaxError.
func Parse(src string) (*Template, error) { return (*Options)(nil).Parse(src) }

// MustParse is as Parse, but panics if src is not a valid template.
func MustParse(src string) *Template {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse parses src as a template using the settings from o. In case of
// error, the concrete type is *SyntaxError.
func (o *Options) Parse(src string) (*Template, error) {
	syn := o.syntax()
	if err := syn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid syntax: %w", err)
	}
	p := &parser{
		src:  src,
		name: o.name(),
		guards: [...]guard{
			{openMarker(syn.Iterate), closeMarker(syn.Iterate), syn.Iterate},
			{openMarker(syn.Code), closeMarker(syn.Code), syn.Code},
			{openMarker(syn.Cond), closeMarker(syn.Cond), syn.Cond},
		},
		valueOpen: openMarker(syn.Value),
		paramOpen: openMarker(syn.Param),
	}
	nodes, err := p.parseSeq(0, len(src))
	if err != nil {
		return nil, err
	}
	return &Template{
		name:  p.name,
		src:   src,
		nodes: nodes,
		log:   o.logger(),
	}, nil
}

// Guard kinds, in priority order for ties.
const (
	guardIterate = iota
	guardCode
	guardCond
)

type guard struct {
	open, close, name string
}

type parser struct {
	src       string
	name      string
	guards    [3]guard
	valueOpen string
	paramOpen string
}

func (p *parser) failf(pos int, err error, msg string, args ...any) error {
	return &SyntaxError{
		Name:     p.name,
		Offset:   pos,
		Location: lineCol(p.src, pos),
		Message:  fmt.Sprintf(msg, args...),
		err:      err,
	}
}

// parseSeq parses the nodes in p.src[lo:hi]. The left-most guard in the
// range is parsed with its body; the text before it is split into literal
// text and references.
func (p *parser) parseSeq(lo, hi int) ([]Node, error) {
	var nodes []Node
	for lo < hi {
		at, which := tagscan.First(p.src[lo:hi], p.guards[0].open, p.guards[1].open, p.guards[2].open)
		if at < 0 {
			return p.parseRefs(nodes, lo, hi)
		}
		g := lo + at
		var err error
		nodes, err = p.parseRefs(nodes, lo, g)
		if err != nil {
			return nil, err
		}
		gd := p.guards[which]
		n := tagscan.Match(p.src[g:hi], gd.open, gd.close)
		if n < 0 {
			return nil, p.failf(g, nil, "unterminated %s tag: missing %q", gd.name, gd.close)
		}
		end := g + n

		// The argument ends at the first ">" after the open marker. If that is
		// not before the close marker, the open tag is incomplete.
		argLo := g + len(gd.open)
		argHi := argLo + strings.IndexByte(p.src[argLo:end], '>')
		bodyLo, bodyHi := argHi+1, end-len(gd.close)
		if argHi < argLo || bodyLo > bodyHi {
			return nil, p.failf(g, nil, "missing %q after %s tag", ">", gd.name)
		}

		body, err := p.parseSeq(bodyLo, bodyHi)
		if err != nil {
			return nil, err
		}
		node, err := p.newGuard(which, p.src[argLo:argHi], argLo, body, newSpan(g, end))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
		lo = end
	}
	return nodes, nil
}

func (p *parser) newGuard(which int, arg string, argPos int, body []Node, sp Span) (Node, error) {
	ns := nodeSpan{pos: sp.Pos, end: sp.End}
	switch which {
	case guardIterate:
		return &Iterate{nodeSpan: ns, Key: strings.TrimSpace(arg), Body: body}, nil
	case guardCode:
		code, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, p.failf(argPos, err, "invalid status code %q", arg)
		}
		return &CodeGuard{nodeSpan: ns, Code: code, Body: body}, nil
	case guardCond:
		expr, err := cond.Parse(arg)
		if err != nil {
			var se *cond.SyntaxError
			if errors.As(err, &se) {
				return nil, p.failf(argPos+se.Offset, err, "invalid condition: %s", se.Message)
			}
			return nil, p.failf(argPos, err, "invalid condition: %v", err)
		}
		return &CondGuard{nodeSpan: ns, Cond: expr, Body: body}, nil
	default:
		panic(fmt.Sprintf("unknown guard kind %d", which))
	}
}

// parseRefs appends to nodes the literal text and references in
// p.src[lo:hi], which contains no guards.
func (p *parser) parseRefs(nodes []Node, lo, hi int) ([]Node, error) {
	for lo < hi {
		at, which := tagscan.First(p.src[lo:hi], p.valueOpen, p.paramOpen)
		if at < 0 {
			return append(nodes, &Text{nodeSpan: nodeSpan{lo, hi}, Text: p.src[lo:hi]}), nil
		}
		r := lo + at
		if r > lo {
			nodes = append(nodes, &Text{nodeSpan: nodeSpan{lo, r}, Text: p.src[lo:r]})
		}
		open := p.valueOpen
		if which == 1 {
			open = p.paramOpen
		}
		keyLo := r + len(open)
		n := strings.IndexByte(p.src[keyLo:hi], '>')
		if n < 0 {
			return nil, p.failf(r, nil, "missing %q after reference", ">")
		}
		key, end := strings.TrimSpace(p.src[keyLo:keyLo+n]), keyLo+n+1
		if key == "" {
			return nil, p.failf(keyLo, nil, "empty reference name")
		}
		if which == 1 {
			nodes = append(nodes, &ParamRef{nodeSpan: nodeSpan{r, end}, Key: key})
		} else {
			nodes = append(nodes, &ValueRef{nodeSpan: nodeSpan{r, end}, Key: key})
		}
		lo = end
	}
	return nodes, nil
}
