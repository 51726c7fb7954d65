// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package cond implements the condition expressions used by template guards.
//
// An expression is a sequence of terms joined by the keywords "and" and "or"
// (in any letter case). Each term compares the value of a key in a tree with
// a constant:
//
//	key=value     true if key holds exactly one string equal to value
//	key!=value    true if key holds exactly one string not equal to value
//	key!value     same as key!=value
//
// Keys and constants are bare words, or double-quoted Go string literals when
// they contain spaces, operators, or keywords. An empty term is true.
//
// Terms are combined strictly left to right, with no precedence:
//
//	a=1 and b=2 or c=3   ≡   (a=1 and b=2) or c=3
//
// A key absent from the tree never satisfies "=" and always satisfies "!=".
// A key holding child objects or more than one string satisfies neither.
// Both cases are reported as warnings by EvalReport.
package cond

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/creachadair/htmt/tree"
)

// Op is a comparison operator.
type Op byte

// Constants defining the valid Op values.
const (
	Always   Op = iota // an empty term, always true
	Equal              // key=value
	NotEqual           // key!=value
)

func (o Op) String() string {
	switch o {
	case Always:
		return ""
	case Equal:
		return "="
	case NotEqual:
		return "!="
	default:
		return "?"
	}
}

// A Term is a single comparison of a key against a constant.
type Term struct {
	Key   string
	Op    Op
	Value string
}

// String renders the term in a form accepted by Parse.
func (t Term) String() string {
	if t.Op == Always {
		return ""
	}
	return quoteWord(t.Key) + t.Op.String() + quoteWord(t.Value)
}

// Conj is a conjunction joining two terms.
type Conj byte

// Constants defining the valid Conj values.
const (
	And Conj = iota
	Or
)

func (c Conj) String() string {
	if c == Or {
		return "or"
	}
	return "and"
}

// An Expr is a parsed condition expression. A nil *Expr is always true.
type Expr struct {
	terms []Term
	conj  []Conj // conj[i] joins terms[i] and terms[i+1]
}

// A Warning describes a term whose key could not be compared as a single
// string.
type Warning struct {
	Key     string
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("key %q: %s", w.Key, w.Message) }

// Terms returns the terms of e in order.
func (e *Expr) Terms() []Term {
	if e == nil {
		return nil
	}
	return append([]Term(nil), e.terms...)
}

// String renders e in a form accepted by Parse.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	for i, t := range e.terms {
		if i > 0 {
			fmt.Fprintf(&sb, " %s ", e.conj[i-1])
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Eval reports whether e is true for the members of t.
func (e *Expr) Eval(t *tree.Tree) bool { return e.EvalReport(t, nil) }

// EvalReport reports whether e is true for the members of t. If report is not
// nil, it is called for each term whose key is absent or does not hold exactly
// one string. Every term is evaluated, even when the result is already known.
func (e *Expr) EvalReport(t *tree.Tree, report func(Warning)) bool {
	if e == nil || len(e.terms) == 0 {
		return true
	}
	if report == nil {
		report = func(Warning) {}
	}
	ok := e.terms[0].eval(t, report)
	for i, c := range e.conj {
		next := e.terms[i+1].eval(t, report)
		if c == And {
			ok = ok && next
		} else {
			ok = ok || next
		}
	}
	return ok
}

func (t Term) eval(data *tree.Tree, report func(Warning)) bool {
	if t.Op == Always {
		return true
	}
	m := data.Find(t.Key)
	if m == nil {
		report(Warning{Key: t.Key, Message: "key not found"})
		return t.Op == NotEqual
	}
	s, ok := m.Single()
	if !ok {
		if m.Kind() == tree.Objects {
			report(Warning{Key: t.Key, Message: "key holds objects"})
		} else {
			report(Warning{Key: t.Key, Message: fmt.Sprintf("key holds %d values", m.Len())})
		}
		return false
	}
	if t.Op == Equal {
		return s == t.Value
	}
	return s != t.Value
}

// SyntaxError is the concrete type of errors reported by Parse.
type SyntaxError struct {
	Offset  int // byte offset of the error in the expression
	Message string
}

// Error satisfies the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condition: %s (offset %d)", e.Message, e.Offset)
}

func failf(pos int, msg string, args ...any) error {
	return &SyntaxError{Offset: pos, Message: fmt.Sprintf(msg, args...)}
}

// MustParse is as Parse, but panics if text is not a valid expression.
func MustParse(text string) *Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// Parse parses a condition expression. An empty or blank expression is
// always true. In case of error, the concrete type is *SyntaxError.
func Parse(text string) (*Expr, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	e := new(Expr)
	var cur []token
	addTerm := func(pos int) error {
		t, err := parseTerm(cur, pos)
		if err != nil {
			return err
		}
		e.terms = append(e.terms, t)
		cur = cur[:0]
		return nil
	}
	for _, tok := range toks {
		if tok.kind == tokWord {
			if c, ok := keyword(tok.text); ok {
				if err := addTerm(tok.pos); err != nil {
					return nil, err
				}
				e.conj = append(e.conj, c)
				continue
			}
		}
		cur = append(cur, tok)
	}
	if err := addTerm(len(text)); err != nil {
		return nil, err
	}
	return e, nil
}

// parseTerm constructs a term from its tokens; end is the offset where the
// term ends in the input.
func parseTerm(toks []token, end int) (Term, error) {
	switch len(toks) {
	case 0:
		return Term{Op: Always}, nil
	case 1:
		return Term{}, failf(end, "missing operator after %q", toks[0].text)
	}
	if !toks[0].isOperand() {
		return Term{}, failf(toks[0].pos, "expected key, got %q", toks[0].text)
	}
	t := Term{Key: toks[0].text}
	switch toks[1].kind {
	case tokEq:
		t.Op = Equal
	case tokNeq:
		t.Op = NotEqual
	default:
		return Term{}, failf(toks[1].pos, "expected operator, got %q", toks[1].text)
	}
	if len(toks) > 2 {
		if !toks[2].isOperand() {
			return Term{}, failf(toks[2].pos, "expected value, got %q", toks[2].text)
		}
		t.Value = toks[2].text
	}
	if len(toks) > 3 {
		return Term{}, failf(toks[3].pos, "unexpected %q after term", toks[3].text)
	}
	return t, nil
}

func keyword(s string) (Conj, bool) {
	switch {
	case strings.EqualFold(s, "and"):
		return And, true
	case strings.EqualFold(s, "or"):
		return Or, true
	}
	return 0, false
}

type tokenKind int

const (
	tokWord   tokenKind = iota // bare word
	tokString                  // quoted string, text is unquoted
	tokEq                      // =
	tokNeq                     // != or !
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) isOperand() bool { return t.kind == tokWord || t.kind == tokString }

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

func isWordByte(b byte) bool { return !isSpace(b) && b != '=' && b != '!' && b != '"' }

func tokenize(text string) ([]token, error) {
	var toks []token
	for i := 0; i < len(text); {
		switch b := text[i]; {
		case isSpace(b):
			i++
		case b == '=':
			toks = append(toks, token{kind: tokEq, text: "=", pos: i})
			i++
		case b == '!':
			if i+1 < len(text) && text[i+1] == '=' {
				toks = append(toks, token{kind: tokNeq, text: "!=", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokNeq, text: "!", pos: i})
				i++
			}
		case b == '"':
			n, err := scanQuoted(text[i:])
			if err != nil {
				return nil, failf(i, "%v", err)
			}
			s, err := strconv.Unquote(text[i : i+n])
			if err != nil {
				return nil, failf(i, "invalid string: %v", err)
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i += n
		default:
			start := i
			for i < len(text) && isWordByte(text[i]) {
				i++
			}
			toks = append(toks, token{kind: tokWord, text: text[start:i], pos: start})
		}
	}
	return toks, nil
}

// scanQuoted returns the length of the quoted string at the start of s,
// including both quotation marks.
func scanQuoted(s string) (int, error) {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return 0, errors.New("unterminated string")
}

// quoteWord quotes s if it would not otherwise scan as a single word.
func quoteWord(s string) string {
	if s == "" {
		return `""`
	}
	if _, ok := keyword(s); ok {
		return strconv.Quote(s)
	}
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return strconv.Quote(s)
		}
	}
	return s
}
