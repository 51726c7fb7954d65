// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package htmt

import (
	"fmt"

	"github.com/creachadair/htmt/cond"
)

// A Node is an element of a parsed template. The concrete type of a Node is
// one of *Text, *ValueRef, *ParamRef, *Iterate, *CodeGuard, or *CondGuard.
type Node interface {
	// Span reports the location of the node in the template source.
	Span() Span

	node()
}

type nodeSpan struct{ pos, end int }

// Span satisfies the Node interface.
func (n nodeSpan) Span() Span { return newSpan(n.pos, n.end) }

func (nodeSpan) node() {}

// Text is literal text copied to the output.
type Text struct {
	nodeSpan
	Text string
}

// ValueRef is replaced by the single string stored under Key in the current
// scope.
type ValueRef struct {
	nodeSpan
	Key string
}

// ParamRef is replaced by the request parameter named Key, if present.
type ParamRef struct {
	nodeSpan
	Key string
}

// Iterate applies Body once for each child object stored under Key, with
// that object as the current scope. If Key is empty, Body is applied once in
// the current scope. Keys of iterations and references are trimmed of
// surrounding whitespace when parsed.
type Iterate struct {
	nodeSpan
	Key  string
	Body []Node
}

// CodeGuard applies Body only if the status code equals Code.
type CodeGuard struct {
	nodeSpan
	Code int
	Body []Node
}

// CondGuard applies Body only if Cond is true in the current scope.
type CondGuard struct {
	nodeSpan
	Cond *cond.Expr
	Body []Node
}

// cloneNodes returns a deep copy of nodes. Condition expressions are shared,
// since they cannot be modified.
func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		switch t := n.(type) {
		case *Text:
			c := *t
			out[i] = &c
		case *ValueRef:
			c := *t
			out[i] = &c
		case *ParamRef:
			c := *t
			out[i] = &c
		case *Iterate:
			c := *t
			c.Body = cloneNodes(t.Body)
			out[i] = &c
		case *CodeGuard:
			c := *t
			c.Body = cloneNodes(t.Body)
			out[i] = &c
		case *CondGuard:
			c := *t
			c.Body = cloneNodes(t.Body)
			out[i] = &c
		default:
			panic(fmt.Sprintf("unknown node type %T", n))
		}
	}
	return out
}
