// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package htmt

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/creachadair/htmt/cond"
	"github.com/creachadair/htmt/tree"
)

// A Template is a parsed template. A Template is immutable, and safe for
// concurrent use by multiple goroutines.
type Template struct {
	name  string
	src   string
	nodes []Node
	log   *slog.Logger
}

// Name returns the name the template was parsed with, or "".
func (t *Template) Name() string { return t.name }

// Source returns the source text of the template.
func (t *Template) Source() string { return t.src }

// Nodes returns a copy of the top-level nodes of the template. Changes to
// the copy do not affect t.
func (t *Template) Nodes() []Node { return cloneNodes(t.nodes) }

// A Warning describes a reference during evaluation that could not be
// resolved as expected. Warnings do not stop evaluation.
type Warning struct {
	Location Location // the node that reported the warning
	Key      string   // the key that could not be resolved
	Message  string
}

func (w Warning) String() string {
	return fmt.Sprintf("at %s: key %q: %s", w.Location, w.Key, w.Message)
}

// Apply evaluates t against data, status, and params, and returns the
// resulting text. Warnings are logged at level Warn.
func (t *Template) Apply(data *tree.Tree, status int, params map[string]string) string {
	return t.eval(data, status, params, func(w Warning) {
		t.log.Warn("unresolved template reference", "template", t.name,
			"at", w.Location.String(), "key", w.Key, "msg", w.Message)
	})
}

// Render evaluates t against data, status, and params, and writes the
// resulting text to w. It returns the warnings reported during evaluation,
// in order, or an error if writing to w fails.
func (t *Template) Render(w io.Writer, data *tree.Tree, status int, params map[string]string) ([]Warning, error) {
	var warns []Warning
	out := t.eval(data, status, params, func(wn Warning) { warns = append(warns, wn) })
	if _, err := io.WriteString(w, out); err != nil {
		return warns, err
	}
	return warns, nil
}

func (t *Template) eval(data *tree.Tree, status int, params map[string]string, warn func(Warning)) string {
	var sb strings.Builder
	e := &evaluator{src: t.src, w: &sb, status: status, params: params, warn: warn}
	e.apply(t.nodes, data)
	return sb.String()
}

type evaluator struct {
	src    string
	w      *strings.Builder
	status int
	params map[string]string
	warn   func(Warning)
}

func (e *evaluator) warnf(n Node, key, msg string, args ...any) {
	e.warn(Warning{
		Location: locate(e.src, n.Span()),
		Key:      key,
		Message:  fmt.Sprintf(msg, args...),
	})
}

// apply evaluates nodes with scope as the current tree.
func (e *evaluator) apply(nodes []Node, scope *tree.Tree) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			e.w.WriteString(n.Text)

		case *ValueRef:
			m := scope.Find(n.Key)
			if m == nil {
				e.warnf(n, n.Key, "key not found")
			} else if s, ok := m.Single(); ok {
				e.w.WriteString(s)
			} else if m.Kind() == tree.Objects {
				e.warnf(n, n.Key, "key holds objects")
			} else {
				e.warnf(n, n.Key, "key holds %d values", m.Len())
			}

		case *ParamRef:
			e.w.WriteString(e.params[n.Key])

		case *Iterate:
			if n.Key == "" {
				e.apply(n.Body, scope)
				continue
			}
			m := scope.Find(n.Key)
			if m == nil {
				continue
			} else if m.Kind() != tree.Objects {
				e.warnf(n, n.Key, "key holds values, not objects")
				continue
			}
			for _, obj := range m.Objects() {
				e.apply(n.Body, obj)
			}

		case *CodeGuard:
			if n.Code == e.status {
				e.apply(n.Body, scope)
			}

		case *CondGuard:
			ok := n.Cond.EvalReport(scope, func(w cond.Warning) {
				e.warnf(n, w.Key, "%s", w.Message)
			})
			if ok {
				e.apply(n.Body, scope)
			}

		default:
			panic(fmt.Sprintf("unknown node type %T", n))
		}
	}
}
