// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package translate renders the response of a forwarded request through a
// page template.
package translate

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/creachadair/htmt"
	"github.com/creachadair/htmt/tree"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// A Response is the reply to a forwarded request.
type Response struct {
	Body   string      // the body text, normally an encoded tree
	Status int         // the HTTP status code
	Header http.Header // passed through to the client, not used here
}

// A Page renders responses for one route.
type Page struct {
	// The template applied to the decoded response. If nil, the decoded
	// tree is written back in pretty form.
	Template *htmt.Template

	// If true, minify the rendered text as HTML.
	Minify bool

	// Where to log diagnostics. If nil, use slog.Default.
	Logger *slog.Logger
}

func (p *Page) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Render decodes the body of r as a tree and renders it with the status of
// r and the given request parameters. If the body is not a valid tree, it is
// returned unmodified.
func (p *Page) Render(r Response, params map[string]string) string {
	data, err := tree.Decode(r.Body)
	if err != nil {
		p.logger().Debug("response body is not a tree", "status", r.Status, "err", err)
		return r.Body
	}

	var out string
	if p.Template == nil {
		out = tree.Encode(data, true)
	} else {
		out = p.Template.Apply(data, r.Status, params)
	}
	if p.Minify {
		out = minifyHTML(out)
	}
	return out
}

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/html", html.Minify)
	})
	return minifier
}

// minifyHTML returns s with unnecessary whitespace and markup removed. Text
// without markup, or that does not minify, is returned unchanged.
func minifyHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	m, err := getMinifier().String("text/html", s)
	if err != nil {
		return s
	}
	return m
}
