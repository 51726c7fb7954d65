// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package htmt implements HTMT templates, which render a data tree into text.
//
// # Templates
//
// A template is ordinary text containing markers. With DefaultSyntax, the
// markers are:
//
//	<HTMTVAL:key>           the single string stored under key
//	<HTMTPARAM:name>        the request parameter name, or nothing
//	<HTMT:key>...</HTMT>    the body once per object stored under key
//	<HTMT:>...</HTMT>       the body once, unconditionally
//	<HTMTCODE:n>...</HTMTCODE>  the body if the status code is n
//	<HTMTCOND:c>...</HTMTCOND>  the body if condition c holds (see package cond)
//
// Guards of the same kind nest, and the parser matches each open marker with
// its balancing close marker. Inside an iteration the current scope is the
// object being visited; the status code and request parameters are the same
// everywhere. Substituted values are copied verbatim, without escaping.
//
// Parse a template and apply it to a tree:
//
//	t, err := htmt.Parse(`<HTMTCODE:200>Hello, <HTMTVAL:User></HTMTCODE>`)
//	if err != nil {
//	   log.Fatalf("Parse: %v", err)
//	}
//	data, err := tree.Decode(`{User:Sam}`)
//	...
//	fmt.Println(t.Apply(data, 200, nil)) // Hello, Sam
//
// Errors in the template are reported by Parse with concrete type
// *SyntaxError. References that cannot be resolved during evaluation do not
// stop rendering: Apply logs them, and Render returns them as warnings.
//
// To use other marker names, set the Syntax field of an Options value and
// call its Parse method.
package htmt
