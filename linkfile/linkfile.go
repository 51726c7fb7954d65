// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package linkfile loads a link file, which binds request routes to static
// pages and page templates.
//
// Each line of a link file has the form
//
//	<method><kind>:<route>:<file>
//
// where method is P (POST) or G (GET), and kind is S (the file is a static
// page, sent as-is) or F (the file is a template applied to the response of
// the forwarded request). The route runs to the next colon, and the file name
// is the rest of the line, relative to the directory of the link file.
// Blank lines and lines beginning with "#" are ignored.
//
// Example:
//
//	GS:/:index.html
//	GF:/user/me:user.htmt
//	PF:/request:login.htmt
package linkfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/creachadair/htmt"
)

// Kind is the kind of a route.
type Kind byte

// Constants defining the valid Kind values.
const (
	Static  Kind = 'S' // serve the file as-is
	Forward Kind = 'F' // forward the request and apply the template
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Forward:
		return "forward"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// A Route is a single entry of a link file.
type Route struct {
	Method string // http.MethodGet or http.MethodPost
	Path   string // the request path
	File   string // the file name, relative to the link file
	Kind   Kind

	Line     int            // line number in the link file, 1-based
	Body     string         // for Static, the contents of File
	Template *htmt.Template // for Forward, the parsed contents of File
}

// A Table is the set of routes loaded from a link file. A Table is not
// modified after it is loaded, and is safe for concurrent use.
type Table struct {
	routes []*Route
	byKey  map[string]*Route
}

func routeKey(method, path string) string { return strings.ToUpper(method) + " " + path }

// Len reports the number of routes in t.
func (t *Table) Len() int { return len(t.routes) }

// Routes returns the routes of t in the order they were loaded.
func (t *Table) Routes() []*Route { return slices.Clone(t.routes) }

// Lookup returns the route for the given method and path, or nil. The method
// name is not case-sensitive.
func (t *Table) Lookup(method, path string) *Route { return t.byKey[routeKey(method, path)] }

// LineError is the concrete type of errors reported by Parse and Load for an
// invalid entry.
type LineError struct {
	Line  int    // line number, 1-based
	Entry string // the text of the line
	Err   error
}

// Error satisfies the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Entry, e.Err)
}

// Unwrap supports error wrapping.
func (e *LineError) Unwrap() error { return e.Err }

// Parse parses the entries of a link file, without reading the files they
// name. The File of each route is as written in the link file.
func Parse(data []byte) ([]*Route, error) {
	var out []*Route
	sc := bufio.NewScanner(bytes.NewReader(data))
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := parseLine(line)
		if err != nil {
			return nil, &LineError{Line: ln, Entry: line, Err: err}
		}
		r.Line = ln
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var errFormat = errors.New("invalid entry, want <P|G><S|F>:<route>:<file>")

func parseLine(line string) (*Route, error) {
	if len(line) < 4 || line[2] != ':' {
		return nil, errFormat
	}
	r := new(Route)
	switch line[0] {
	case 'P':
		r.Method = http.MethodPost
	case 'G':
		r.Method = http.MethodGet
	default:
		return nil, fmt.Errorf("invalid method %q", line[0])
	}
	switch k := Kind(line[1]); k {
	case Static, Forward:
		r.Kind = k
	default:
		return nil, fmt.Errorf("invalid kind %q", line[1])
	}

	// The route is at least one character, and ends at the next colon.
	div := strings.IndexByte(line[4:], ':')
	if div < 0 {
		return nil, errFormat
	}
	r.Path = line[3 : 4+div]
	r.File = line[4+div+1:]
	if r.File == "" {
		return nil, errors.New("missing file name")
	}
	return r, nil
}

// Load reads the link file name from fsys, along with every file it names,
// and returns the resulting table. Templates are parsed with the settings
// from opts, named by their file. Load fails if any entry is invalid, if any
// file cannot be read, if any template does not parse, or if two entries have
// the same method and route.
func Load(fsys fs.FS, name string, opts *htmt.Options) (*Table, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	routes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	dir := path.Dir(name)
	t := &Table{byKey: make(map[string]*Route)}
	for _, r := range routes {
		lineErr := func(err error) error {
			return fmt.Errorf("%s: %w", name, &LineError{Line: r.Line, Entry: entryText(r), Err: err})
		}
		key := routeKey(r.Method, r.Path)
		if old, ok := t.byKey[key]; ok {
			return nil, lineErr(fmt.Errorf("duplicate route %s (first at line %d)", key, old.Line))
		}

		fpath := path.Join(dir, r.File)
		if !fs.ValidPath(fpath) {
			return nil, lineErr(fmt.Errorf("invalid file path %q", r.File))
		}
		body, err := fs.ReadFile(fsys, fpath)
		if err != nil {
			return nil, lineErr(err)
		}
		if r.Kind == Static {
			r.Body = string(body)
		} else {
			var o htmt.Options
			if opts != nil {
				o = *opts
			}
			o.Name = fpath
			r.Template, err = o.Parse(string(body))
			if err != nil {
				return nil, lineErr(err)
			}
		}
		t.routes = append(t.routes, r)
		t.byKey[key] = r
	}
	return t, nil
}

// entryText reconstructs the link file line for r.
func entryText(r *Route) string {
	m := "G"
	if r.Method == http.MethodPost {
		m = "P"
	}
	return m + string(rune(r.Kind)) + ":" + r.Path + ":" + r.File
}
