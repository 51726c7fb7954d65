// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package linkfile_test

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/creachadair/htmt"
	"github.com/creachadair/htmt/linkfile"
	"github.com/creachadair/htmt/tree"
	"github.com/google/go-cmp/cmp"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func TestParse(t *testing.T) {
	routes, err := linkfile.Parse([]byte(`# Pages
GS:/:index.html
GF:/user/me:user.htmt

PF:/request:sub/login.htmt
GS:/a:b:c.html` + "\r\n"))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	type entry struct {
		Method, Path, File string
		Kind               linkfile.Kind
		Line               int
	}
	var got []entry
	for _, r := range routes {
		got = append(got, entry{r.Method, r.Path, r.File, r.Kind, r.Line})
	}
	want := []entry{
		{http.MethodGet, "/", "index.html", linkfile.Static, 2},
		{http.MethodGet, "/user/me", "user.htmt", linkfile.Forward, 3},
		{http.MethodPost, "/request", "sub/login.htmt", linkfile.Forward, 5},
		{http.MethodGet, "/a", "b:c.html", linkfile.Static, 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse (-want, +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"GS",
		"GS:",
		"XS:/:a.html",
		"GX:/:a.html",
		"GS-/:a.html",
		"GS:/a.html",
		"GS:/:",
		"GS::a.html", // empty route
	}
	for _, input := range tests {
		routes, err := linkfile.Parse([]byte("GS:/ok:ok.html\n" + input))
		if err == nil {
			t.Errorf("Parse %q: got %d routes, want error", input, len(routes))
			continue
		}
		var le *linkfile.LineError
		if !errors.As(err, &le) {
			t.Errorf("Parse %q: error is %T, want *LineError", input, err)
		} else if le.Line != 2 || le.Entry != input {
			t.Errorf("Parse %q: got line %d entry %q, want line 2", input, le.Line, le.Entry)
		}
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"Pages/Link.txt":         file("GS:/:index.html\nGF:/user/me:user.htmt\nPF:/login:forms/login.htmt\n"),
		"Pages/index.html":       file("<h1>Welcome</h1>"),
		"Pages/user.htmt":        file("<table><HTMT:><tr><td><HTMTVAL:Username></td></tr></HTMT></table>"),
		"Pages/forms/login.htmt": file("<HTMTCODE:200>ok</HTMTCODE><HTMTCODE:401>denied</HTMTCODE>"),
	}
	tab, err := linkfile.Load(fsys, "Pages/Link.txt", nil)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if tab.Len() != 3 || len(tab.Routes()) != 3 {
		t.Errorf("Len: got %d, want 3", tab.Len())
	}

	if r := tab.Lookup("GET", "/"); r == nil {
		t.Error(`Lookup GET /: not found`)
	} else if r.Kind != linkfile.Static || r.Body != "<h1>Welcome</h1>" || r.Template != nil {
		t.Errorf("Lookup GET /: got %+v", r)
	}

	r := tab.Lookup("get", "/user/me")
	if r == nil || r.Template == nil {
		t.Fatalf("Lookup get /user/me: got %+v, want template", r)
	}
	if got, want := r.Template.Name(), "Pages/user.htmt"; got != want {
		t.Errorf("Template name: got %q, want %q", got, want)
	}
	data, err := tree.Decode("{Username:ADMIN}")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got, want := r.Template.Apply(data, 200, nil), "<table><tr><td>ADMIN</td></tr></table>"; got != want {
		t.Errorf("Apply: got %q, want %q", got, want)
	}

	if r := tab.Lookup(http.MethodPost, "/login"); r == nil {
		t.Error("Lookup POST /login: not found")
	} else if got := r.Template.Apply(nil, 401, nil); got != "denied" {
		t.Errorf("Apply login: got %q, want %q", got, "denied")
	}

	if r := tab.Lookup(http.MethodPost, "/"); r != nil {
		t.Errorf("Lookup POST /: got %+v, want nil", r)
	}
}

func TestLoadSyntax(t *testing.T) {
	fsys := fstest.MapFS{
		"Link.txt": file("GF:/x:x.htmt"),
		"x.htmt":   file("<IT:Rows><VAL:N></IT>"),
	}
	opts := &htmt.Options{Syntax: htmt.Syntax{Iterate: "IT", Value: "VAL"}}
	tab, err := linkfile.Load(fsys, "Link.txt", opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	data, err := tree.Decode("{Rows:[{N:1},{N:2}]}")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := tab.Lookup("GET", "/x").Template.Apply(data, 200, nil); got != "12" {
		t.Errorf("Apply: got %q, want %q", got, "12")
	}
	if opts.Name != "" {
		t.Errorf("Load modified the caller's options: %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		line int
		is   error
	}{
		{"NoLinkFile", fstest.MapFS{}, 0, fs.ErrNotExist},
		{"BadEntry", fstest.MapFS{
			"Link.txt": file("GS:/:a.html\nbogus"),
			"a.html":   file("a"),
		}, 2, nil},
		{"MissingFile", fstest.MapFS{
			"Link.txt": file("GS:/:a.html\nGF:/b:b.htmt"),
			"a.html":   file("a"),
		}, 2, fs.ErrNotExist},
		{"BrokenTemplate", fstest.MapFS{
			"Link.txt": file("GF:/b:b.htmt"),
			"b.htmt":   file("<HTMT:Rows>unclosed"),
		}, 1, nil},
		{"Duplicate", fstest.MapFS{
			"Link.txt": file("GS:/a:a.html\nPS:/a:a.html\nGS:/a:a.html"),
			"a.html":   file("a"),
		}, 3, nil},
		{"BadPath", fstest.MapFS{
			"Link.txt": file("GS:/a:../a.html"),
		}, 1, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tab, err := linkfile.Load(tc.fsys, "Link.txt", nil)
			if err == nil {
				t.Fatalf("Load: got %d routes, want error", tab.Len())
			}
			t.Logf("Got expected error: %v", err)
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Errorf("Load: got %v, want %v", err, tc.is)
			}
			if tc.line == 0 {
				return
			}
			var le *linkfile.LineError
			if !errors.As(err, &le) {
				t.Fatalf("Load: error is %T, want *LineError", err)
			}
			if le.Line != tc.line {
				t.Errorf("Load: error at line %d, want %d", le.Line, tc.line)
			}
			if !strings.HasPrefix(err.Error(), "Link.txt: ") {
				t.Errorf("Load: error %q does not name the link file", err)
			}
		})
	}

	// A broken template reports the template error.
	_, err := linkfile.Load(fstest.MapFS{
		"Link.txt": file("GF:/b:b.htmt"),
		"b.htmt":   file("<HTMTVAL:x"),
	}, "Link.txt", nil)
	var se *htmt.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("Load: got %v, want *htmt.SyntaxError", err)
	}
	if se.Name != "b.htmt" {
		t.Errorf("SyntaxError name: got %q, want %q", se.Name, "b.htmt")
	}
}
