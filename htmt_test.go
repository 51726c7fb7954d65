// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package htmt_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/creachadair/htmt"
	"github.com/creachadair/htmt/cond"
	"github.com/creachadair/htmt/internal/testutil"
	"github.com/creachadair/htmt/tree"
	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// testSyntax uses short marker names to keep test templates readable.
var testSyntax = htmt.Syntax{
	Iterate: "IT",
	Value:   "VAL",
	Param:   "PARAM",
	Code:    "CODE",
	Cond:    "COND",
}

func mustParse(t *testing.T, src string) *htmt.Template {
	t.Helper()
	tmpl, err := (&htmt.Options{Syntax: testSyntax}).Parse(src)
	if err != nil {
		t.Fatalf("Parse %q: %v", src, err)
	}
	return tmpl
}

func mustDecode(t *testing.T, s string) *tree.Tree {
	t.Helper()
	tr, err := tree.Decode(s)
	if err != nil {
		t.Fatalf("Decode %q: %v", s, err)
	}
	return tr
}

func TestIterate(t *testing.T) {
	tmpl := mustParse(t, "<IT:Rows><VAL:Name>,</IT>")
	rows := testutil.Rows("Rows", []string{"Name", "A"}, []string{"Name", "B"})
	if got := tmpl.Apply(rows, 200, nil); got != "A,B," {
		t.Errorf("Apply rows: got %q, want %q", got, "A,B,")
	}
	if got := tmpl.Apply(tree.New(), 200, nil); got != "" {
		t.Errorf("Apply empty: got %q, want empty", got)
	}
}

func TestStatusCode(t *testing.T) {
	tmpl := mustParse(t, "<CODE:404>Not Found</CODE><CODE:200>Hello, <VAL:User></CODE>")
	data := mustDecode(t, "{User:Sam}")
	tests := []struct {
		status int
		want   string
	}{
		{200, "Hello, Sam"},
		{404, "Not Found"},
		{500, ""},
	}
	for _, tc := range tests {
		if got := tmpl.Apply(data, tc.status, nil); got != tc.want {
			t.Errorf("Apply status %d: got %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestApply(t *testing.T) {
	data := mustDecode(t, `{User:Sam,Role:admin,Tags:[x,y],`+
		`Cars:[{Plate:ABC,Parts:[{P:1},{P:2}]},{Plate:DEF}],Home:{City:Paris}}`)
	params := map[string]string{"q": "search", "empty": ""}
	tests := []struct {
		name, src, want string
	}{
		{"Empty", "", ""},
		{"Literal", "plain <b>text</b>", "plain <b>text</b>"},
		{"Value", "<p><VAL:User></p>", "<p>Sam</p>"},
		{"NoEscape", "<VAL:Role>", "admin"},
		{"Param", "q=<PARAM:q>", "q=search"},
		{"ParamMissing", "[<PARAM:nope>][<PARAM:empty>]", "[][]"},
		{"Always", "<IT:>once</IT>", "once"},
		{"Nested", "<IT:Cars><VAL:Plate>(<IT:Parts><VAL:P></IT>) </IT>", "ABC(12) DEF() "},
		{"SingleObject", "<IT:Home><VAL:City></IT>", "Paris"},
		{"IterValues", "<IT:Tags>x</IT>", ""},
		{"IterMissing", "<IT:Nope>x</IT>", ""},
		{"ScopeIsLocal", "<IT:Home><VAL:User></IT>", ""},
		{"ParamInScope", "<IT:Cars><PARAM:q></IT>", "searchsearch"},
		{"CodeInScope", "<IT:Cars><CODE:200>+</CODE></IT>", "++"},
		{"SameKind", "<IT:><IT:>a</IT>b</IT>c", "abc"},
		{"Cond", "<COND:Role=admin>yes</COND><COND:Role!=admin>no</COND>", "yes"},
		{"CondChain", "<COND:Role=user or User=Sam>ok</COND>", "ok"},
		{"CondMissing", "<COND:Nope=x>a</COND><COND:Nope!=x>b</COND>", "b"},
		{"CondEmpty", "<COND:>always</COND>", "always"},
		{"CondInScope", "<IT:Cars><COND:Plate=DEF><VAL:Plate></COND></IT>", "DEF"},
		{"MixedGuards", "<CODE:200><IT:Cars><COND:Plate!=ABC>[<VAL:Plate>]</COND></IT></CODE>", "[DEF]"},
		{"StrayClose", "a</IT>b", "a</IT>b"},
		{"OtherTags", "<VALUE:x><ITEM>", "<VALUE:x><ITEM>"},
		{"Spaces", "<IT: Cars >[<VAL: Plate >|<PARAM:\tq >]</IT><CODE: 200 >!</CODE>", "[ABC|search][DEF|search]!"},
		{"SpaceOnly", "<IT: >once</IT>", "once"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := mustParse(t, tc.src)
			if got := tmpl.Apply(data, 200, params); got != tc.want {
				t.Errorf("Apply %q: got %q, want %q", tc.src, got, tc.want)
			}
		})
	}
}

func TestDefaultSyntax(t *testing.T) {
	tmpl, err := htmt.Parse("<HTMTCODE:200><HTMT:Rows><HTMTVAL:Name>;</HTMT><HTMTPARAM:p></HTMTCODE>" +
		"<HTMTCOND:Mode=x>!</HTMTCOND>")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data := testutil.Rows("Rows", []string{"Name", "A"}, []string{"Name", "B"})
	data.Add("Mode", "x")
	if got, want := tmpl.Apply(data, 200, map[string]string{"p": "P"}), "A;B;P!"; got != want {
		t.Errorf("Apply: got %q, want %q", got, want)
	}
}

func TestPartialSyntax(t *testing.T) {
	tmpl, err := (&htmt.Options{Syntax: htmt.Syntax{Value: "V"}}).Parse("<HTMT:><V:a></HTMT>")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tmpl.Apply(mustDecode(t, "{a:1}"), 0, nil); got != "1" {
		t.Errorf("Apply: got %q, want %q", got, "1")
	}
}

func TestNodes(t *testing.T) {
	tmpl := mustParse(t, "a<VAL:x>b<PARAM:y><IT:k>c<CODE:7>d</CODE></IT><COND:z=1>e</COND>")
	want := []htmt.Node{
		&htmt.Text{Text: "a"},
		&htmt.ValueRef{Key: "x"},
		&htmt.Text{Text: "b"},
		&htmt.ParamRef{Key: "y"},
		&htmt.Iterate{Key: "k", Body: []htmt.Node{
			&htmt.Text{Text: "c"},
			&htmt.CodeGuard{Code: 7, Body: []htmt.Node{&htmt.Text{Text: "d"}}},
		}},
		&htmt.CondGuard{Cond: cond.MustParse("z=1"), Body: []htmt.Node{&htmt.Text{Text: "e"}}},
	}
	opts := []cmp.Option{
		cmpopts.IgnoreUnexported(htmt.Text{}, htmt.ValueRef{}, htmt.ParamRef{},
			htmt.Iterate{}, htmt.CodeGuard{}, htmt.CondGuard{}),
		cmp.Comparer(func(a, b *cond.Expr) bool { return a.String() == b.String() }),
	}
	if diff := cmp.Diff(want, tmpl.Nodes(), opts...); diff != "" {
		t.Errorf("Nodes (-want, +got):\n%s", diff)
	}

	// Check the spans of the top-level nodes.
	var spans []htmt.Span
	for _, n := range tmpl.Nodes() {
		spans = append(spans, n.Span())
	}
	wantSpans := []htmt.Span{
		{Pos: 0, End: 1}, {Pos: 1, End: 8}, {Pos: 8, End: 9}, {Pos: 9, End: 18},
		{Pos: 18, End: 46}, {Pos: 46, End: 64},
	}
	if diff := cmp.Diff(wantSpans, spans); diff != "" {
		t.Errorf("Spans (-want, +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, src string
		offset    int
		line, col int
	}{
		{"UnclosedIter", "ab<IT:x>c", 2, 1, 2},
		{"UnclosedNested", "<IT:x><IT:y></IT>", 0, 1, 0},
		{"OpenTag", "<CODE:200</CODE>", 0, 1, 0},
		{"BadCode", "x\n<CODE:OK>y</CODE>", 8, 2, 6},
		{"BadCond", "<COND:a b>y</COND>", 8, 1, 8},
		{"UnclosedRef", "a<VAL:x", 1, 1, 1},
		{"UnclosedParam", "line\nline\n  <PARAM:y", 12, 3, 2},
		{"EmptyRef", "<VAL:>", 5, 1, 5},
		{"BlankRef", "a<PARAM:  >", 8, 1, 8},
		{"NestedError", "<IT:a><CODE:x>y</CODE></IT>", 12, 1, 12},
		{"RefInBody", "<IT:a><VAL:b</IT>", 6, 1, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpl, err := (&htmt.Options{Syntax: testSyntax, Name: "test"}).Parse(tc.src)
			if err == nil {
				t.Fatalf("Parse %q: got %v, want error", tc.src, tmpl.Nodes())
			}
			var se *htmt.SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Parse %q: error is %T, want *SyntaxError", tc.src, err)
			}
			if se.Offset != tc.offset {
				t.Errorf("Offset: got %d, want %d (%v)", se.Offset, tc.offset, err)
			}
			if want := (htmt.LineCol{Line: tc.line, Column: tc.col}); se.Location != want {
				t.Errorf("Location: got %v, want %v", se.Location, want)
			}
			if !strings.HasPrefix(err.Error(), "test: ") {
				t.Errorf("Error %q does not name the template", err)
			}
		})
	}
}

func TestBadSyntax(t *testing.T) {
	for _, syn := range []htmt.Syntax{
		{Iterate: "A", Value: "A"},
		{Code: "X:Y"},
		{Cond: "a b"},
		{Param: "HTMTVAL"},
	} {
		if err := syn.Validate(); err == nil {
			t.Errorf("Validate %+v: got nil, want error", syn)
		}
		if _, err := (&htmt.Options{Syntax: syn}).Parse("x"); err == nil {
			t.Errorf("Parse with %+v: got nil, want error", syn)
		}
	}
	if err := testSyntax.Validate(); err != nil {
		t.Errorf("Validate %+v: unexpected error: %v", testSyntax, err)
	}
}

func TestRenderWarnings(t *testing.T) {
	tmpl := mustParse(t, "<VAL:Nope>|<VAL:Tags>|<VAL:Home>|<IT:Tags></IT>|<COND:Gone=1>x</COND>|\n<VAL:User>")
	data := mustDecode(t, "{User:Sam,Tags:[a,b],Home:{City:Paris}}")

	var buf bytes.Buffer
	warns, err := tmpl.Render(&buf, data, 200, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got, want := buf.String(), "|||||\nSam"; got != want {
		t.Errorf("Render: got %q, want %q", got, want)
	}

	type summary struct {
		Pos      int
		Key, Msg string
	}
	var got []summary
	for _, w := range warns {
		got = append(got, summary{w.Location.Pos, w.Key, w.Message})
	}
	want := []summary{
		{0, "Nope", "key not found"},
		{11, "Tags", "key holds 2 values"},
		{22, "Home", "key holds objects"},
		{33, "Tags", "key holds values, not objects"},
		{48, "Gone", "key not found"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Warnings (-want, +got):\n%s", diff)
	}
}

func TestApplyLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tmpl, err := (&htmt.Options{Syntax: testSyntax, Name: "page.htmt", Logger: logger}).Parse("a\n<VAL:Nope>b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tmpl.Apply(tree.New(), 200, nil); got != "a\nb" {
		t.Errorf("Apply: got %q, want %q", got, "a\nb")
	}
	log := buf.String()
	for _, want := range []string{"level=WARN", "template=page.htmt", "at=2:0-2:10", "key=Nope"} {
		if !strings.Contains(log, want) {
			t.Errorf("Log output missing %q:\n%s", want, log)
		}
	}
}

func TestAccessors(t *testing.T) {
	const src = "<VAL:x>"
	tmpl, err := (&htmt.Options{Name: "n"}).Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tmpl.Name() != "n" || tmpl.Source() != src {
		t.Errorf("Accessors: got name %q source %q", tmpl.Name(), tmpl.Source())
	}
	// With the default syntax, <VAL:x> is literal text.
	if got := tmpl.Apply(nil, 0, nil); got != src {
		t.Errorf("Apply: got %q, want %q", got, src)
	}
}

func TestNodesCopy(t *testing.T) {
	tmpl := mustParse(t, "<IT:Rows><VAL:Name>;</IT><CODE:200>ok</CODE>")
	nodes := tmpl.Nodes()
	it := nodes[0].(*htmt.Iterate)
	it.Key = "Other"
	it.Body[0].(*htmt.ValueRef).Key = "Other"
	it.Body = append(it.Body, &htmt.Text{Text: "!"})
	nodes[1].(*htmt.CodeGuard).Code = 404
	nodes[1] = &htmt.Text{Text: "x"}

	data := testutil.Rows("Rows", []string{"Name", "A"}, []string{"Name", "B"})
	if got, want := tmpl.Apply(data, 200, nil), "A;B;ok"; got != want {
		t.Errorf("Apply after changing nodes: got %q, want %q", got, want)
	}
	want := []string{"*htmt.Iterate Rows", "*htmt.CodeGuard"}
	if diff := cmp.Diff(want, nodeSummary(tmpl.Nodes())); diff != "" {
		t.Errorf("Nodes (-want, +got):\n%s", diff)
	}
}

func nodeSummary(nodes []htmt.Node) []string {
	var out []string
	for _, n := range nodes {
		s := fmt.Sprintf("%T", n)
		if it, ok := n.(*htmt.Iterate); ok {
			s += " " + it.Key
		}
		out = append(out, s)
	}
	return out
}

func TestMustParse(t *testing.T) {
	mtest.MustPanic(t, func() { htmt.MustParse("<HTMT:x>") })
	if htmt.MustParse("ok") == nil {
		t.Error("MustParse returned nil")
	}
}
