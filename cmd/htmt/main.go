// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Program htmt is a command-line tool for data trees and HTMT templates.
//
// Usage:
//
//	htmt fmt [-pretty] [-loose] [file]         Re-encode a data tree
//	htmt get [-loose] [-in file] path...       Print the element at a path
//	htmt render -template file [flags] [file]  Render a tree through a template
//	htmt check [-config file]                  Load and check a link file
//
// If no file is given, input is read from stdin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/creachadair/htmt/config"
	"github.com/creachadair/htmt/linkfile"
	"github.com/creachadair/htmt/reqparam"
	"github.com/creachadair/htmt/translate"
	"github.com/creachadair/htmt/tree"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "fmt":
		err = runFmt(args)
	case "get":
		err = runGet(args)
	case "render":
		err = runRender(args)
	case "check":
		err = runCheck(args)
	case "help", "-h", "-help", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "htmt: unknown command %q\n", cmd)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "htmt %s: %v\n", cmd, err)
		}
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: htmt <command> [flags] [args]

Commands:
  fmt     re-encode a data tree in compact or pretty form
  get     print the element of a data tree at a path
  render  render a data tree through a template
  check   load a link file and check every template it names

Use "htmt <command> -help" for the flags of a command.
`)
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// readInput returns the contents of the named file, or of stdin if name is
// empty or "-".
func readInput(name string) (string, error) {
	var data []byte
	var err error
	if name == "" || name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	return string(data), err
}

func decodeTree(text string, loose bool) (*tree.Tree, error) {
	text = strings.TrimSpace(text)
	if loose {
		return tree.DecodeLoose(text)
	}
	return tree.Decode(text)
}

func runFmt(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	pretty := fs.Bool("pretty", false, "Indent the output and quote scalars")
	loose := fs.Bool("loose", false, "Accept whitespace and quoted scalars in the input")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	t, err := decodeTree(text, *loose)
	if err != nil {
		return err
	}
	fmt.Println(tree.Encode(t, *pretty))
	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	loose := fs.Bool("loose", false, "Accept whitespace and quoted scalars in the input")
	input := fs.String("in", "", "Read the tree from this file (default stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text, err := readInput(*input)
	if err != nil {
		return err
	}
	t, err := decodeTree(text, *loose)
	if err != nil {
		return err
	}

	// Path elements that parse as integers are offsets; all others are keys.
	path := make([]any, fs.NArg())
	for i, arg := range fs.Args() {
		if n, err := strconv.Atoi(arg); err == nil {
			path[i] = n
		} else {
			path[i] = arg
		}
	}
	v, err := tree.Path(t, path...)
	if err != nil {
		return err
	}
	switch e := v.(type) {
	case *tree.Tree:
		fmt.Println(tree.Encode(e, true))
	case *tree.Member:
		for _, obj := range e.Objects() {
			fmt.Println(tree.Encode(obj, true))
		}
		for _, s := range e.Values() {
			fmt.Println(s)
		}
	default:
		fmt.Println(e)
	}
	return nil
}

// paramFlag collects name=value request parameters.
type paramFlag reqparam.Params

func (p paramFlag) String() string { return "" }

func (p paramFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("invalid parameter %q, want name=value", s)
	}
	p[name] = value
	return nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	tmplPath := fs.String("template", "", "Template file (required)")
	status := fs.Int("status", 200, "Status code of the response")
	query := fs.String("query", "", "URL-encoded request parameters")
	minify := fs.Bool("minify", false, "Minify the rendered output as HTML")
	cfgPath := fs.String("config", "", "Configuration file for marker syntax and log level")
	params := make(paramFlag)
	fs.Var(params, "param", "Request parameter name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tmplPath == "" {
		return errors.New("missing -template")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			return err
		}
	}
	logger := newLogger(cfg.Level())

	src, err := os.ReadFile(*tmplPath)
	if err != nil {
		return err
	}
	opts := cfg.TemplateOptions(logger)
	opts.Name = *tmplPath
	tmpl, err := opts.Parse(string(src))
	if err != nil {
		return err
	}
	body, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	page := &translate.Page{Template: tmpl, Minify: *minify || cfg.Minify, Logger: logger}
	p := reqparam.Merge(reqparam.Parse(*query), reqparam.Params(params))
	fmt.Print(page.Render(translate.Response{Body: strings.TrimSpace(body), Status: *status}, p))
	return nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Configuration file (default settings if omitted)")
	verbose := fs.Bool("v", false, "List the routes of the link file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			return err
		}
	}
	logger := newLogger(cfg.Level())

	dir, name := filepath.Split(cfg.LinkFile)
	if dir == "" {
		dir = "."
	}
	tab, err := linkfile.Load(os.DirFS(dir), name, cfg.TemplateOptions(logger))
	if err != nil {
		return err
	}
	logger.Info("link file OK", "path", cfg.LinkFile, "routes", tab.Len(),
		"listen", cfg.Listen, "upstream", cfg.Upstream)
	if *verbose {
		for _, r := range tab.Routes() {
			fmt.Printf("%-4s %-7s %s -> %s\n", r.Method, r.Kind, r.Path, r.File)
		}
	}
	return nil
}
