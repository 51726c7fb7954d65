// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package config defines the settings of the htmt page server.
//
// A configuration file is either YAML (with extension .yaml or .yml) or
// HuJSON, which is JSON extended with comments and trailing commas:
//
//	{
//	  "listen": ":9002",
//	  "upstream": "localhost:9001",
//	  "link_file": "Pages/Link.txt",
//	  "log_level": "debug",   // or info, warn, error
//	  "syntax": {"value": "VAL"},
//	}
//
// Settings omitted from the file keep their values from Default.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/creachadair/htmt"
	"github.com/go-playground/validator/v10"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the page server.
type Config struct {
	// The address the page server listens on. The server and its HTTP
	// transport live outside this module; it reads the address from here,
	// and this package only checks that it is a valid host:port.
	Listen string `json:"listen" yaml:"listen" validate:"required,hostname_port"`

	// The address of the data server to which requests are forwarded. Like
	// Listen, it is used by the external server layer and only checked here.
	Upstream string `json:"upstream" yaml:"upstream" validate:"required,hostname_port"`

	// The path of the link file binding routes to pages.
	LinkFile string `json:"link_file" yaml:"link_file" validate:"required"`

	// The minimum level of log messages (default info).
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`

	// If true, minify rendered pages.
	Minify bool `json:"minify,omitempty" yaml:"minify,omitempty"`

	// Marker names for templates. Empty fields use htmt.DefaultSyntax.
	Syntax htmt.Syntax `json:"syntax" yaml:"syntax"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:   ":9002",
		Upstream: "localhost:9001",
		LinkFile: "Pages/Link.txt",
		LogLevel: "info",
	}
}

// Format is the encoding of a configuration file.
type Format int

// Constants defining the valid Format values.
const (
	HuJSON Format = iota
	YAML
)

// FormatOf returns the format of a configuration file, based on its name.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return HuJSON
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration in the given format. Unknown
// settings are an error.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	case HuJSON:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("decode HuJSON: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(std))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode HuJSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %d", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports an error if any setting of c is invalid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		errs := make([]error, len(verrs))
		for i, fe := range verrs {
			errs[i] = fmt.Errorf("invalid %s %q (%s)", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return errors.Join(errs...)
	}
	if err := c.Syntax.Validate(); err != nil {
		return fmt.Errorf("invalid syntax: %w", err)
	}
	return nil
}

// Level returns the minimum log level named by c.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if c.LogLevel != "" {
		_ = lvl.UnmarshalText([]byte(c.LogLevel)) // checked by Validate
	}
	return lvl
}

// TemplateOptions returns the options for parsing page templates, with
// warnings written to logger.
func (c *Config) TemplateOptions(logger *slog.Logger) *htmt.Options {
	return &htmt.Options{Syntax: c.Syntax, Logger: logger}
}
