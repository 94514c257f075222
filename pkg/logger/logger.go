// Package logger provides opinionated slog loggers for docqa services and
// CLI commands.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Format selects the handler New builds.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatPretty
)

type settings struct {
	level  slog.Level
	format Format
	source bool
	out    []io.Writer
}

// Option adjusts the settings used by New.
type Option func(*settings)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		if debug {
			s.level = slog.LevelDebug
			return
		}
		s.level = slog.LevelInfo
	}
}

// WithLevel parses a level name such as "debug" or "WARN". Unknown names
// leave the level untouched.
func WithLevel(name string) Option {
	return func(s *settings) {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err == nil {
			s.level = lvl
		}
	}
}

// WithPretty switches to the colorized charmbracelet/log handler.
func WithPretty(pretty bool) Option {
	return withFormat(FormatPretty, pretty)
}

// WithJSON switches to slog's JSON handler.
func WithJSON(json bool) Option {
	return withFormat(FormatJSON, json)
}

func withFormat(f Format, on bool) Option {
	return func(s *settings) {
		if on {
			s.format = f
		} else if s.format == f {
			s.format = FormatText
		}
	}
}

// WithWriter sends output to w instead of os.Stdout. Repeated calls add
// writers.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.out = append(s.out, w)
	}
}

// WithSource annotates records with file:line.
func WithSource(source bool) Option {
	return func(s *settings) {
		s.source = source
	}
}

// New builds a *slog.Logger. Without options it writes text records at Info
// level to os.Stdout.
func New(opts ...Option) *slog.Logger {
	s := &settings{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(s)
	}
	return slog.New(s.handler())
}

func (s *settings) handler() slog.Handler {
	var w io.Writer
	switch len(s.out) {
	case 0:
		w = os.Stdout
	case 1:
		w = s.out[0]
	default:
		w = io.MultiWriter(s.out...)
	}

	hopts := &slog.HandlerOptions{Level: s.level, AddSource: s.source}
	switch s.format {
	case FormatPretty:
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(s.level),
			ReportTimestamp: true,
			ReportCaller:    s.source,
		})
	case FormatJSON:
		return slog.NewJSONHandler(w, hopts)
	default:
		return slog.NewTextHandler(w, hopts)
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
