/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package diagnostics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"bennypowers.dev/tsgraft/engine"
)

// Sink receives every reported diagnostic.
type Sink interface {
	Report(d engine.Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d engine.Diagnostic)

// Report implements Sink.
func (f SinkFunc) Report(d engine.Diagnostic) { f(d) }

// Reporter fans diagnostics out to sinks.
type Reporter struct {
	sinks []Sink
}

// NewReporter creates a reporter. Nil sinks are ignored.
func NewReporter(sinks ...Sink) *Reporter {
	r := &Reporter{}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// AddSink appends a sink.
func (r *Reporter) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Report renders every diagnostic to every sink, then reports whether any of
// them was fatal.
func (r *Reporter) Report(diags []engine.Diagnostic) (fatal bool) {
	for _, d := range diags {
		for _, s := range r.sinks {
			s.Report(d)
		}
		if IsFatal(d) {
			fatal = true
		}
	}
	return fatal
}

// SlogSink logs diagnostics: errors at Error, warnings at Warn and anything
// else at Info.
type SlogSink struct {
	Logger *slog.Logger
}

// Report implements Sink.
func (s SlogSink) Report(d engine.Diagnostic) {
	level := slog.LevelInfo
	switch d.Category {
	case engine.CategoryError:
		level = slog.LevelError
	case engine.CategoryWarning:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{slog.String("category", d.Category.String())}
	if d.Code != 0 {
		attrs = append(attrs, slog.Int("code", d.Code))
	}
	if d.Condition != engine.ConditionNone {
		attrs = append(attrs, slog.String("condition", string(d.Condition)))
	}
	if loc := Location(d); loc != "" {
		attrs = append(attrs, slog.String("location", loc))
	}
	s.Logger.LogAttrs(context.Background(), level, d.Message, attrs...)
}

// ColorSink prints tsc-style lines with the category highlighted.
type ColorSink struct {
	W io.Writer
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	pathColor    = color.New(color.FgCyan)
)

// Report implements Sink.
func (s ColorSink) Report(d engine.Diagnostic) {
	var b strings.Builder
	if loc := Location(d); loc != "" {
		b.WriteString(pathColor.Sprint(loc))
		b.WriteString(": ")
	}
	switch d.Category {
	case engine.CategoryError:
		b.WriteString(errorColor.Sprint(Label(d)))
	case engine.CategoryWarning:
		b.WriteString(warningColor.Sprint(Label(d)))
	default:
		b.WriteString(infoColor.Sprint(Label(d)))
	}
	fmt.Fprintf(s.W, "%s: %s\n", b.String(), d.Message)
}
