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

// Package program rebuilds the whole-program compilation unit from the
// registry's full key set on every request and emits one file from it.
package program

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bennypowers.dev/tsgraft/diagnostics"
	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/host"
	"bennypowers.dev/tsgraft/internal/logging"
	"bennypowers.dev/tsgraft/registry"
)

// ErrEmitSkipped reports an emit that produced no output without reporting
// an error diagnostic.
var ErrEmitSkipped = errors.New("emit skipped")

// Emit statuses passed to a Recorder.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Unit is one whole-program compilation unit. A unit is never modified after
// it is built; each EmitOne returns a new one.
type Unit struct {
	// Keys is the registry key set the program was built from.
	Keys    []string
	Program engine.Program
}

// Result is the output of emitting one file.
type Result struct {
	OutputText    string
	SourceMapText string
	// Diagnostics holds every diagnostic that survived filtering.
	Diagnostics []engine.Diagnostic
}

// CompileError is returned when an emit produced error diagnostics. Every
// diagnostic has already been reported when it is returned.
type CompileError struct {
	Path        string
	Diagnostics []engine.Diagnostic
}

func (e *CompileError) Error() string {
	errs := 0
	for _, d := range e.Diagnostics {
		if diagnostics.IsFatal(d) {
			errs++
		}
	}
	return fmt.Sprintf("there were TypeScript errors transpiling %s (%d errors)", e.Path, errs)
}

// Recorder observes emits.
type Recorder interface {
	ObserveEmit(status string, elapsed time.Duration)
}

// Options configures a Builder.
type Options struct {
	Compiler engine.Options
	// Reporter renders diagnostics. Defaults to a reporter logging to Logger.
	Reporter *diagnostics.Reporter
	Recorder Recorder
	Logger   *slog.Logger
}

// Builder emits single files from whole-program units.
type Builder struct {
	registry *registry.Registry
	engine   engine.Engine
	host     engine.Host
	opts     engine.Options
	reporter *diagnostics.Reporter
	recorder Recorder
	logger   *slog.Logger
}

// NewBuilder creates a builder over reg.
func NewBuilder(reg *registry.Registry, eng engine.Engine, h engine.Host, opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diagnostics.NewReporter(diagnostics.SlogSink{Logger: logger})
	}
	return &Builder{
		registry: reg,
		engine:   eng,
		host:     h,
		opts:     opts.Compiler,
		reporter: reporter,
		recorder: opts.Recorder,
		logger:   logger,
	}
}

// EmitOne builds a program over every registered path, seeded with prior's
// program, and emits path alone. Outputs ending in .map become the source
// map text; any other output is the code.
//
// Diagnostics are filtered and all of them are reported before the call
// fails with a *CompileError. The new unit is returned whenever the program
// could be built, including alongside a CompileError.
func (b *Builder) EmitOne(path string, prior *Unit) (*Result, *Unit, error) {
	start := time.Now()

	keys := b.registry.Keys()
	var old engine.Program
	if prior != nil {
		old = prior.Program
	}
	prog, err := b.engine.CreateProgram(keys, b.opts, b.host, old)
	if err != nil {
		b.observe(StatusError, start)
		return nil, prior, fmt.Errorf("emitting %s: %w", path, err)
	}
	unit := &Unit{Keys: keys, Program: prog}

	source := prog.SourceFile(path)
	if source == nil {
		b.observe(StatusError, start)
		return nil, unit, fmt.Errorf("emitting %s: %w", path, host.ErrNotPreloaded)
	}

	result := &Result{}
	emitted := prog.Emit(source, func(fileName, data string) {
		if strings.HasSuffix(fileName, ".map") {
			result.SourceMapText = data
		} else {
			result.OutputText = data
		}
	})
	result.Diagnostics = diagnostics.Filter(emitted.Diagnostics)

	b.logger.Debug("emitted",
		"path", path,
		"files", len(keys),
		"diagnostics", len(result.Diagnostics),
	)

	if b.reporter.Report(result.Diagnostics) {
		b.observe(StatusError, start)
		return result, unit, &CompileError{Path: path, Diagnostics: result.Diagnostics}
	}
	if emitted.EmitSkipped {
		b.observe(StatusSkipped, start)
		return result, unit, fmt.Errorf("emitting %s: %w", path, ErrEmitSkipped)
	}
	b.observe(StatusOK, start)
	return result, unit, nil
}

func (b *Builder) observe(status string, start time.Time) {
	if b.recorder != nil {
		b.recorder.ObserveEmit(status, time.Since(start))
	}
}
