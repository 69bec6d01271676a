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

// Package metrics collects build-session counters in a private prometheus
// registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/resolve"
)

const namespace = "tsgraft"

// Metrics records what one build session did. It implements
// registry.Observer, program.Recorder and diagnostics.Sink.
type Metrics struct {
	registry    *prometheus.Registry
	files       prometheus.Counter
	resolutions *prometheus.CounterVec
	emits       *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates a Metrics with its own registry, so sessions never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_registered_total",
			Help:      "Files added to the file registry.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Import specifiers resolved while preloading, by strategy or \"unresolved\".",
		}, []string{"result"}),
		emits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emits_total",
			Help:      "Single-file emits, by status.",
		}, []string{"status"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Reported diagnostics, by category.",
		}, []string{"category"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "emit_duration_seconds",
			Help:      "Time to rebuild the program and emit one file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.files, m.resolutions, m.emits, m.diagnostics, m.duration)
	return m
}

// Registry returns the session's prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FileRegistered counts a registered file.
func (m *Metrics) FileRegistered(string) {
	m.files.Inc()
}

// Resolved counts a resolution under the strategy that produced it.
func (m *Metrics) Resolved(_, _ string, r resolve.Resolution) {
	result := "unresolved"
	if r.OK() {
		result = r.Strategy
	}
	m.resolutions.WithLabelValues(result).Inc()
}

// ObserveEmit counts an emit and records its duration.
func (m *Metrics) ObserveEmit(status string, elapsed time.Duration) {
	m.emits.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Report counts a diagnostic by category.
func (m *Metrics) Report(d engine.Diagnostic) {
	m.diagnostics.WithLabelValues(d.Category.String()).Inc()
}

// WriteFile writes every metric to path in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
