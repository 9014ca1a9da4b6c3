// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

// Package metrics exposes prometheus counters and gauges for the session
// controller's operational state: packets sent/received/dropped,
// inactivity teardowns, and live session count. None of this is RTCP —
// no wire-level report is ever sent to the peer; it is purely local
// operator-facing telemetry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the engine's metric collectors. A nil *Registry is safe
// to call every method on (all become no-ops), so instrumentation is
// opt-in.
type Registry struct {
	PacketsSent     prometheus.Counter
	PacketsReceived prometheus.Counter
	PacketsDropped  prometheus.Counter
	Teardowns       *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
}

// NewRegistry builds and registers a Registry's collectors against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtpengine",
			Name:      "packets_sent_total",
			Help:      "Total RTP packets sent across all sessions.",
		}),
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtpengine",
			Name:      "packets_received_total",
			Help:      "Total RTP packets accepted on the receive path across all sessions.",
		}),
		PacketsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtpengine",
			Name:      "packets_dropped_total",
			Help:      "Total inbound packets dropped (malformed, version mismatch, or reorder/duplicate).",
		}),
		Teardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtpengine",
			Name:      "session_teardowns_total",
			Help:      "Total sessions torn down, labeled by reason.",
		}, []string{"reason"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtpengine",
			Name:      "active_sessions",
			Help:      "Number of currently active media sessions.",
		}),
	}
	reg.MustRegister(r.PacketsSent, r.PacketsReceived, r.PacketsDropped, r.Teardowns, r.ActiveSessions)
	return r
}

func (r *Registry) incSent() {
	if r == nil {
		return
	}
	r.PacketsSent.Inc()
}

func (r *Registry) incReceived() {
	if r == nil {
		return
	}
	r.PacketsReceived.Inc()
}

func (r *Registry) incDropped() {
	if r == nil {
		return
	}
	r.PacketsDropped.Inc()
}

func (r *Registry) incTeardown(reason string) {
	if r == nil {
		return
	}
	r.Teardowns.WithLabelValues(reason).Inc()
}

func (r *Registry) sessionStarted() {
	if r == nil {
		return
	}
	r.ActiveSessions.Inc()
}

func (r *Registry) sessionEnded() {
	if r == nil {
		return
	}
	r.ActiveSessions.Dec()
}

// PacketSent records one outbound packet.
func (r *Registry) PacketSent() { r.incSent() }

// PacketReceived records one accepted inbound packet.
func (r *Registry) PacketReceived() { r.incReceived() }

// PacketDropped records one discarded inbound datagram.
func (r *Registry) PacketDropped() { r.incDropped() }

// Teardown records a session teardown with the given reason
// ("inactivity", "send_exhausted", "io_error", "record_error").
func (r *Registry) Teardown(reason string) { r.incTeardown(reason) }

// SessionStarted increments the live-session gauge.
func (r *Registry) SessionStarted() { r.sessionStarted() }

// SessionEnded decrements the live-session gauge.
func (r *Registry) SessionEnded() { r.sessionEnded() }
