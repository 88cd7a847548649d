// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MKhiriev/go-offline-sync/models"
)

const namespace = "offline_sync"

// Pass outcomes.
const (
	PassOK        = "ok"
	PassDegraded  = "degraded"
	PassFailed    = "failed"
	PassCancelled = "cancelled"
)

// Mutation outcomes.
const (
	MutationAcknowledged = "acknowledged"
	MutationRetried      = "retried"
	MutationConflict     = "conflict"
	MutationRejected     = "rejected"
	MutationExhausted    = "exhausted"
)

// Metrics owns one set of collectors registered on its own registry, so
// several engines in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	pending       prometheus.Gauge
	connectivity  prometheus.Gauge
	syncPasses    *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	deltas        *prometheus.CounterVec
	liveReconnect prometheus.Counter
	requests      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_mutations",
			Help:      "Mutations not yet acknowledged by the remote, held ones included.",
		}),
		connectivity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connectivity_state",
			Help:      "Connectivity state: 0 offline, 1 connecting, 2 online-degraded, 3 online.",
		}),
		syncPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_total",
			Help:      "Completed sync passes by outcome.",
		}, []string{"outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutation send results by outcome.",
		}, []string{"outcome"}),
		deltas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_deltas_total",
			Help:      "Remote deltas by source and apply outcome.",
		}, []string{"source", "outcome"}),
		liveReconnect: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_reconnects_total",
			Help:      "Live channel dial attempts after the first one.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the reference remote by route and status.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.pending,
		m.connectivity,
		m.syncPasses,
		m.mutations,
		m.deltas,
		m.liveReconnect,
		m.requests,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SetPending(n int) {
	m.pending.Set(float64(n))
}

func (m *Metrics) SetConnectivity(s models.ConnectivityState) {
	m.connectivity.Set(float64(s))
}

func (m *Metrics) RecordPass(outcome string) {
	m.syncPasses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordMutation(outcome string) {
	m.mutations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDelta(source, outcome string) {
	m.deltas.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) RecordLiveReconnect() {
	m.liveReconnect.Inc()
}

func (m *Metrics) RecordRequest(method, route string, status int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
