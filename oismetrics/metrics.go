// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

// Package oismetrics wraps a running ois.HostEndpoint or ois.DeviceEndpoint
// with a read-only HTTP status surface and Prometheus counters, grounded on
// vango-go-vango's pkg/middleware (promauto metric registration,
// go.opentelemetry.io/otel span-per-operation) adapted from per-request
// middleware to a per-Poll observer, since ois has no request/response
// cycle of its own.
package oismetrics

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openois/oishub/ois"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Endpoint is the read-only surface both ois.HostEndpoint and
// ois.DeviceEndpoint expose — enough for an external observer, never the
// mutating methods (SetInput/SetOutput/FireEvent), so this package cannot
// violate the single-threaded Poll contract described in spec.md §5.
type Endpoint interface {
	State() ois.State
	Inputs() []ois.NumericValue
	Outputs() []ois.NumericValue
	Events() []ois.Event
}

// Metrics holds the Prometheus collectors for one wrapped endpoint.
type Metrics struct {
	endpoint Endpoint
	tracer   trace.Tracer
	gatherer prometheus.Gatherer

	framesDecoded   prometheus.Counter
	framesEncoded   prometheus.Counter
	resets          prometheus.Counter
	unknownOpcodes  prometheus.Counter
	stateViolations prometheus.Counter
	connectionState prometheus.Gauge
}

// Option configures New.
type Option func(*config)

type config struct {
	namespace string
	registry  prometheus.Registerer
	tracer    trace.Tracer
}

// WithNamespace sets the Prometheus metric namespace (default "ois").
func WithNamespace(ns string) Option { return func(c *config) { c.namespace = ns } }

// WithRegistry sets the Prometheus registerer (default prometheus.DefaultRegisterer).
func WithRegistry(r prometheus.Registerer) Option { return func(c *config) { c.registry = r } }

// WithTracer sets the OpenTelemetry tracer (default: a no-op tracer from the
// global provider, which costs nothing when no provider is configured).
func WithTracer(t trace.Tracer) Option { return func(c *config) { c.tracer = t } }

// New wraps endpoint with Prometheus metrics and a tracer, registering
// collectors against the configured registry (or the default one).
func New(endpoint Endpoint, opts ...Option) *Metrics {
	cfg := config{namespace: "ois", registry: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer("ois")
	}
	factory := promauto.With(cfg.registry)
	gatherer, ok := cfg.registry.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	return &Metrics{
		endpoint: endpoint,
		tracer:   cfg.tracer,
		gatherer: gatherer,
		framesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace, Name: "frames_decoded_total",
			Help: "Total number of inbound frames successfully decoded.",
		}),
		framesEncoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace, Name: "frames_encoded_total",
			Help: "Total number of outbound frames sent.",
		}),
		resets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace, Name: "resets_total",
			Help: "Total number of times the connection state was reset (handshake violation or DEN).",
		}),
		unknownOpcodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace, Name: "unknown_opcodes_total",
			Help: "Total number of frames with an unrecognized opcode, discarded.",
		}),
		stateViolations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace, Name: "state_violations_total",
			Help: "Total number of commands received outside their permitted connection state.",
		}),
		connectionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.namespace, Name: "connection_state",
			Help: "Current connection state: 0=Handshaking, 1=Synchronisation, 2=Active.",
		}),
	}
}

// RecordFrameDecoded increments the inbound frame counter. Call this from
// the code driving Poll() once per successfully-processed frame.
func (m *Metrics) RecordFrameDecoded() { m.framesDecoded.Inc() }

// RecordFrameEncoded increments the outbound frame counter.
func (m *Metrics) RecordFrameEncoded() { m.framesEncoded.Inc() }

// RecordReset increments the reset counter, for a caller that observes
// resetConnection firing (e.g. by noticing State() regress to Handshaking).
func (m *Metrics) RecordReset() { m.resets.Inc() }

// RecordUnknownOpcode increments the unknown-opcode counter.
func (m *Metrics) RecordUnknownOpcode() { m.unknownOpcodes.Inc() }

// RecordStateViolation increments the state-violation counter.
func (m *Metrics) RecordStateViolation() { m.stateViolations.Inc() }

// FrameDecoded, FrameEncoded, Reset, UnknownOpcode, and StateViolation
// implement ois.StatsHook, so a *Metrics can be registered directly via
// HostEndpoint.SetStatsHook/DeviceEndpoint.SetStatsHook and driven live by
// Poll() instead of only from test code.
func (m *Metrics) FrameDecoded()   { m.RecordFrameDecoded() }
func (m *Metrics) FrameEncoded()   { m.RecordFrameEncoded() }
func (m *Metrics) Reset()          { m.RecordReset() }
func (m *Metrics) UnknownOpcode()  { m.RecordUnknownOpcode() }
func (m *Metrics) StateViolation() { m.RecordStateViolation() }

var _ ois.StatsHook = (*Metrics)(nil)

// TracePoll wraps a single Poll() call in a span named "ois.poll", recording
// an error status if fn returns one. With the default no-op tracer provider
// this adds only the cost of a no-op span.
func (m *Metrics) TracePoll(ctx context.Context, fn func(context.Context) error) error {
	ctx, span := m.tracer.Start(ctx, "ois.poll", trace.WithAttributes(
		attribute.Int("ois.connection_state", int(m.endpoint.State())),
	))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// Sync refreshes the connection-state gauge from the wrapped endpoint. Call
// this once per Poll() alongside the counters above.
func (m *Metrics) Sync() {
	m.connectionState.Set(float64(m.endpoint.State()))
}

// Router builds the chi router serving /health, /metrics, and /catalog.
// /metrics serves the registry given to WithRegistry when it is also a
// prometheus.Gatherer, and the default gatherer otherwise.
func (m *Metrics) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", m.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	r.Get("/catalog", m.handleCatalog)
	return r
}

func (m *Metrics) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"state": m.endpoint.State().String(),
	})
}

type numericEntryDTO struct {
	Name    string `json:"name"`
	Channel uint16 `json:"channel"`
	Active  bool   `json:"active"`
	Type    string `json:"type"`
	Value   any    `json:"value"`
}

type eventEntryDTO struct {
	Name    string `json:"name"`
	Channel uint16 `json:"channel"`
}

type catalogDTO struct {
	Inputs  []numericEntryDTO `json:"inputs"`
	Outputs []numericEntryDTO `json:"outputs"`
	Events  []eventEntryDTO   `json:"events"`
}

func toNumericDTO(nv ois.NumericValue) numericEntryDTO {
	var v any
	switch nv.Type {
	case ois.Boolean:
		v = nv.Value.Bool()
	case ois.Number:
		v = nv.Value.Number()
	case ois.Fraction:
		v = nv.Value.Fraction()
	}
	return numericEntryDTO{Name: nv.Name, Channel: nv.Channel, Active: nv.Active, Type: nv.Type.String(), Value: v}
}

func (m *Metrics) handleCatalog(w http.ResponseWriter, r *http.Request) {
	inputs := m.endpoint.Inputs()
	outputs := m.endpoint.Outputs()
	events := m.endpoint.Events()

	dto := catalogDTO{
		Inputs:  make([]numericEntryDTO, len(inputs)),
		Outputs: make([]numericEntryDTO, len(outputs)),
		Events:  make([]eventEntryDTO, len(events)),
	}
	for i, nv := range inputs {
		dto.Inputs[i] = toNumericDTO(nv)
	}
	for i, nv := range outputs {
		dto.Outputs[i] = toNumericDTO(nv)
	}
	for i, e := range events {
		dto.Events[i] = eventEntryDTO{Name: e.Name, Channel: e.Channel}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto)
}
