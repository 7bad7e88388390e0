package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationRequests counts batch generations by variant and origin
	// (cache, provider, fallback).
	GenerationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fridgechef",
		Name:      "generation_requests_total",
		Help:      "Batch generation requests by variant and result origin.",
	}, []string{"variant", "origin"})

	// CacheLookups counts cache tier lookups by tier and outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fridgechef",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by tier (local, shared) and outcome (hit, miss, error).",
	}, []string{"tier", "outcome"})

	// FallbackSyntheses counts deterministic fallback recipes produced.
	FallbackSyntheses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fridgechef",
		Name:      "fallback_syntheses_total",
		Help:      "Recipes synthesized from the fallback template.",
	})

	// ProviderLatency observes generation provider call latency.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fridgechef",
		Name:      "provider_latency_seconds",
		Help:      "Latency of generation provider calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	// StreamSessions counts stream relay sessions by terminal state.
	StreamSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fridgechef",
		Name:      "stream_sessions_total",
		Help:      "Stream relay sessions by terminal state (completed, cancelled, failed).",
	}, []string{"state"})

	// EventsDropped counts analytics events dropped because the sink buffer
	// was full or delivery exhausted its retries.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fridgechef",
		Name:      "analytics_events_dropped_total",
		Help:      "Analytics events dropped by the sink.",
	})
)
