package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	recordUpserts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "welltrack",
			Subsystem: "records",
			Name:      "upserts_total",
			Help:      "Number of accepted stage record writes.",
		},
	)
	recordDeletes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "welltrack",
			Subsystem: "records",
			Name:      "deletes_total",
			Help:      "Number of confirmed stage record deletions.",
		},
	)
	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "welltrack",
			Name:      "validation_failures_total",
			Help:      "Writes rejected because the start date is after the end date.",
		}, []string{"process"},
	)
	authFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "welltrack",
			Name:      "auth_failures_total",
			Help:      "Requests rejected for an unknown user or a missing permission.",
		}, []string{"reason"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times and with more than one registry;
// collectors already present in r are skipped.
func Register(r prometheus.Registerer) error {
	cs := []prometheus.Collector{recordUpserts, recordDeletes, validationFailures, authFailures}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// HandlerFor serves metrics from a specific gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncUpsert() {
	if regOK.Load() {
		recordUpserts.Inc()
	}
}

func IncDelete() {
	if regOK.Load() {
		recordDeletes.Inc()
	}
}

func IncValidationFailure(process string) {
	if regOK.Load() {
		validationFailures.WithLabelValues(process).Inc()
	}
}

// IncAuthFailure counts a rejected request; reason is "auth" or "permission".
func IncAuthFailure(reason string) {
	if regOK.Load() {
		authFailures.WithLabelValues(reason).Inc()
	}
}
