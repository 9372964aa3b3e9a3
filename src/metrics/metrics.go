// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package metrics provides Prometheus instrumentation for certificate path
// validation. Collectors are registered on a caller-supplied registerer, never
// on the global default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/H0llyW00dzZ/x509-path-validator/src/version"
)

const (
	// Namespace is the Prometheus namespace for every metric.
	Namespace = "x509pv"

	// LabelResult carries "valid" or the failure kind of a validation.
	LabelResult = "result"
	// LabelStatus carries the outcome of a revocation lookup.
	LabelStatus = "status"
	// LabelVersion carries the library version on the build info gauge.
	LabelVersion = "version"

	// ResultValid labels a successful validation.
	ResultValid = "valid"

	StatusGood    = "good"
	StatusRevoked = "revoked"
)

// Collector records validation metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	validations      *prometheus.CounterVec
	duration         prometheus.Histogram
	candidates       prometheus.Counter
	revocationChecks *prometheus.CounterVec
	storeSize        prometheus.Gauge
}

// New creates a Collector and registers it on reg.
// It panics if registration fails, as promauto does.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	f.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Always 1, labeled with the library version",
		},
		[]string{LabelVersion},
	).WithLabelValues(version.Version).Set(1)

	return &Collector{
		validations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "validations_total",
				Help:      "Total number of chain validations by result",
			},
			[]string{LabelResult},
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "validation_duration_seconds",
			Help:      "Duration of chain validations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		candidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "candidate_attempts_total",
			Help:      "Total number of issuer candidates tried during path building",
		}),
		revocationChecks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "revocation_checks_total",
				Help:      "Total number of revocation oracle lookups by status",
			},
			[]string{LabelStatus},
		),
		storeSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "certificates",
			Help:      "Number of certificates held by the certificate store",
		}),
	}
}

// ObserveValidation records one validation with its result label.
func (c *Collector) ObserveValidation(result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.validations.WithLabelValues(result).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// AddCandidateAttempts adds n tried issuer candidates.
func (c *Collector) AddCandidateAttempts(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.candidates.Add(float64(n))
}

// ObserveRevocation records one revocation lookup.
func (c *Collector) ObserveRevocation(revoked bool) {
	if c == nil {
		return
	}
	status := StatusGood
	if revoked {
		status = StatusRevoked
	}
	c.revocationChecks.WithLabelValues(status).Inc()
}

// SetStoreSize sets the store size gauge. It matches the signature expected
// by x509store.WithSizeObserver.
func (c *Collector) SetStoreSize(n int) {
	if c == nil {
		return
	}
	c.storeSize.Set(float64(n))
}
