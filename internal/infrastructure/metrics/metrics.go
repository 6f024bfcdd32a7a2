package metrics

import (
	"time"

	"fxconv-service/internal/application"
	"fxconv-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AcquisitionMetrics records every fallback step and every produced snapshot.
type AcquisitionMetrics struct {
	// Attempts per source, outcome is "ok" or the failure kind
	AttemptsTotal   *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec

	SnapshotsTotal *prometheus.CounterVec
	FallbackTotal  *prometheus.CounterVec
	// Last published rate, 0 while degraded
	USDRate *prometheus.GaugeVec
}

var _ application.Observer = (*AcquisitionMetrics)(nil)

// NewAcquisitionMetrics registers the collectors on reg.
func NewAcquisitionMetrics(reg prometheus.Registerer) *AcquisitionMetrics {
	f := promauto.With(reg)
	return &AcquisitionMetrics{
		AttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconv_rate_fetch_attempts_total",
				Help: "Rate fetch attempts per source and outcome",
			},
			[]string{"currency", "source", "outcome"},
		),
		AttemptDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxconv_rate_fetch_duration_seconds",
				Help:    "Latency of a single rate fetch step",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms .. 12.8s
			},
			[]string{"currency", "source"},
		),
		SnapshotsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconv_snapshots_total",
				Help: "Rate snapshots produced by status",
			},
			[]string{"status"},
		),
		FallbackTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconv_fallback_constant_total",
				Help: "Rates filled from the configured fallback constants",
			},
			[]string{"currency"},
		),
		USDRate: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxconv_usd_rate",
				Help: "Units of currency per 1 USD in the last snapshot",
			},
			[]string{"currency"},
		),
	}
}

func (m *AcquisitionMetrics) ObserveAttempt(c domain.Currency, source string, err error, took time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = domain.FailureKind(err)
	}
	m.AttemptsTotal.WithLabelValues(string(c), source, outcome).Inc()
	m.AttemptDuration.WithLabelValues(string(c), source).Observe(took.Seconds())
}

func (m *AcquisitionMetrics) ObserveSnapshot(s domain.RateSnapshot) {
	m.SnapshotsTotal.WithLabelValues(string(s.Status)).Inc()
	m.USDRate.WithLabelValues(string(domain.RUB)).Set(s.USDToRUB)
	m.USDRate.WithLabelValues(string(domain.KGS)).Set(s.USDToKGS)
	if s.RUBSource == domain.SourceFallbackConstant {
		m.FallbackTotal.WithLabelValues(string(domain.RUB)).Inc()
	}
	if s.KGSSource == domain.SourceFallbackConstant {
		m.FallbackTotal.WithLabelValues(string(domain.KGS)).Inc()
	}
}
