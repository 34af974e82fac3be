package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records metadata for background jobs such as the
// settlement reconciler and the outbox dispatcher.
type WorkerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of background jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful background job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed background job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &WorkerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (w *WorkerMetrics) ObserveDuration(job string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (w *WorkerMetrics) IncSuccess(job string) {
	if w == nil || w.success == nil {
		return
	}
	w.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (w *WorkerMetrics) IncFailure(job string) {
	if w == nil || w.failure == nil {
		return
	}
	w.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SettlementMetrics tracks refund settlement outcomes and credited coins.
type SettlementMetrics struct {
	settlements *prometheus.CounterVec
	coins       prometheus.Counter
	duration    prometheus.Histogram
	otpLockouts prometheus.Counter
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refund_settlements_total",
		Help: "Refund settlement attempts by outcome.",
	}, []string{"outcome"})
	coins := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refund_coins_credited_total",
		Help: "Total coins credited to customer wallets.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "refund_settlement_duration_seconds",
		Help:    "Duration of refund settlements in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	otpLockouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otp_lockouts_total",
		Help: "OTP verification lockouts triggered.",
	})
	reg.MustRegister(settlements, coins, duration, otpLockouts)
	return &SettlementMetrics{
		settlements: settlements,
		coins:       coins,
		duration:    duration,
		otpLockouts: otpLockouts,
	}
}

// IncSettlement counts a settlement attempt with the given outcome.
func (s *SettlementMetrics) IncSettlement(outcome string) {
	if s == nil || s.settlements == nil {
		return
	}
	s.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddCoinsCredited accumulates credited coins.
func (s *SettlementMetrics) AddCoinsCredited(coins int64) {
	if s == nil || s.coins == nil || coins <= 0 {
		return
	}
	s.coins.Add(float64(coins))
}

// ObserveSettlementDuration records how long a settlement took.
func (s *SettlementMetrics) ObserveSettlementDuration(duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.Observe(duration.Seconds())
}

// IncOTPLockout counts a triggered verification lockout.
func (s *SettlementMetrics) IncOTPLockout() {
	if s == nil || s.otpLockouts == nil {
		return
	}
	s.otpLockouts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
