package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records outcomes of price selection runs and cache traffic.
type PricingMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	cacheHit  *prometheus.CounterVec
	cacheMiss *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_selection_duration_seconds",
		Help:    "Duration of price selection runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_selection_success",
		Help: "Successful price selection runs.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_selection_failure",
		Help: "Failed price selection runs.",
	}, []string{"operation"})
	cacheHit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_selection_cache_hits",
		Help: "Price selection results served from cache.",
	}, []string{"operation"})
	cacheMiss := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_selection_cache_misses",
		Help: "Price selection results computed on a cache miss.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, cacheHit, cacheMiss)
	return &PricingMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		cacheHit:  cacheHit,
		cacheMiss: cacheMiss,
	}
}

// ObserveDuration records the duration for the named operation.
func (p *PricingMetrics) ObserveDuration(operation string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (p *PricingMetrics) IncSuccess(operation string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (p *PricingMetrics) IncFailure(operation string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncCacheHit increments the cache hit counter for the named operation.
func (p *PricingMetrics) IncCacheHit(operation string) {
	if p == nil || p.cacheHit == nil {
		return
	}
	p.cacheHit.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncCacheMiss increments the cache miss counter for the named operation.
func (p *PricingMetrics) IncCacheMiss(operation string) {
	if p == nil || p.cacheMiss == nil {
		return
	}
	p.cacheMiss.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
