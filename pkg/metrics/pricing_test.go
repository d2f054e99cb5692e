package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPricingMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPricingMetrics(reg)
	op := "calculate_variant_prices"
	metrics.ObserveDuration(op, 120*time.Millisecond)
	metrics.IncSuccess(op)
	metrics.IncFailure(op)
	metrics.IncCacheHit(op)
	metrics.IncCacheHit(op)
	metrics.IncCacheMiss(op)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "price_selection_success", "operation", op); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "price_selection_failure", "operation", op); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "price_selection_cache_hits", "operation", op); err != nil {
		t.Fatalf("fetch cache hits: %v", err)
	} else if got != 2 {
		t.Fatalf("expected cache hits=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "price_selection_cache_misses", "operation", op); err != nil {
		t.Fatalf("fetch cache misses: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cache misses=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "price_selection_duration_seconds", "operation", op); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPricingMetricsNilSafe(t *testing.T) {
	var metrics *PricingMetrics
	metrics.ObserveDuration("op", time.Second)
	metrics.IncSuccess("op")
	metrics.IncFailure("op")
	metrics.IncCacheHit("op")
	metrics.IncCacheMiss("op")

	unregistered := NewPricingMetrics(nil)
	unregistered.IncSuccess("")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
