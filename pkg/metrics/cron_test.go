package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("x", time.Second, nil)
	m.ObserveSkipped()
	NewCronJobMetrics(nil).ObserveRun("", 0, errors.New("boom"))
}

func TestCronJobMetricsRunsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "payment-reconcile"
	m.ObserveRun(job, 250*time.Millisecond, nil)
	m.ObserveRun(job, time.Second, errors.New("gateway down"))
	m.ObserveRun(job, time.Second, errors.New("gateway down"))
	m.ObserveSkipped()

	families := gather(t, reg)
	if got := sampleValue(families, "buytown_cron_job_runs_total", map[string]string{"job": job, "outcome": OutcomeSuccess}); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := sampleValue(families, "buytown_cron_job_runs_total", map[string]string{"job": job, "outcome": OutcomeFailure}); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}
	if got := sampleValue(families, "buytown_cron_job_last_success_timestamp_seconds", map[string]string{"job": job}); got < float64(time.Now().Add(-time.Minute).Unix()) {
		t.Fatalf("expected recent last success timestamp, got %v", got)
	}
	if got := sampleValue(families, "buytown_cron_cycles_skipped_total", nil); got != 1 {
		t.Fatalf("expected 1 skipped cycle, got %v", got)
	}
	if got := sampleValue(families, "buytown_cron_job_duration_seconds", map[string]string{"job": job}); got != 3 {
		t.Fatalf("expected 3 duration samples, got %v", got)
	}
}

func gather(t *testing.T, reg *prometheus.Registry) []*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	return families
}

// sampleValue returns the counter or gauge value, or the histogram sample
// count, of the series matching every label in want.
func sampleValue(families []*dto.MetricFamily, name string, want map[string]string) float64 {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !hasLabels(metric.GetLabel(), want) {
				continue
			}
			switch {
			case metric.Counter != nil:
				return metric.GetCounter().GetValue()
			case metric.Gauge != nil:
				return metric.GetGauge().GetValue()
			case metric.Histogram != nil:
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return -1
}

func hasLabels(labels []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, label := range labels {
		if v, ok := want[label.GetName()]; ok && v == label.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
