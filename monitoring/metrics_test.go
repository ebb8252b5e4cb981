package monitoring

import (
	"strings"
	"sync"
	"testing"
)

func TestCounters(t *testing.T) {
	mc := NewMetricsCollector()
	mc.Describe("predictions_total", "Predictions served")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mc.IncrCounter("predictions_total", 1)
		}()
	}
	wg.Wait()

	if got := mc.Counter("predictions_total"); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := mc.Counter("missing"); got != 0 {
		t.Fatalf("expected 0 for unknown counter, got %v", got)
	}

	out := mc.ExportPrometheus()
	if !strings.Contains(out, "# HELP predictions_total Predictions served") {
		t.Fatalf("missing help line: %s", out)
	}
	if !strings.Contains(out, "predictions_total 50") {
		t.Fatalf("missing value line: %s", out)
	}
}

func TestSummary(t *testing.T) {
	mc := NewMetricsCollector()
	for _, v := range []float64{4, 1, 3, 2} {
		mc.Observe("latency_ms", v)
	}

	summary, err := mc.GetMetricSummary("latency_ms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary["count"].(int) != 4 {
		t.Fatalf("unexpected count: %v", summary["count"])
	}
	if summary["min"].(float64) != 1 || summary["max"].(float64) != 4 {
		t.Fatalf("unexpected bounds: %v", summary)
	}
	if summary["average"].(float64) != 2.5 {
		t.Fatalf("unexpected average: %v", summary["average"])
	}
	if summary["latest"].(float64) != 2 {
		t.Fatalf("unexpected latest: %v", summary["latest"])
	}

	if _, err := mc.GetMetricSummary("nope"); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestObservationHistoryIsBounded(t *testing.T) {
	mc := NewMetricsCollector()
	for i := 0; i < maxObservations+10; i++ {
		mc.Observe("latency_ms", float64(i))
	}
	summary, _ := mc.GetMetricSummary("latency_ms")
	if summary["count"].(int) != maxObservations {
		t.Fatalf("expected %d observations, got %v", maxObservations, summary["count"])
	}
	if summary["min"].(float64) != 10 {
		t.Fatalf("expected oldest observations dropped, min=%v", summary["min"])
	}
}

func TestSnapshot(t *testing.T) {
	mc := NewMetricsCollector()
	mc.IncrCounter("prediction_errors", 2)
	mc.Observe("latency_ms", 1.5)

	snap := mc.Snapshot()
	counters := snap["counters"].(map[string]float64)
	if counters["prediction_errors"] != 2 {
		t.Fatalf("unexpected counters: %v", counters)
	}
	summaries := snap["summaries"].(map[string]interface{})
	if _, ok := summaries["latency_ms"]; !ok {
		t.Fatalf("missing latency summary: %v", summaries)
	}
}
