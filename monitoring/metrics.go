package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeSummary MetricType = "summary"
)

const maxObservations = 1000

// Metric 指标
type Metric struct {
	Name      string     `json:"name"`
	Type      MetricType `json:"type"`
	Value     float64    `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
	Help      string     `json:"help,omitempty"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	counters     map[string]*Metric
	observations map[string][]float64
	help         map[string]string
	metricsLock  sync.RWMutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:     make(map[string]*Metric),
		observations: make(map[string][]float64),
		help:         make(map[string]string),
		startTime:    time.Now(),
	}
}

// Describe 设置指标说明
func (mc *MetricsCollector) Describe(name, help string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()
	mc.help[name] = help
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	metric, ok := mc.counters[name]
	if !ok {
		metric = &Metric{Name: name, Type: MetricTypeCounter}
		mc.counters[name] = metric
	}
	metric.Value += value
	metric.Timestamp = time.Now()
}

// Counter 获取计数器当前值
func (mc *MetricsCollector) Counter(name string) float64 {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	if metric, ok := mc.counters[name]; ok {
		return metric.Value
	}
	return 0
}

// Observe 记录观测值（如延迟）
func (mc *MetricsCollector) Observe(name string, value float64) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	values := append(mc.observations[name], value)
	// 限制历史大小（保留最近1000个）
	if len(values) > maxObservations {
		values = values[len(values)-maxObservations:]
	}
	mc.observations[name] = values
}

// GetMetricSummary 获取观测指标摘要
func (mc *MetricsCollector) GetMetricSummary(name string) (map[string]interface{}, error) {
	mc.metricsLock.RLock()
	values, ok := mc.observations[name]
	values = append([]float64(nil), values...)
	mc.metricsLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("metric %s not found", name)
	}
	if len(values) == 0 {
		return map[string]interface{}{"count": 0}, nil
	}

	summary := map[string]interface{}{
		"name":   name,
		"count":  len(values),
		"latest": values[len(values)-1],
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	sort.Float64s(values)
	summary["min"] = values[0]
	summary["max"] = values[len(values)-1]
	summary["average"] = sum / float64(len(values))
	summary["p50"] = percentile(values, 0.50)
	summary["p95"] = percentile(values, 0.95)

	return summary, nil
}

// Snapshot 导出所有计数器与摘要
func (mc *MetricsCollector) Snapshot() map[string]interface{} {
	mc.metricsLock.RLock()
	counters := make(map[string]float64, len(mc.counters))
	for name, m := range mc.counters {
		counters[name] = m.Value
	}
	names := make([]string, 0, len(mc.observations))
	for name := range mc.observations {
		names = append(names, name)
	}
	mc.metricsLock.RUnlock()

	summaries := make(map[string]interface{}, len(names))
	for _, name := range names {
		if s, err := mc.GetMetricSummary(name); err == nil {
			summaries[name] = s
		}
	}

	return map[string]interface{}{
		"uptime":     mc.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"counters":   counters,
		"summaries":  summaries,
	}
}

// ExportPrometheus 导出Prometheus格式
func (mc *MetricsCollector) ExportPrometheus() string {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	names := make([]string, 0, len(mc.counters))
	for name := range mc.counters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		metric := mc.counters[name]
		help := mc.help[name]
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, metric.Type)
		fmt.Fprintf(&b, "%s %g\n", name, metric.Value)
	}
	return b.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}
