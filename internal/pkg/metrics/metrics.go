// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics 记录结账核心流程的业务指标。
type CheckoutMetrics struct {
	// Outcomes 按结果统计结账调用: committed / rejected / invalid / error
	Outcomes *prometheus.CounterVec
	// LineFailures 按原因统计被拒绝的行: NOT_FOUND / OUT_OF_STOCK
	LineFailures *prometheus.CounterVec
	// Duration 结账调用耗时
	Duration *prometheus.HistogramVec
}

// NewCheckoutMetrics 创建并注册结账指标。
func NewCheckoutMetrics() *CheckoutMetrics {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Subsystem: "store",
		Name:      "checkout_total",
		Help:      "Total number of checkout calls by outcome.",
	}, []string{"outcome"})
	lineFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Subsystem: "store",
		Name:      "checkout_line_failures_total",
		Help:      "Total number of rejected cart lines by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "paddock",
		Subsystem: "store",
		Name:      "checkout_duration_ms",
		Help:      "Checkout call latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"outcome"})

	prometheus.MustRegister(outcomes, lineFailures, duration)
	return &CheckoutMetrics{Outcomes: outcomes, LineFailures: lineFailures, Duration: duration}
}

// Handler 返回 /metrics 的 HTTP handler。
func Handler() http.Handler {
	return promhttp.Handler()
}
