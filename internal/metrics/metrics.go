package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "imobiliare"

// Metrics 业务指标集合，nil 接收者上的调用均为空操作
type Metrics struct {
	registry          *prometheus.Registry
	sweepRuns         *prometheus.CounterVec
	sweepDuration     *prometheus.HistogramVec
	listingTransition *prometheus.CounterVec
	paymentsRecorded  *prometheus.CounterVec
	paymentDuplicates prometheus.Counter
	cleanupDeleted    prometheus.Counter
	rankingFallback   prometheus.Counter
}

// New 创建指标集合并注册到独立 Registry
func New(namespace string) (*Metrics, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = defaultNamespace
	}
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Scheduled sweep executions by sweep and result.",
		}, []string{"sweep", "result"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of scheduled sweeps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sweep"}),
		listingTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_transitions_total",
			Help:      "Listing state changes and notifications emitted by the expiration sweep.",
		}, []string{"transition"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Announcement payments persisted by provider.",
		}, []string{"provider"}),
		paymentDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_duplicates_total",
			Help:      "Payment confirmations ignored because the external transaction was already recorded.",
		}),
		cleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_deleted_total",
			Help:      "Stale pending listings removed by the cleanup sweep.",
		}),
		rankingFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_fallback_total",
			Help:      "Listing queries served by the in-memory ranking path.",
		}),
	}
	registered := []prometheus.Collector{
		m.sweepRuns,
		m.sweepDuration,
		m.listingTransition,
		m.paymentsRecorded,
		m.paymentDuplicates,
		m.cleanupDeleted,
		m.rankingFallback,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, collector := range registered {
		if err := registry.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer 暴露底层 Registry，供测试读取
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// ObserveSweep 记录一次扫描的结果与耗时
func (m *Metrics) ObserveSweep(sweep string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sweepRuns.WithLabelValues(sweep, result).Inc()
	m.sweepDuration.WithLabelValues(sweep).Observe(duration.Seconds())
}

// AddTransitions 累加房源状态迁移次数
func (m *Metrics) AddTransitions(transition string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.listingTransition.WithLabelValues(transition).Add(float64(count))
}

// IncPaymentRecorded 记录一笔支付落库
func (m *Metrics) IncPaymentRecorded(provider string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(provider).Inc()
}

// IncPaymentDuplicate 记录一次重复支付回调
func (m *Metrics) IncPaymentDuplicate() {
	if m == nil {
		return
	}
	m.paymentDuplicates.Inc()
}

// AddCleanupDeleted 累加清理删除数
func (m *Metrics) AddCleanupDeleted(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.cleanupDeleted.Add(float64(count))
}

// IncRankingFallback 记录一次内存排序回退
func (m *Metrics) IncRankingFallback() {
	if m == nil {
		return
	}
	m.rankingFallback.Inc()
}
