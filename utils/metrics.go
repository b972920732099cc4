package utils

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "cashbook"

// Metrics содержит метрики приложения
type Metrics struct {
	registry *prometheus.Registry

	// Метрики запросов
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec

	// Метрики кассовой книги
	cashbookDuration prometheus.Histogram
	cashbookRows     prometheus.Histogram
	rejectedRecords  prometheus.Counter
	verifications    *prometheus.CounterVec

	// Метрики уведомлений
	emails *prometheus.CounterVec
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// NewMetrics создает метрики в отдельном реестре
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests per route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency per route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		cashbookDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "build_duration_seconds",
				Help:      "Time spent computing running balances and summaries",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
		),
		cashbookRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "build_rows",
				Help:      "Number of transactions fed into a cashbook computation",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 6),
			},
		),
		rejectedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rejected_records_total",
				Help:      "Total number of malformed transactions excluded from balances",
			},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "verifications_total",
				Help:      "Total number of transaction verifications per outcome",
			},
			[]string{"outcome"},
		),
		emails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "emails_total",
				Help:      "Total number of notification emails per result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestLatency,
		m.cashbookDuration,
		m.cashbookRows,
		m.rejectedRecords,
		m.verifications,
		m.emails,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler возвращает обработчик для экспорта метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCashbook записывает метрики расчета кассовой книги
func (m *Metrics) RecordCashbook(duration time.Duration, rows, rejected int) {
	m.cashbookDuration.Observe(duration.Seconds())
	m.cashbookRows.Observe(float64(rows))
	if rejected > 0 {
		m.rejectedRecords.Add(float64(rejected))
	}
}

// RecordVerification записывает результат проверки транзакции
func (m *Metrics) RecordVerification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

// RecordEmail записывает результат отправки письма
func (m *Metrics) RecordEmail(err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.emails.WithLabelValues(result).Inc()
}
